// =============================================================================
// Transport Challan & Ledger - CSV Reader
// =============================================================================
//
// This module reads two kinds of CSV file:
//   - Shipment exports, with the same header row as the workbook. They
//     produce the same types.Table the workbook reader does.
//   - Side files of keyed amounts: previous balances, manual corrections and
//     route hamali. Each row is a key followed by one or more amounts.
//
//   | File            | Columns                           |
//   |-----------------|-----------------------------------|
//   | balances.csv    | consignor, previous_balance       |
//   | corrections.csv | correction_key, deduction, addition |
//   | hamali.csv      | route_key, loading, unloading     |
//
//   A side file's first row is skipped when its amount columns are not
//   numbers, so files may be saved with or without a header.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transport-challan-ledger/internal/types"
	"github.com/ginjaninja78/transport-challan-ledger/internal/validation"
)

const byteOrderMark = "\uFEFF"

// Settings controls how CSV files are split into fields.
type Settings struct {
	// Delimiter is the field separator: ",", ";", "|", or "tab".
	Delimiter string
}

// DefaultSettings reads comma-separated files.
func DefaultSettings() Settings {
	return Settings{Delimiter: ","}
}

// =============================================================================
// SHIPMENT EXPORTS
// =============================================================================

// ReadShipments reads a shipment export.
//
// PARAMETERS:
//   - filePath: The CSV file to read.
//   - settings: Delimiter settings.
//   - required: Columns the header row must carry.
//
// RETURNS:
//   - The rows keyed by trimmed header. Sheet is empty for CSV input.
//   - A *validation.ColumnError when a required column is missing.
func ReadShipments(filePath string, settings Settings, required []string) (*types.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	table, err := readShipments(file, filePath, settings, required)
	if err != nil {
		return nil, err
	}
	table.Source = filePath
	return table, nil
}

func readShipments(r io.Reader, source string, settings Settings, required []string) (*types.Table, error) {
	allRows, err := readAll(r, settings)
	if err != nil {
		return nil, err
	}
	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	headers := cleanHeaders(allRows[0])
	if err := validation.RequireColumns(source, headers, required); err != nil {
		return nil, err
	}

	table := &types.Table{Headers: headers}
	for i := 1; i < len(allRows); i++ {
		row := allRows[i]
		if isRowEmpty(row) {
			continue
		}
		cells := make(map[string]string, len(headers))
		for col, header := range headers {
			if col < len(row) {
				cells[header] = strings.TrimSpace(row[col])
			} else {
				cells[header] = ""
			}
		}
		table.Rows = append(table.Rows, types.Row{Number: i + 1, Cells: cells})
	}
	return table, nil
}

// =============================================================================
// KEYED AMOUNTS
// =============================================================================

// KeyedAmount is one row of a side file.
type KeyedAmount struct {
	Key    string
	Values []decimal.Decimal
}

// ReadKeyedAmounts reads a side file whose rows carry a key followed by
// columns amounts.
func ReadKeyedAmounts(filePath string, settings Settings, columns int) ([]KeyedAmount, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return readKeyedAmounts(file, settings, columns)
}

func readKeyedAmounts(r io.Reader, settings Settings, columns int) ([]KeyedAmount, error) {
	allRows, err := readAll(r, settings)
	if err != nil {
		return nil, err
	}

	var amounts []KeyedAmount
	for i, row := range allRows {
		if isRowEmpty(row) {
			continue
		}
		if len(row) < columns+1 {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", i+1, columns+1, len(row))
		}

		key := strings.TrimSpace(row[0])
		values := make([]decimal.Decimal, columns)
		for c := 0; c < columns; c++ {
			text := strings.ReplaceAll(strings.TrimSpace(row[c+1]), ",", "")
			if text == "" {
				values[c] = decimal.Zero
				continue
			}
			v, err := decimal.NewFromString(text)
			if err != nil {
				if i == 0 {
					values = nil
					break
				}
				return nil, fmt.Errorf("row %d: column %d: %q is not a number", i+1, c+2, row[c+1])
			}
			values[c] = v
		}
		if values == nil {
			continue
		}
		if key == "" {
			return nil, fmt.Errorf("row %d: empty key", i+1)
		}
		amounts = append(amounts, KeyedAmount{Key: key, Values: values})
	}
	return amounts, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func readAll(r io.Reader, settings Settings) ([][]string, error) {
	reader := bufio.NewReader(r)
	if bom, err := reader.Peek(len(byteOrderMark)); err == nil && string(bom) == byteOrderMark {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return allRows, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings Settings) {
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Exports are hand-edited; tolerate ragged rows and stray quotes.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// cleanHeaders trims headers and names blank ones "Column_N".
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
