// =============================================================================
// Transport Challan & Ledger - Workbook Reader
// =============================================================================
//
// This module reads shipment workbooks. A workbook may split its rows over
// several sheets (one per month is common); every sheet is read and the
// rows are concatenated in sheet order.
//
// SHEET STRUCTURE (Expected Layout):
//
//   | S. NO. | DATE       | FROM  | TO     | TRUCK NO. | NAME OF THE DRIVER | ... | AMOUNT | Hire |
//   |--------|------------|-------|--------|-----------|--------------------|-----|--------|------|
//   | 1      | 02/01/2024 | Delhi | Mumbai | MH12 AB   | Ram                | ... | 6000   | 2000 |
//
//   Row 1 is the header row. Headers are trimmed before matching. Sheets
//   whose name starts with "_" are skipped; sheets with no rows at all are
//   ignored.
//
// CELL VALUES:
//   Cells are read raw, so numbers are never rounded by their display
//   format. A DATE cell holding an Excel serial number is converted to
//   DD/MM/YYYY text; any other DATE text is passed through for the
//   normalizer to parse.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/transport-challan-ledger/internal/types"
	"github.com/ginjaninja78/transport-challan-ledger/internal/validation"
)

// ReadWorkbook opens the workbook at path and reads every sheet.
//
// PARAMETERS:
//   - path: The .xlsx file to read.
//   - required: Columns every non-empty sheet must carry.
//
// RETURNS:
//   - The concatenated rows of all sheets.
//   - A *validation.ColumnError when a sheet lacks a required column, or an
//     error when the file cannot be opened.
func ReadWorkbook(path string, required []string) (*types.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	table, err := readFile(f, required)
	if err != nil {
		return nil, err
	}
	table.Source = path
	return table, nil
}

// Read reads a workbook from r. It behaves like ReadWorkbook.
func Read(r io.Reader, required []string) (*types.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return readFile(f, required)
}

func readFile(f *excelize.File, required []string) (*types.Table, error) {
	table := &types.Table{}
	seen := make(map[string]bool)

	for _, sheetName := range f.GetSheetList() {
		if strings.HasPrefix(sheetName, "_") {
			continue
		}

		rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet '%s': %w", sheetName, err)
		}
		if len(rows) == 0 || isRowEmpty(rows[0]) {
			continue
		}

		headers := cleanHeaders(rows[0])
		if err := validation.RequireColumns(sheetName, headers, required); err != nil {
			return nil, err
		}
		for _, h := range headers {
			if !seen[h] {
				seen[h] = true
				table.Headers = append(table.Headers, h)
			}
		}

		for i := 1; i < len(rows); i++ {
			row := rows[i]
			if isRowEmpty(row) {
				continue
			}
			table.Rows = append(table.Rows, types.Row{
				Sheet:  sheetName,
				Number: i + 1,
				Cells:  rowCells(headers, row),
			})
		}
	}

	return table, nil
}

// rowCells maps a raw row onto its headers.
func rowCells(headers, row []string) map[string]string {
	// Helper function to safely get a cell value.
	getCell := func(index int) string {
		if index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	cells := make(map[string]string, len(headers))
	for i, h := range headers {
		value := getCell(i)
		if h == validation.ColDate {
			value = serialDate(value)
		}
		cells[h] = value
	}
	return cells
}

// serialDate converts an Excel serial date to DD/MM/YYYY. Values that are not
// a positive number are returned unchanged.
func serialDate(value string) string {
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || serial <= 0 {
		return value
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return value
	}
	return t.Format("02/01/2006")
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

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

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
