package render

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/transport-challan-ledger/internal/assemble"
)

// Sheet is one worksheet of a tabular export.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// TableWorkbook writes sheets in order, each with a bold header row.
func TableWorkbook(sheets ...Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("render: workbook needs at least one sheet")
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
	})
	if err != nil {
		return nil, fmt.Errorf("render: header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Name); err != nil {
				return nil, fmt.Errorf("render: sheet %s: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return nil, fmt.Errorf("render: sheet %s: %w", s.Name, err)
		}
		if err := writeSheet(f, s, header); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, s Sheet, headerStyle int) error {
	headers := make([]any, len(s.Headers))
	for i, h := range s.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(s.Name, "A1", &headers); err != nil {
		return fmt.Errorf("render: %s header: %w", s.Name, err)
	}
	if len(s.Headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(s.Headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(s.Name, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("render: %s header style: %w", s.Name, err)
		}
		lastCol, _ := excelize.ColumnNumberToName(len(s.Headers))
		if err := f.SetColWidth(s.Name, "A", lastCol, 18); err != nil {
			return fmt.Errorf("render: %s widths: %w", s.Name, err)
		}
	}

	for i, row := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(s.Name, cell, &row); err != nil {
			return fmt.Errorf("render: %s row %d: %w", s.Name, i+2, err)
		}
	}
	return nil
}

// LedgerWorkbook writes the "Shipments" and "Summary" sheets of a bill.
func LedgerWorkbook(w assemble.LedgerWorkbook) ([]byte, error) {
	shipments := Sheet{
		Name:    "Shipments",
		Headers: []string{"Date", "Consignee", "Weight", "Packages", "Amount"},
	}
	for _, s := range w.Shipments {
		shipments.Rows = append(shipments.Rows, []any{s.Date, s.Consignee, s.Weight, s.Packages, s.Amount})
	}

	sum := w.Summary
	summary := Sheet{
		Name: "Summary",
		Headers: []string{
			"Week Range", "Consignor", "Route", "Total Trips", "Total Weight (KG)",
			"Total Packages", "Total Amount", "Total Hire", "Net Amount",
			"Previous Outstanding", "Final Balance",
		},
		Rows: [][]any{{
			sum.WeekRange, sum.Consignor, sum.Route, sum.TotalTrips, sum.TotalWeight,
			sum.TotalPackages, sum.TotalAmount, sum.TotalHire, sum.NetAmount,
			sum.PreviousBalance, sum.FinalBalance,
		}},
	}
	return TableWorkbook(shipments, summary)
}

// PartySummaryWorkbook writes the all-party summary with its grand total row.
func PartySummaryWorkbook(s assemble.PartySummary) ([]byte, error) {
	sheet := Sheet{
		Name:    "Party Summary",
		Headers: []string{"CONSIGNOR", "SUM_WT", "FREIGHT", "SUM_AMOUNT"},
	}
	for _, r := range s.Rows {
		sheet.Rows = append(sheet.Rows, []any{r.Consignor, r.Weight, r.MaxFreight, r.Amount})
	}
	g := s.GrandTotal
	sheet.Rows = append(sheet.Rows, []any{g.Consignor, g.Weight, "", g.Amount})
	return TableWorkbook(sheet)
}
