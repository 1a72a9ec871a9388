package assemble

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transport-challan-ledger/internal/aggregate"
	"github.com/ginjaninja78/transport-challan-ledger/internal/grouping"
	"github.com/ginjaninja78/transport-challan-ledger/internal/types"
)

// =============================================================================
// VARIANTS
// =============================================================================

// Variant selects how a bill is totalled.
type Variant string

const (
	// VariantWeekly prints SUBTOTAL, OLD BALANCE and FINAL TOTAL, where the
	// final total is subtotal plus old balance. Hire only reaches the
	// workbook summary.
	VariantWeekly Variant = "weekly"

	// VariantCorrection deducts hire, route hamali and manual corrections
	// on the bill and prints the carry-forward balance.
	VariantCorrection Variant = "correction"
)

// VariantFor returns the variant called name ("weekly" or "correction").
func VariantFor(name string) (Variant, bool) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(name))); v {
	case VariantWeekly, VariantCorrection:
		return v, true
	}
	return "", false
}

// =============================================================================
// SHARED SHEET
// =============================================================================

// LedgerLine is one shipment printed on a bill or ledger.
type LedgerLine struct {
	Date         string
	Consignee    string
	Weight       string
	FreightPerKg string
	Packages     string
	Amount       string
}

// LedgerSheet is the part common to bills and ledgers: header, shipment
// lines and the period subtotal.
type LedgerSheet struct {
	Consignor    string
	RouteHeading string
	Period       string

	Lines []LedgerLine

	TotalTrips    int
	TotalWeight   string
	TotalPackages string
	Subtotal      string
}

// Bill adds the carried-forward balance to the sheet.
type Bill struct {
	LedgerSheet
	FileName string

	// Adjustments lists the non-zero deductions and additions between the
	// subtotal and the old balance.
	Adjustments []Line
	OldBalance  string
	FinalLabel  string
	FinalTotal  string
}

// Template names the renderer template for bills.
func (Bill) Template() string { return "bill" }

// Ledger shows the period subtotal only.
type Ledger struct {
	LedgerSheet
	FileName string
}

// Template names the renderer template for ledgers.
func (Ledger) Template() string { return "ledger" }

// =============================================================================
// WORKBOOK
// =============================================================================

// WorkbookShipment is one row of the "Shipments" sheet.
type WorkbookShipment struct {
	Date      string
	Consignee string
	Weight    float64
	Packages  float64
	Amount    float64
}

// WorkbookSummary is the single row of the "Summary" sheet.
type WorkbookSummary struct {
	WeekRange       string
	Consignor       string
	Route           string
	TotalTrips      int
	TotalWeight     float64
	TotalPackages   float64
	TotalAmount     float64
	TotalHire       float64
	NetAmount       float64
	PreviousBalance float64
	FinalBalance    float64
}

// LedgerWorkbook mirrors the numeric fields of a bill in spreadsheet form.
type LedgerWorkbook struct {
	FileName  string
	Shipments []WorkbookShipment
	Summary   WorkbookSummary
}

// =============================================================================
// ASSEMBLY
// =============================================================================

// LedgerSet is every artifact produced for one (consignor, period, route).
type LedgerSet struct {
	BundleDir string
	Bill      Bill
	Ledger    Ledger
	Workbook  LedgerWorkbook
}

// NewLedgerSet assembles the bill, ledger and workbook of one aggregate.
// The bill and ledger share every line; they differ only in the rows that
// follow the subtotal. The workbook always carries the net-of-hire final
// balance whatever the variant prints on the bill.
func NewLedgerSet(rec aggregate.Record[grouping.LedgerKey], variant Variant) LedgerSet {
	key := rec.Key
	route := key.Route()
	base := LedgerFileBase(key)

	records := append([]types.ShipmentRecord(nil), rec.Records...)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	sheet := LedgerSheet{
		Consignor:     key.Consignor,
		RouteHeading:  route.Heading(),
		Period:        Heading(key.PeriodLabel),
		TotalTrips:    rec.Trips,
		TotalWeight:   Int(rec.Totals.Weight),
		TotalPackages: Int(rec.Totals.Packages),
		Subtotal:      Money(rec.Totals.Amount, LedgerPlaces),
	}

	workbook := LedgerWorkbook{
		FileName: base + ".xlsx",
		Summary: WorkbookSummary{
			WeekRange:       key.PeriodLabel,
			Consignor:       key.Consignor,
			Route:           route.String(),
			TotalTrips:      rec.Trips,
			TotalWeight:     rec.Totals.Weight.InexactFloat64(),
			TotalPackages:   rec.Totals.Packages.InexactFloat64(),
			TotalAmount:     rec.Totals.Amount.InexactFloat64(),
			TotalHire:       rec.Hire.InexactFloat64(),
			NetAmount:       rec.NetAmount.InexactFloat64(),
			PreviousBalance: rec.PreviousBalance.InexactFloat64(),
			FinalBalance:    rec.FinalBalance.InexactFloat64(),
		},
	}

	for _, r := range records {
		sheet.Lines = append(sheet.Lines, LedgerLine{
			Date:         r.DisplayDate(),
			Consignee:    r.Consignee,
			Weight:       Int(r.Weight),
			FreightPerKg: Fixed(FreightPerKg(r.Amount, r.Weight), LedgerPlaces),
			Packages:     Int(r.Packages),
			Amount:       Money(r.Amount, LedgerPlaces),
		})
		workbook.Shipments = append(workbook.Shipments, WorkbookShipment{
			Date:      r.DisplayDate(),
			Consignee: r.Consignee,
			Weight:    r.Weight.InexactFloat64(),
			Packages:  r.Packages.InexactFloat64(),
			Amount:    r.Amount.InexactFloat64(),
		})
	}

	bill := Bill{
		LedgerSheet: sheet,
		FileName:    base + "__BILL.pdf",
		OldBalance:  Money(rec.PreviousBalance, LedgerPlaces),
		FinalLabel:  "FINAL TOTAL",
		FinalTotal:  Money(rec.Totals.Amount.Add(rec.PreviousBalance), LedgerPlaces),
	}
	if variant == VariantCorrection {
		bill.Adjustments = billAdjustments(rec)
		bill.FinalLabel = "FINAL BALANCE (CARRY FORWARD)"
		bill.FinalTotal = Money(rec.FinalBalance, LedgerPlaces)
	}

	return LedgerSet{
		BundleDir: LedgerBundleDir(key),
		Bill:      bill,
		Ledger: Ledger{
			LedgerSheet: sheet,
			FileName:    base + "__LEDGER.pdf",
		},
		Workbook: workbook,
	}
}

// billAdjustments lists the non-zero terms between subtotal and final total.
func billAdjustments(rec aggregate.Record[grouping.LedgerKey]) []Line {
	var lines []Line
	add := func(label string, d decimal.Decimal) {
		if !d.IsZero() {
			lines = append(lines, Line{Label: label, Value: Money(d, LedgerPlaces)})
		}
	}
	add("LESS: HIRE", rec.Hire)
	add("LESS: LOADING HAMALI", rec.Loading)
	add("LESS: UNLOADING HAMALI", rec.Unloading)
	add("LESS: MANUAL DEDUCTION", rec.ManualDeduction)
	add("ADD: MANUAL ADDITION", rec.ManualAddition)
	return lines
}
