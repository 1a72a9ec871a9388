package assemble

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transport-challan-ledger/internal/aggregate"
)

// GrandTotalLabel heads the last row of the party summary.
const GrandTotalLabel = "Grand Total"

// PartyRow is one consignor line of the all-party summary. The numeric
// fields feed the workbook; the string fields feed the printed report.
type PartyRow struct {
	Consignor string
	SumWeight string
	Freight   string
	SumAmount string

	Weight     float64
	MaxFreight float64
	Amount     float64
}

// PartySummary lists every consignor's totals and a grand total.
type PartySummary struct {
	FileName     string
	WorkbookName string

	Rows       []PartyRow
	GrandTotal PartyRow
}

// Template names the renderer template for the party summary.
func (PartySummary) Template() string { return "party" }

// NewPartySummary assembles the report from per-consignor aggregates.
// The grand total sums weight and amount; freight has no total.
func NewPartySummary(records []aggregate.Record[string]) PartySummary {
	summary := PartySummary{
		FileName:     PartySummaryBase + ".pdf",
		WorkbookName: PartySummaryBase + ".xlsx",
	}

	weight, amount := decimal.Zero, decimal.Zero
	for _, rec := range records {
		summary.Rows = append(summary.Rows, PartyRow{
			Consignor:  rec.Key,
			SumWeight:  Int(rec.Totals.Weight),
			Freight:    Money(rec.MaxFreight, LedgerPlaces),
			SumAmount:  Money(rec.Totals.Amount, LedgerPlaces),
			Weight:     rec.Totals.Weight.InexactFloat64(),
			MaxFreight: rec.MaxFreight.InexactFloat64(),
			Amount:     rec.Totals.Amount.InexactFloat64(),
		})
		weight = weight.Add(rec.Totals.Weight)
		amount = amount.Add(rec.Totals.Amount)
	}

	summary.GrandTotal = PartyRow{
		Consignor: GrandTotalLabel,
		SumWeight: Int(weight),
		SumAmount: Money(amount, LedgerPlaces),
		Weight:    weight.InexactFloat64(),
		Amount:    amount.InexactFloat64(),
	}
	return summary
}
