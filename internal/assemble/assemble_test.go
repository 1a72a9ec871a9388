package assemble

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/transport-challan-ledger/internal/aggregate"
	"github.com/ginjaninja78/transport-challan-ledger/internal/grouping"
	"github.com/ginjaninja78/transport-challan-ledger/internal/period"
	"github.com/ginjaninja78/transport-challan-ledger/internal/types"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func shipment(serial string, day int, amount, hire, wt int64) types.ShipmentRecord {
	return types.ShipmentRecord{
		SerialNo:   serial,
		Date:       time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		HasDate:    true,
		FromCity:   "DELHI",
		ToCity:     "MUMBAI",
		Route:      types.Route{From: "DELHI", To: "MUMBAI"},
		DriverName: "RAM",
		Consignor:  "ABC",
		Consignee:  "XYZ",
		Amount:     d(amount),
		Hire:       d(hire),
		Weight:     d(wt),
		Packages:   d(1),
		Freight:    d(100),
	}
}

func challanRecords(t *testing.T, records []types.ShipmentRecord) []aggregate.Record[grouping.ChallanKey] {
	t.Helper()
	res := grouping.Partition(records, grouping.ChallanPolicy())
	out := make([]aggregate.Record[grouping.ChallanKey], 0, len(res.Groups))
	for _, g := range res.Groups {
		out = append(out, aggregate.Compute(g, aggregate.Adjustments{Charges: aggregate.DefaultHamali}))
	}
	return out
}

// =============================================================================
// FORMATTING
// =============================================================================

func TestFormatting(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"int truncates", Int(decimal.RequireFromString("99.9")), "99"},
		{"int zero", Int(decimal.Zero), "0"},
		{"money one place", Money(decimal.RequireFromString("4600.04"), ChallanPlaces), "4600"},
		{"money rounds half up", Money(decimal.RequireFromString("12.25"), ChallanPlaces), "12.3"},
		{"money two places", Money(decimal.RequireFromString("10.456"), LedgerPlaces), "10.46"},
		{"money zero", Money(decimal.Zero, LedgerPlaces), "0"},
		{"money negative", Money(d(-400), ChallanPlaces), "-400"},
		{"fixed", Fixed(d(100), LedgerPlaces), "100.00"},
		{"heading", Heading("january"), "JANUARY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestFreightPerKgZeroWeight(t *testing.T) {
	assert.True(t, FreightPerKg(d(500), decimal.Zero).IsZero())
	assert.Equal(t, "12.50", Fixed(FreightPerKg(d(500), d(40)), LedgerPlaces))
}

// =============================================================================
// CHALLANS
// =============================================================================

func TestNewChallan(t *testing.T) {
	recs := challanRecords(t, []types.ShipmentRecord{
		shipment("1", 2, 6000, 2000, 60),
		shipment("1", 2, 4000, 2000, 40),
	})
	require.Len(t, recs, 1)

	c := NewChallan(recs[0])

	assert.Equal(t, "20240102__1__RAM__DELHI_to_MUMBAI.pdf", c.FileName)
	assert.Equal(t, "January_2024/DELHI_TO_MUMBAI", c.BundleDir)
	assert.Equal(t, "JANUARY", c.Month)
	assert.Equal(t, "02/01/2024", c.Date)
	assert.Equal(t, "NA", c.TruckNo)
	assert.Equal(t, "NA", c.DriverMobile)
	assert.Len(t, c.Lines, 2)
	assert.Equal(t, "100", c.TotalWeight)
	assert.Equal(t, "10000", c.TotalAmount)
	assert.Equal(t, "2000", c.Hire)
	assert.Equal(t, "1700", c.LoadingHamali)
	assert.Equal(t, "4600", c.Balance)
	assert.Equal(t, "challan", c.Template())
}

func TestNewChallanUndated(t *testing.T) {
	r := shipment("7/A", 2, 1000, 0, 10)
	r.HasDate = false
	r.Date = time.Time{}

	c := NewChallan(challanRecords(t, []types.ShipmentRecord{r})[0])

	assert.Equal(t, "UNDATED__7-A__RAM__DELHI_to_MUMBAI.pdf", c.FileName)
	assert.Equal(t, grouping.UnknownMonth+"/DELHI_TO_MUMBAI", c.BundleDir)
	assert.Empty(t, c.Date)
}

func TestRouteSummariesPaginate(t *testing.T) {
	var records []types.ShipmentRecord
	for i := 31; i >= 1; i-- {
		records = append(records, shipment(fmt.Sprint(i), i, 10000, 2000, 10))
	}
	summaries := RouteSummaries(challanRecords(t, records), 30)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, "SUMMARY__DELHI_TO_MUMBAI__January_2024.pdf", s.FileName)
	assert.Equal(t, "JANUARY 2024", s.Month)
	require.Len(t, s.Pages, 2)
	assert.Len(t, s.Pages[0].Rows, 30)
	assert.Len(t, s.Pages[1].Rows, 1)
	assert.Nil(t, s.Pages[0].Total)
	require.NotNil(t, s.Pages[1].Total)

	// Sorted by date even though the input was reversed.
	assert.Equal(t, "01/01/2024", s.Pages[0].Rows[0].Date)
	assert.Equal(t, "31/01/2024", s.Pages[1].Rows[0].Date)

	total := s.Pages[1].Total
	assert.Equal(t, "TOTAL", total.Date)
	assert.Equal(t, "31", total.Qty)
	assert.Equal(t, "3400", s.Pages[0].Rows[0].Hamali)
	assert.Equal(t, fmt.Sprint(31*4600), total.Balance)
}

func TestRouteSummariesEmptyRouteStillHasTotalPage(t *testing.T) {
	pages := paginate(nil, 30, SummaryRow{Date: "TOTAL"})
	require.Len(t, pages, 1)
	assert.NotNil(t, pages[0].Total)
}

func TestRouteSummariesSplitByMonthAndRoute(t *testing.T) {
	feb := shipment("9", 1, 1000, 0, 1)
	feb.Date = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	back := shipment("10", 3, 1000, 0, 1)
	back.FromCity, back.ToCity = "MUMBAI", "DELHI"
	back.Route = back.Route.Reverse()

	summaries := RouteSummaries(challanRecords(t, []types.ShipmentRecord{
		shipment("1", 2, 1000, 0, 1), feb, back,
	}), 0)
	assert.Len(t, summaries, 3)
}

// =============================================================================
// LEDGERS
// =============================================================================

func TestNewLedgerSetBillAndLedger(t *testing.T) {
	res := grouping.Partition([]types.ShipmentRecord{
		shipment("2", 3, 2000, 0, 20),
		shipment("1", 2, 3000, 0, 30),
	}, grouping.LedgerPolicy(period.Weekly{}, grouping.AllRoutes))
	require.Len(t, res.Groups, 1)

	rec := aggregate.Compute(res.Groups[0], aggregate.Adjustments{PreviousBalance: d(1000)})
	set := NewLedgerSet(rec, VariantWeekly)

	base := "ABC__01_Jan_to_07_Jan_2024__DELHI_to_MUMBAI"
	assert.Equal(t, base+"__BILL.pdf", set.Bill.FileName)
	assert.Equal(t, base+"__LEDGER.pdf", set.Ledger.FileName)
	assert.Equal(t, base+".xlsx", set.Workbook.FileName)
	assert.Equal(t, "ABC/01_Jan_to_07_Jan_2024", set.BundleDir)

	assert.Equal(t, "5000", set.Bill.Subtotal)
	assert.Equal(t, "1000", set.Bill.OldBalance)
	assert.Equal(t, "FINAL TOTAL", set.Bill.FinalLabel)
	assert.Equal(t, "6000", set.Bill.FinalTotal)
	assert.Empty(t, set.Bill.Adjustments)

	assert.Equal(t, "5000", set.Ledger.Subtotal)
	assert.Equal(t, set.Bill.Lines, set.Ledger.Lines)

	require.Len(t, set.Bill.Lines, 2)
	assert.Equal(t, "02/01/2024", set.Bill.Lines[0].Date)
	assert.Equal(t, "100.00", set.Bill.Lines[0].FreightPerKg)
	assert.Equal(t, "DELHI TO MUMBAI", set.Bill.RouteHeading)
	assert.Equal(t, "01 JAN - 07 JAN 2024", set.Bill.Period)

	assert.Equal(t, "DELHI → MUMBAI", set.Workbook.Summary.Route)
	assert.InDelta(t, 6000.0, set.Workbook.Summary.FinalBalance, 0.001)
	assert.InDelta(t, 5000.0, set.Workbook.Summary.NetAmount, 0.001)
	assert.Len(t, set.Workbook.Shipments, 2)
}

func TestBillAdjustmentLines(t *testing.T) {
	res := grouping.Partition([]types.ShipmentRecord{
		shipment("1", 2, 20000, 0, 100),
	}, grouping.LedgerPolicy(period.Buckets{}, grouping.AllRoutes))

	rec := aggregate.Compute(res.Groups[0], aggregate.Adjustments{
		Charges:         aggregate.Charges{Loading: d(1700), Unloading: d(1600)},
		PreviousBalance: d(2000),
		ManualDeduction: d(500),
		ManualAddition:  d(250),
	})
	bill := NewLedgerSet(rec, VariantCorrection).Bill

	labels := make([]string, 0, len(bill.Adjustments))
	for _, l := range bill.Adjustments {
		labels = append(labels, l.Label)
	}
	assert.Equal(t, []string{
		"LESS: LOADING HAMALI",
		"LESS: UNLOADING HAMALI",
		"LESS: MANUAL DEDUCTION",
		"ADD: MANUAL ADDITION",
	}, labels)
	assert.Equal(t, "18450", bill.FinalTotal)
	assert.Equal(t, "FINAL BALANCE (CARRY FORWARD)", bill.FinalLabel)
}

func TestWeeklyBillLeavesHireToWorkbook(t *testing.T) {
	res := grouping.Partition([]types.ShipmentRecord{
		shipment("1", 2, 5000, 2000, 50),
	}, grouping.LedgerPolicy(period.Weekly{}, grouping.AllRoutes))
	require.Len(t, res.Groups, 1)

	rec := aggregate.Compute(res.Groups[0], aggregate.Adjustments{PreviousBalance: d(1000)})
	set := NewLedgerSet(rec, VariantWeekly)

	assert.Equal(t, "5000", set.Bill.Subtotal)
	assert.Equal(t, "1000", set.Bill.OldBalance)
	assert.Equal(t, "6000", set.Bill.FinalTotal)
	assert.Empty(t, set.Bill.Adjustments)

	assert.InDelta(t, 2000.0, set.Workbook.Summary.TotalHire, 0.001)
	assert.InDelta(t, 3000.0, set.Workbook.Summary.NetAmount, 0.001)
	assert.InDelta(t, 4000.0, set.Workbook.Summary.FinalBalance, 0.001)
}

func TestVariantFor(t *testing.T) {
	v, ok := VariantFor(" Correction ")
	assert.True(t, ok)
	assert.Equal(t, VariantCorrection, v)

	v, ok = VariantFor("weekly")
	assert.True(t, ok)
	assert.Equal(t, VariantWeekly, v)

	_, ok = VariantFor("monthly")
	assert.False(t, ok)
}

// =============================================================================
// PARTY SUMMARY
// =============================================================================

func TestNewPartySummary(t *testing.T) {
	a := shipment("1", 2, 1000, 0, 10)
	b := shipment("2", 3, 500, 0, 5)
	b.Freight = d(150)
	c := shipment("3", 3, 700, 0, 7)
	c.Consignor = "DEF"

	res := grouping.Partition([]types.ShipmentRecord{a, b, c}, grouping.PartyPolicy())
	grouping.SortParties(res.Groups)
	var records []aggregate.Record[string]
	for _, g := range res.Groups {
		records = append(records, aggregate.Compute(g, aggregate.Adjustments{}))
	}

	s := NewPartySummary(records)
	require.Len(t, s.Rows, 2)
	assert.Equal(t, "ABC", s.Rows[0].Consignor)
	assert.Equal(t, "15", s.Rows[0].SumWeight)
	assert.Equal(t, "150", s.Rows[0].Freight)
	assert.Equal(t, "1500", s.Rows[0].SumAmount)
	assert.Equal(t, GrandTotalLabel, s.GrandTotal.Consignor)
	assert.Equal(t, "22", s.GrandTotal.SumWeight)
	assert.Equal(t, "2200", s.GrandTotal.SumAmount)
	assert.Empty(t, s.GrandTotal.Freight)
	assert.Equal(t, "All_Party_Summary.pdf", s.FileName)
}
