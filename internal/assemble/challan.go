package assemble

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transport-challan-ledger/internal/aggregate"
	"github.com/ginjaninja78/transport-challan-ledger/internal/grouping"
	"github.com/ginjaninja78/transport-challan-ledger/internal/types"
)

// =============================================================================
// CHALLAN
// =============================================================================

// ChallanLine is one consignment printed on a challan.
type ChallanLine struct {
	Consignor string
	Consignee string
	Weight    string
	Packages  string
	Freight   string
	Amount    string
}

// Challan is the field set of one challan document.
type Challan struct {
	FileName  string
	BundleDir string
	MonthKey  string

	From         string
	To           string
	Month        string
	Date         string
	ChallanNo    string
	TruckNo      string
	Driver       string
	DriverMobile string

	Lines []ChallanLine

	TotalWeight   string
	TotalPackages string
	TotalAmount   string

	Hire            string
	LoadingHamali   string
	UnloadingHamali string
	OtherExpenses   string
	Balance         string
}

// Template names the renderer template for challans.
func (Challan) Template() string { return "challan" }

// NewChallan assembles a challan from its aggregate.
func NewChallan(rec aggregate.Record[grouping.ChallanKey]) Challan {
	key := rec.Key
	first := rec.Records[0]
	monthKey := grouping.UnknownMonth
	month := ""
	if first.HasDate {
		monthKey = grouping.MonthKey(grouping.Group[grouping.ChallanKey]{Records: rec.Records})
		month = Heading(first.Date.Format("January"))
	}

	c := Challan{
		FileName:  ChallanFileName(key),
		BundleDir: ChallanBundleDir(monthKey, key.Route()),
		MonthKey:  monthKey,

		From:         key.From,
		To:           key.To,
		Month:        month,
		Date:         first.DisplayDate(),
		ChallanNo:    key.SerialNo,
		TruckNo:      orNA(first.TruckNo),
		Driver:       key.Driver,
		DriverMobile: orNA(first.DriverMobile),

		TotalWeight:   Int(rec.Totals.Weight),
		TotalPackages: Int(rec.Totals.Packages),
		TotalAmount:   Money(rec.Totals.Amount, ChallanPlaces),

		Hire:            Int(rec.Hire),
		LoadingHamali:   Int(rec.Loading),
		UnloadingHamali: Int(rec.Unloading),
		OtherExpenses:   Int(rec.OtherExpenses),
		Balance:         Money(rec.Balance, ChallanPlaces),
	}

	for _, r := range rec.Records {
		c.Lines = append(c.Lines, ChallanLine{
			Consignor: r.Consignor,
			Consignee: r.Consignee,
			Weight:    Int(r.Weight),
			Packages:  Int(r.Packages),
			Freight:   Money(r.Freight, ChallanPlaces),
			Amount:    Money(r.Amount, ChallanPlaces),
		})
	}
	return c
}

// =============================================================================
// ROUTE SUMMARY
// =============================================================================

// SummaryRow is one challan line of a route summary.
type SummaryRow struct {
	Date      string
	TruckNo   string
	ChallanNo string
	Qty       string
	Weight    string
	ToPay     string
	Hire      string
	Hamali    string
	Balance   string
}

// SummaryPage is one printed page of a route summary.
type SummaryPage struct {
	Number int
	Rows   []SummaryRow

	// Total is set on the last page only.
	Total *SummaryRow
}

// RouteSummary is the monthly report for one route.
type RouteSummary struct {
	FileName  string
	BundleDir string

	From  string
	To    string
	Month string

	Pages []SummaryPage
}

// Template names the renderer template for route summaries.
func (RouteSummary) Template() string { return "summary" }

type summaryKey struct {
	month string
	route types.Route
}

type summaryEntry struct {
	date    time.Time
	hasDate bool
	serial  string
	row     SummaryRow

	qty, weight, topay, hire, hamali, balance decimal.Decimal
}

// RouteSummaries builds one summary per (month, route) from challan
// aggregates. Rows are ordered by date; undated rows come last.
func RouteSummaries(records []aggregate.Record[grouping.ChallanKey], rowsPerPage int) []RouteSummary {
	if rowsPerPage <= 0 {
		rowsPerPage = 30
	}

	entries := make(map[summaryKey][]summaryEntry)
	var order []summaryKey
	for _, rec := range records {
		first := rec.Records[0]
		month := grouping.UnknownMonth
		if first.HasDate {
			month = grouping.MonthKey(grouping.Group[grouping.ChallanKey]{Records: rec.Records})
		}
		k := summaryKey{month: month, route: rec.Key.Route()}
		if _, ok := entries[k]; !ok {
			order = append(order, k)
		}

		hamali := rec.Charges.Total()
		entries[k] = append(entries[k], summaryEntry{
			date:    first.Date,
			hasDate: first.HasDate,
			serial:  rec.Key.SerialNo,
			row: SummaryRow{
				Date:      first.DisplayDate(),
				TruckNo:   orNA(first.TruckNo),
				ChallanNo: rec.Key.SerialNo,
				Qty:       Int(rec.Totals.Packages),
				Weight:    Int(rec.Totals.Weight),
				ToPay:     Money(rec.Totals.Amount, ChallanPlaces),
				Hire:      Int(rec.Hire),
				Hamali:    Int(hamali),
				Balance:   Money(rec.Balance, ChallanPlaces),
			},
			qty:     rec.Totals.Packages,
			weight:  rec.Totals.Weight,
			topay:   rec.Totals.Amount,
			hire:    rec.Hire,
			hamali:  hamali,
			balance: rec.Balance,
		})
	}

	summaries := make([]RouteSummary, 0, len(order))
	for _, k := range order {
		list := entries[k]
		sort.SliceStable(list, func(i, j int) bool {
			a, b := list[i], list[j]
			if a.hasDate != b.hasDate {
				return a.hasDate
			}
			if !a.date.Equal(b.date) {
				return a.date.Before(b.date)
			}
			return a.serial < b.serial
		})

		var qty, weight, topay, hire, hamali, balance decimal.Decimal
		rows := make([]SummaryRow, 0, len(list))
		for _, e := range list {
			rows = append(rows, e.row)
			qty = qty.Add(e.qty)
			weight = weight.Add(e.weight)
			topay = topay.Add(e.topay)
			hire = hire.Add(e.hire)
			hamali = hamali.Add(e.hamali)
			balance = balance.Add(e.balance)
		}
		total := SummaryRow{
			Date:    "TOTAL",
			Qty:     Int(qty),
			Weight:  Int(weight),
			ToPay:   Money(topay, ChallanPlaces),
			Hire:    Int(hire),
			Hamali:  Int(hamali),
			Balance: Money(balance, ChallanPlaces),
		}

		summaries = append(summaries, RouteSummary{
			FileName:  SummaryFileName(k.month, k.route),
			BundleDir: ChallanBundleDir(k.month, k.route),
			From:      k.route.From,
			To:        k.route.To,
			Month:     Heading(strings.ReplaceAll(k.month, "_", " ")),
			Pages:     paginate(rows, rowsPerPage, total),
		})
	}
	return summaries
}

// paginate splits rows into pages and attaches the total to the last one.
func paginate(rows []SummaryRow, perPage int, total SummaryRow) []SummaryPage {
	var pages []SummaryPage
	for start := 0; start < len(rows) || len(pages) == 0; start += perPage {
		end := start + perPage
		if end > len(rows) {
			end = len(rows)
		}
		pages = append(pages, SummaryPage{Number: len(pages) + 1, Rows: rows[start:end]})
		if end == len(rows) {
			break
		}
	}
	pages[len(pages)-1].Total = &total
	return pages
}
