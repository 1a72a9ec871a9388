package grouping

import (
	"sort"
	"strings"

	"github.com/ginjaninja78/transport-challan-ledger/internal/period"
	"github.com/ginjaninja78/transport-challan-ledger/internal/types"
)

// UnknownMonth is the bundle folder for challans whose date could not be read.
const UnknownMonth = "Unknown_Month"

// =============================================================================
// CHALLAN
// =============================================================================

// ChallanKey identifies one consignment note.
type ChallanKey struct {
	SerialNo string
	DateKey  string // ISO date, "" when unknown
	Driver   string
	From     string
	To       string
}

// Route returns the key's route.
func (k ChallanKey) Route() types.Route {
	return types.Route{From: k.From, To: k.To}
}

// ChallanPolicy keeps undated records and takes the first hire of each group.
func ChallanPolicy() Policy[ChallanKey] {
	return Policy[ChallanKey]{
		Name: "challan",
		Key: func(r types.ShipmentRecord) ChallanKey {
			return ChallanKey{
				SerialNo: r.SerialNo,
				DateKey:  r.DateKey(),
				Driver:   r.DriverName,
				From:     r.FromCity,
				To:       r.ToCity,
			}
		},
		Hire:     FirstHire,
		NullDate: KeepUnknownDates,
	}
}

// MonthKey returns "January_2024" for the group's date, or UnknownMonth.
func MonthKey(g Group[ChallanKey]) string {
	if len(g.Records) == 0 || !g.Records[0].HasDate {
		return UnknownMonth
	}
	return period.MonthKey(g.Records[0].Date)
}

// =============================================================================
// LEDGER
// =============================================================================

// LedgerKey identifies one consignor's bill for one period and route.
type LedgerKey struct {
	Consignor   string
	PeriodLabel string
	PeriodStart string // ISO date, for ordering
	PeriodEnd   string
	From        string
	To          string
}

// Route returns the key's route.
func (k LedgerKey) Route() types.Route {
	return types.Route{From: k.From, To: k.To}
}

// RouteFilter names accepted in configuration.
const (
	RoutesAll         = "all"
	RoutesDelhiMumbai = "delhi_mumbai"
)

// RouteFilter decides which routes a ledger run bills.
type RouteFilter func(types.Route) bool

// AllRoutes accepts every complete route.
func AllRoutes(r types.Route) bool {
	return r.Complete()
}

// DelhiMumbaiOnly accepts DELHI→MUMBAI and MUMBAI→DELHI.
func DelhiMumbaiOnly(r types.Route) bool {
	return (r.From == "DELHI" && r.To == "MUMBAI") || (r.From == "MUMBAI" && r.To == "DELHI")
}

// RouteFilterFor returns the filter registered under name.
func RouteFilterFor(name string) (RouteFilter, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", RoutesAll:
		return AllRoutes, true
	case RoutesDelhiMumbai:
		return DelhiMumbaiOnly, true
	default:
		return nil, false
	}
}

// LedgerPolicy drops undated and routeless records, applies the route
// filter, and sums hire across each group.
func LedgerPolicy(scheme period.Scheme, filter RouteFilter) Policy[LedgerKey] {
	if filter == nil {
		filter = AllRoutes
	}
	return Policy[LedgerKey]{
		Name: "ledger",
		Key: func(r types.ShipmentRecord) LedgerKey {
			p := scheme.Of(r.Date)
			return LedgerKey{
				Consignor:   r.Consignor,
				PeriodLabel: p.Label,
				PeriodStart: p.StartKey(),
				PeriodEnd:   p.End.Format("2006-01-02"),
				From:        r.FromCity,
				To:          r.ToCity,
			}
		},
		Hire:     SumHire,
		NullDate: DropUnknownDates,
		Include: func(r types.ShipmentRecord) bool {
			return r.Route.Complete() && filter(r.Route)
		},
	}
}

// =============================================================================
// PARTY
// =============================================================================

// PartyPolicy groups by consignor, dropping blank consignors.
func PartyPolicy() Policy[string] {
	return Policy[string]{
		Name:     "party",
		Key:      func(r types.ShipmentRecord) string { return r.Consignor },
		Hire:     SumHire,
		NullDate: KeepUnknownDates,
		Include:  func(r types.ShipmentRecord) bool { return r.Consignor != "" },
	}
}

// =============================================================================
// ORDERING
// =============================================================================

// SortChallans orders challan groups by date, route and serial. Undated
// groups sort last.
func SortChallans(groups []Group[ChallanKey]) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Key, groups[j].Key
		if a.DateKey != b.DateKey {
			if a.DateKey == "" || b.DateKey == "" {
				return b.DateKey == ""
			}
			return a.DateKey < b.DateKey
		}
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.SerialNo < b.SerialNo
	})
}

// SortLedgers orders ledger groups by consignor, period start and route.
func SortLedgers(groups []Group[LedgerKey]) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Key, groups[j].Key
		if a.Consignor != b.Consignor {
			return a.Consignor < b.Consignor
		}
		if a.PeriodStart != b.PeriodStart {
			return a.PeriodStart < b.PeriodStart
		}
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})
}

// SortParties orders party groups by consignor.
func SortParties(groups []Group[string]) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Key < groups[j].Key
	})
}
