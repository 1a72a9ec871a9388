// =============================================================================
// Transport Challan & Ledger - Aggregator
// =============================================================================
//
// This module reduces a shipment group to its totals and derived balances.
//
// FORMULAS:
//   balance       = amount - hire - (loading + unloading) - other_expenses
//   net_amount    = amount - hire
//   final_balance = amount + previous_balance - loading - unloading - hire
//                   - manual_deduction + manual_addition
//
//   A weekly bill without hamali or corrections reduces final_balance to
//   net_amount + previous_balance.
//
// Sums are exact decimals. Rounding happens only when a document is assembled.
//
// =============================================================================

package aggregate

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transport-challan-ledger/internal/grouping"
	"github.com/ginjaninja78/transport-challan-ledger/internal/types"
)

// =============================================================================
// INPUTS
// =============================================================================

// Charges are the loading and unloading hamali for one route.
type Charges struct {
	Loading   decimal.Decimal
	Unloading decimal.Decimal
}

// Total returns loading plus unloading.
func (c Charges) Total() decimal.Decimal {
	return c.Loading.Add(c.Unloading)
}

// DefaultHamali is applied to routes missing from the route table.
var DefaultHamali = Charges{
	Loading:   decimal.NewFromInt(1700),
	Unloading: decimal.NewFromInt(1700),
}

// LedgerHamali returns the route constant hamali deducted on correction
// ledgers. It is kept apart from the challan table so challans and ledgers
// can carry different charges.
func LedgerHamali() RouteCharges {
	return RouteCharges{
		Default: DefaultHamali,
		Routes: map[string]Charges{
			"DELHI_TO_MUMBAI": {Loading: decimal.NewFromInt(1700), Unloading: decimal.NewFromInt(1600)},
			"MUMBAI_TO_DELHI": {Loading: decimal.NewFromInt(2200), Unloading: decimal.NewFromInt(2200)},
		},
	}
}

// RouteCharges is the route hamali table keyed "{FROM}_TO_{TO}".
type RouteCharges struct {
	Default Charges
	Routes  map[string]Charges
}

// NewRouteCharges builds a table with DefaultHamali as the fallback.
func NewRouteCharges(routes map[string]Charges) RouteCharges {
	if routes == nil {
		routes = make(map[string]Charges)
	}
	return RouteCharges{Default: DefaultHamali, Routes: routes}
}

// For returns the charges for a route, or the default when absent.
func (rc RouteCharges) For(route types.Route) Charges {
	if c, ok := rc.Routes[route.Key()]; ok {
		return c
	}
	return rc.Default
}

// Adjustments are the per-group inputs that are not derived from the rows.
type Adjustments struct {
	Charges

	OtherExpenses   decimal.Decimal
	PreviousBalance decimal.Decimal
	ManualDeduction decimal.Decimal
	ManualAddition  decimal.Decimal
}

// =============================================================================
// OUTPUT
// =============================================================================

// Totals are the plain sums over a group.
type Totals struct {
	Trips    int
	Weight   decimal.Decimal
	Packages decimal.Decimal
	Amount   decimal.Decimal

	// MaxFreight is the highest freight rate seen in the group.
	MaxFreight decimal.Decimal
}

// Record is the aggregate of one group. It is computed once and not mutated.
type Record[K comparable] struct {
	Key     K
	Records []types.ShipmentRecord

	Totals
	Hire decimal.Decimal
	Adjustments

	Balance      decimal.Decimal
	NetAmount    decimal.Decimal
	FinalBalance decimal.Decimal
}

// =============================================================================
// COMPUTATION
// =============================================================================

// Sum returns the plain totals of records.
func Sum(records []types.ShipmentRecord) Totals {
	t := Totals{
		Trips:      len(records),
		Weight:     decimal.Zero,
		Packages:   decimal.Zero,
		Amount:     decimal.Zero,
		MaxFreight: decimal.Zero,
	}
	for i, r := range records {
		t.Weight = t.Weight.Add(r.Weight)
		t.Packages = t.Packages.Add(r.Packages)
		t.Amount = t.Amount.Add(r.Amount)
		if i == 0 || r.Freight.GreaterThan(t.MaxFreight) {
			t.MaxFreight = r.Freight
		}
	}
	return t
}

// Compute aggregates a group with its adjustments.
func Compute[K comparable](g grouping.Group[K], adj Adjustments) Record[K] {
	totals := Sum(g.Records)
	hire := g.Hire()

	balance := totals.Amount.
		Sub(hire).
		Sub(adj.Charges.Total()).
		Sub(adj.OtherExpenses)

	final := totals.Amount.
		Add(adj.PreviousBalance).
		Sub(adj.Loading).
		Sub(adj.Unloading).
		Sub(hire).
		Sub(adj.ManualDeduction).
		Add(adj.ManualAddition)

	return Record[K]{
		Key:          g.Key,
		Records:      g.Records,
		Totals:       totals,
		Hire:         hire,
		Adjustments:  adj,
		Balance:      balance,
		NetAmount:    totals.Amount.Sub(hire),
		FinalBalance: final,
	}
}

// =============================================================================
// CORRECTIONS
// =============================================================================

// Correction is a manual deduction and addition applied to one ledger.
// A valid PreviousBalance replaces the consignor's carried balance for that
// ledger only.
type Correction struct {
	Deduction       decimal.Decimal
	Addition        decimal.Decimal
	PreviousBalance decimal.NullDecimal
}

// CorrectionKey returns "{consignor}_{period}_{FROM}_to_{TO}", the key manual
// corrections are stored under.
func CorrectionKey(consignor, periodLabel string, route types.Route) string {
	return consignor + "_" + periodLabel + "_" + route.FileSegment()
}

// TotalAmount sums the amount of every record in every group.
func TotalAmount[K comparable](records []Record[K]) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Totals.Amount)
	}
	return total
}
