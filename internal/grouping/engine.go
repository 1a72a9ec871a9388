// =============================================================================
// Transport Challan & Ledger - Shipment Grouper
// =============================================================================
//
// This module partitions normalized shipment records into groups that share
// a key. One engine serves every document family; the differences between
// challans, ledgers and the party summary are expressed as a Policy:
//
//   | Policy  | Key                                      | Hire  | Unknown date |
//   |---------|------------------------------------------|-------|--------------|
//   | Challan | serial, date, driver, from, to           | first | keep         |
//   | Ledger  | consignor, period, from, to              | sum   | drop         |
//   | Party   | consignor                                | sum   | keep         |
//
// GROUP ORDER:
//   Groups are returned in order of first occurrence, the way the input was
//   read. Callers that print documents sort them afterwards; grouping itself
//   is order independent.
//
// =============================================================================

package grouping

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transport-challan-ledger/internal/types"
)

// =============================================================================
// POLICY
// =============================================================================

// NullDatePolicy decides what happens to records whose date could not be read.
type NullDatePolicy int

const (
	// KeepUnknownDates groups undated records like any other.
	KeepUnknownDates NullDatePolicy = iota

	// DropUnknownDates excludes undated records before grouping.
	DropUnknownDates
)

// HireReducer reduces the hire values of a group to one amount.
type HireReducer func(records []types.ShipmentRecord) decimal.Decimal

// FirstHire takes the hire of the first record. Hire is charged per truck
// trip, so line items on the same challan repeat the same value.
func FirstHire(records []types.ShipmentRecord) decimal.Decimal {
	if len(records) == 0 {
		return decimal.Zero
	}
	return records[0].Hire
}

// SumHire adds the hire of every record.
func SumHire(records []types.ShipmentRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Hire)
	}
	return total
}

// Policy parameterizes the engine for one document family.
type Policy[K comparable] struct {
	// Name identifies the policy in logs.
	Name string

	// Key selects the grouping key of a record.
	Key func(types.ShipmentRecord) K

	// Hire reduces a group's hire values.
	Hire HireReducer

	// NullDate decides what happens to undated records.
	NullDate NullDatePolicy

	// Include, when set, drops records for which it returns false.
	Include func(types.ShipmentRecord) bool
}

// =============================================================================
// RESULT
// =============================================================================

// Group is a non-empty set of records sharing one key.
type Group[K comparable] struct {
	Key     K
	Records []types.ShipmentRecord

	hire HireReducer
}

// Hire returns the group's hire as reduced by its policy.
func (g Group[K]) Hire() decimal.Decimal {
	if g.hire == nil {
		return FirstHire(g.Records)
	}
	return g.hire(g.Records)
}

// Stats accounts for every input record.
// Input == Grouped + DroppedUnknownDate + DroppedExcluded always holds.
type Stats struct {
	Input              int
	Grouped            int
	DroppedUnknownDate int
	DroppedExcluded    int
}

// Result holds the groups in first-occurrence order.
type Result[K comparable] struct {
	Groups []Group[K]
	Stats  Stats
}

// Empty reports whether no group was formed.
func (r Result[K]) Empty() bool {
	return len(r.Groups) == 0
}

// =============================================================================
// ENGINE
// =============================================================================

// Partition groups records according to the policy.
func Partition[K comparable](records []types.ShipmentRecord, policy Policy[K]) Result[K] {
	result := Result[K]{Stats: Stats{Input: len(records)}}

	index := make(map[K]int)
	for _, rec := range records {
		if !rec.HasDate && policy.NullDate == DropUnknownDates {
			result.Stats.DroppedUnknownDate++
			continue
		}
		if policy.Include != nil && !policy.Include(rec) {
			result.Stats.DroppedExcluded++
			continue
		}

		key := policy.Key(rec)
		i, exists := index[key]
		if !exists {
			i = len(result.Groups)
			index[key] = i
			result.Groups = append(result.Groups, Group[K]{Key: key, hire: policy.Hire})
		}
		result.Groups[i].Records = append(result.Groups[i].Records, rec)
		result.Stats.Grouped++
	}

	return result
}
