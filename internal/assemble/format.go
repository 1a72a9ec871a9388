// =============================================================================
// Transport Challan & Ledger - Document Assembler
// =============================================================================
//
// This package maps aggregate records onto the flat field sets the renderers
// print. It performs no arithmetic beyond unit formatting and the running
// totals of paginated reports.
//
// DISPLAY POLICY:
//   - Weights and package counts print as integers, truncated.
//   - Money prints rounded to 1 place on challans and route summaries and to
//     2 places on bills, ledgers and the party summary. Trailing zeros are
//     not printed.
//   - A zero value prints as "0"; nothing is left blank.
//
// =============================================================================

package assemble

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Decimal places used for money on each document family.
const (
	ChallanPlaces = 1
	LedgerPlaces  = 2
)

var upper = cases.Upper(language.English)

// Int formats a weight or package count, truncating any fraction.
func Int(d decimal.Decimal) string {
	t := d.Truncate(0)
	if t.IsZero() {
		return "0"
	}
	return t.String()
}

// Money formats an amount rounded to places.
func Money(d decimal.Decimal, places int32) string {
	r := d.Round(places)
	if r.IsZero() {
		return "0"
	}
	return r.String()
}

// Fixed formats with exactly places decimals, as rates are printed.
func Fixed(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}

// Heading uppercases text for document titles.
func Heading(s string) string {
	return upper.String(s)
}

// FreightPerKg returns amount / weight, or zero when weight is zero.
func FreightPerKg(amount, weight decimal.Decimal) decimal.Decimal {
	if weight.IsZero() {
		return decimal.Zero
	}
	return amount.Div(weight)
}

// orNA substitutes "NA" for blank optional values.
func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "NA"
	}
	return s
}

// Line is a labeled amount row such as "LESS: HIRE".
type Line struct {
	Label string
	Value string
}
