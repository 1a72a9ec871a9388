// =============================================================================
// Transport Challan & Ledger - Shared Types
// =============================================================================
//
// This package contains the value types passed between pipeline stages. They
// live here to avoid import cycles between:
//   - xlsxparser / csvparser (produce Table)
//   - pipeline               (Table -> ShipmentRecord)
//   - grouping / aggregate   (ShipmentRecord -> groups -> totals)
//   - assemble               (totals -> document fields)
//
// Records are built through NewShipmentRecord, which rejects values that are
// not in canonical form. Once built they are passed by value and never
// mutated.
//
// =============================================================================

package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transport-challan-ledger/internal/normalize"
)

// ErrInvalidRecord is returned when a record fails its construction checks.
var ErrInvalidRecord = errors.New("types: invalid shipment record")

// =============================================================================
// TABLE (raw input)
// =============================================================================

// Table is the raw, untyped content of an input workbook or CSV export.
// Rows from every sheet are concatenated in sheet order.
type Table struct {
	// Source is the path the table was read from.
	Source string

	// Headers is the union of column names across all sheets, in first-seen order.
	Headers []string

	// Rows holds one entry per non-empty data row.
	Rows []Row
}

// Row is one data row keyed by trimmed header name.
type Row struct {
	// Sheet is the worksheet the row came from (empty for CSV input).
	Sheet string

	// Number is the 1-based row number within its sheet, for diagnostics.
	Number int

	// Cells maps header name to the raw cell text.
	Cells map[string]string
}

// Get returns the cell for a column, or "" when the column is absent.
func (r Row) Get(column string) string {
	return r.Cells[column]
}

// Has reports whether the row carries the column at all.
func (r Row) Has(column string) bool {
	_, ok := r.Cells[column]
	return ok
}

// =============================================================================
// ROUTE
// =============================================================================

// Route is an ordered (from, to) city pair in canonical form.
type Route struct {
	From string
	To   string
}

// Key returns the configuration key "{FROM}_TO_{TO}".
func (r Route) Key() string {
	return r.From + "_TO_" + r.To
}

// FileSegment returns the file-name form "{FROM}_to_{TO}".
func (r Route) FileSegment() string {
	return r.From + "_to_" + r.To
}

// Heading returns the printed form "FROM TO TO".
func (r Route) Heading() string {
	return r.From + " TO " + r.To
}

// String returns the display form "FROM → TO".
func (r Route) String() string {
	return r.From + " → " + r.To
}

// Reverse returns the return leg of the route.
func (r Route) Reverse() Route {
	return Route{From: r.To, To: r.From}
}

// Complete reports whether both ends of the route are known.
func (r Route) Complete() bool {
	return r.From != "" && r.To != ""
}

// =============================================================================
// SHIPMENT RECORD
// =============================================================================

// ShipmentRecord is one normalized row of shipment input.
type ShipmentRecord struct {
	// Row and Sheet locate the record in its source for diagnostics.
	Row   int
	Sheet string

	// SerialNo is the challan serial. Unique within a challan group only.
	SerialNo string

	// Date is valid only when HasDate is true.
	Date    time.Time
	HasDate bool

	Route Route `validate:"-"`

	FromCity string `validate:"canonical_city"`
	ToCity   string `validate:"canonical_city"`

	TruckNo      string `validate:"canonical_text"`
	DriverName   string `validate:"required,canonical_name"`
	DriverMobile string

	Consignor string `validate:"canonical_text"`
	Consignee string `validate:"canonical_text"`

	Weight   decimal.Decimal `validate:"gte=0"`
	Packages decimal.Decimal `validate:"gte=0"`
	Freight  decimal.Decimal `validate:"gte=0"`
	Amount   decimal.Decimal `validate:"gte=0"`
	Hire     decimal.Decimal `validate:"gte=0"`
}

// NewShipmentRecord checks that every field is canonical and every numeric
// is non-negative, and fills the derived Route.
func NewShipmentRecord(r ShipmentRecord) (ShipmentRecord, error) {
	r.Route = Route{From: r.FromCity, To: r.ToCity}
	if r.HasDate {
		r.Date = time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		r.Date = time.Time{}
	}

	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
			}
			return ShipmentRecord{}, fmt.Errorf("%w: row %d: %s", ErrInvalidRecord, r.Row, strings.Join(fields, ", "))
		}
		return ShipmentRecord{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return r, nil
}

// DateKey returns the ISO date, or "" for an unknown date.
func (r ShipmentRecord) DateKey() string {
	if !r.HasDate {
		return ""
	}
	return r.Date.Format("2006-01-02")
}

// DisplayDate returns the date as DD/MM/YYYY, or "" when unknown.
func (r ShipmentRecord) DisplayDate() string {
	if !r.HasDate {
		return ""
	}
	return r.Date.Format("02/01/2006")
}

// =============================================================================
// PERIOD RANGE
// =============================================================================

// PeriodRange is a billing period with its printed label.
type PeriodRange struct {
	// Index is the bucket number (1-4) for the fixed-bucket scheme, 0 for weeks.
	Index int

	Start time.Time
	End   time.Time
	Label string
}

// StartKey returns the ISO start date for stable ordering.
func (p PeriodRange) StartKey() string {
	return p.Start.Format("2006-01-02")
}

// FileSegment returns the label as used in file names: " - " becomes "_to_"
// and remaining spaces become underscores.
func (p PeriodRange) FileSegment() string {
	return strings.ReplaceAll(strings.ReplaceAll(p.Label, " - ", "_to_"), " ", "_")
}

// Contains reports whether d falls inside the period, inclusive.
func (p PeriodRange) Contains(d time.Time) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// =============================================================================
// VALIDATION
// =============================================================================

var validate = mustValidator()

// canonicalTags maps each canonical-form tag to the cleaner whose output it
// accepts.
var canonicalTags = map[string]func(string) string{
	"canonical_city": normalize.CleanCity,
	"canonical_name": normalize.CleanPersonName,
	"canonical_text": normalize.CleanFreeText,
}

func mustValidator() *validator.Validate {
	v, err := newValidator()
	if err != nil {
		panic(err)
	}
	return v
}

func newValidator() (*validator.Validate, error) {
	v := validator.New()

	// Decimals are compared as floats by the numeric tags.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	if err := registerCanonical(v, canonicalTags); err != nil {
		return nil, err
	}
	return v, nil
}

// registerCanonical registers one tag per cleaner; a value passes when
// cleaning leaves it unchanged.
func registerCanonical(v *validator.Validate, tags map[string]func(string) string) error {
	for tag, clean := range tags {
		clean := clean
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return clean(s) == s
		})
		if err != nil {
			return fmt.Errorf("types: register %q: %w", tag, err)
		}
	}
	return nil
}

// Validator returns the shared validator with the canonical-form tags
// registered, for packages that validate their own inputs.
func Validator() *validator.Validate {
	return validate
}
