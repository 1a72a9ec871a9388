// =============================================================================
// Transport Challan & Ledger - Input Validation
// =============================================================================
//
// This module checks shipment input before any document is produced. It
// validates at two levels:
//   1. Sheet-level: every required column must be present. A missing column
//      is fatal and aborts the run before anything is written.
//   2. Cell-level: unreadable dates and numbers are absorbed (unknown date,
//      zero amount) and recorded as warnings so the run summary can report
//      them.
//
// ERROR HANDLING:
//   - Sheet-level problems are returned as *ColumnError, which unwraps to
//     ErrMissingColumn.
//   - Cell-level problems are collected in a Result, never returned.
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumn is wrapped by every ColumnError.
var ErrMissingColumn = errors.New("validation: missing required column")

// =============================================================================
// COLUMN SETS
// =============================================================================

// Column headers of the shipment workbook, as printed in the header row.
const (
	ColSerialNo     = "S. NO."
	ColDate         = "DATE"
	ColFrom         = "FROM"
	ColTo           = "TO"
	ColTruckNo      = "TRUCK NO."
	ColDriverName   = "NAME OF THE DRIVER"
	ColDriverMobile = "DRIVER MOB. NO."
	ColConsignor    = "CONSIGNOR"
	ColConsignee    = "CONSIGNEE"
	ColWeight       = "WT. Kgs."
	ColPackages     = "NO. OF Pkgs"
	ColFreight      = "FREIGHT"
	ColAmount       = "AMOUNT"
	ColHire         = "Hire"
)

// ShipmentColumns are required for challans and ledgers.
var ShipmentColumns = []string{
	ColSerialNo, ColDate, ColFrom, ColTo, ColDriverName, ColConsignor,
	ColConsignee, ColWeight, ColPackages, ColFreight, ColAmount, ColHire,
}

// OptionalColumns default to "NA" when absent.
var OptionalColumns = []string{ColTruckNo, ColDriverMobile}

// PartySummaryColumns are required for the all-party summary.
var PartySummaryColumns = []string{ColConsignor, ColWeight, ColFreight, ColAmount}

// =============================================================================
// SHEET-LEVEL CHECKS
// =============================================================================

// ColumnError lists the required columns missing from one sheet or file.
type ColumnError struct {
	// Source is the sheet name, or the file path for CSV input.
	Source  string
	Missing []string
}

// Error implements the error interface.
func (e *ColumnError) Error() string {
	where := ""
	if e.Source != "" {
		where = fmt.Sprintf(" in %q", e.Source)
	}
	return fmt.Sprintf("missing required column(s)%s: %s", where, strings.Join(e.Missing, ", "))
}

// Unwrap returns ErrMissingColumn.
func (e *ColumnError) Unwrap() error {
	return ErrMissingColumn
}

// RequireColumns checks that headers contain every required column.
// Headers are compared after trimming surrounding whitespace.
//
// PARAMETERS:
//   - source: The sheet or file the headers came from, for the message.
//   - headers: The header row as read.
//   - required: The columns that must be present.
//
// RETURNS:
//   - nil when every column is present, otherwise a *ColumnError listing
//     the missing columns in the order they were required.
func RequireColumns(source string, headers, required []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.TrimSpace(h)] = true
	}

	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &ColumnError{Source: source, Missing: missing}
	}
	return nil
}

// =============================================================================
// CELL-LEVEL ISSUES
// =============================================================================

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rules recorded against absorbed cells.
const (
	RuleDate     = "date"
	RuleNumber   = "number"
	RuleNegative = "non_negative"
	RuleRecord   = "record"
)

// ValidationError describes one problem found in one cell or row.
type ValidationError struct {
	// Severity is SeverityWarning for absorbed cells and SeverityError for
	// rows that were skipped.
	Severity string

	// Field is the column header.
	Field string

	// Value is the raw cell text.
	Value string

	// Rule is the check that failed.
	Rule string

	// Message is a human-readable description.
	Message string

	// Sheet and RowNumber locate the cell in the source workbook.
	Sheet     string
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	loc := fmt.Sprintf("row %d", e.RowNumber)
	if e.Sheet != "" {
		loc = fmt.Sprintf("sheet %q %s", e.Sheet, loc)
	}
	return fmt.Sprintf("[%s] %s, field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity), loc, e.Field, e.Message, e.Value)
}

// Result collects the cell-level issues of one conversion.
type Result struct {
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// BadDates and BadNumbers count absorbed cells by kind.
	BadDates   int
	BadNumbers int
}

// Add records an issue and updates the counters.
func (r *Result) Add(e *ValidationError) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
	} else {
		r.WarningCount++
	}
	switch e.Rule {
	case RuleDate:
		r.BadDates++
	case RuleNumber, RuleNegative:
		r.BadNumbers++
	}
}

// IsClean reports whether nothing was recorded.
func (r *Result) IsClean() bool {
	return len(r.Errors) == 0
}

// GetErrorSummary returns one line per recorded issue.
func (r *Result) GetErrorSummary() string {
	if r.IsClean() {
		return "No validation issues."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Validation: %d error(s), %d warning(s)\n", r.ErrorCount, r.WarningCount)
	for _, e := range r.Errors {
		sb.WriteString("  ")
		sb.WriteString(e.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}
