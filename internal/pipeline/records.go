// =============================================================================
// Transport Challan & Ledger - Record Conversion
// =============================================================================
//
// This module turns raw table rows into shipment records. Every cell goes
// through the normalizer; nothing from the input reaches a document without
// being cleaned.
//
// ABSORBED CELLS:
//   | Cell               | Becomes      | Recorded as            |
//   |--------------------|--------------|------------------------|
//   | unreadable DATE    | unknown date | warning, rule "date"   |
//   | non-numeric amount | 0            | warning, rule "number" |
//   | negative amount    | 0            | warning, rule "non_negative" |
//   | blank cell         | "" / 0 / NA  | nothing                |
//
// A row is skipped only when its record cannot be built at all, which the
// normalizer makes unreachable in practice. Such rows are recorded as
// errors.
//
// =============================================================================

package pipeline

import (
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transport-challan-ledger/internal/normalize"
	"github.com/ginjaninja78/transport-challan-ledger/internal/types"
	"github.com/ginjaninja78/transport-challan-ledger/internal/validation"
)

// ConversionStats accounts for the rows of one table.
type ConversionStats struct {
	Rows         int
	Records      int
	Skipped      int
	UnknownDates int
	BadDates     int
	BadNumbers   int
}

// Conversion is the outcome of ToRecords.
type Conversion struct {
	Records []types.ShipmentRecord
	Issues  validation.Result
	Stats   ConversionStats
}

// ToRecords normalizes every row of table. Optional columns that are
// absent from the table default the way blank cells do.
func ToRecords(table *types.Table, log *slog.Logger) Conversion {
	if log == nil {
		log = slog.Default()
	}

	conv := Conversion{Stats: ConversionStats{Rows: len(table.Rows)}}
	for _, row := range table.Rows {
		rec, err := types.NewShipmentRecord(convertRow(row, &conv.Issues, log))
		if err != nil {
			conv.Stats.Skipped++
			conv.Issues.Add(&validation.ValidationError{
				Severity:  validation.SeverityError,
				Rule:      validation.RuleRecord,
				Message:   err.Error(),
				Sheet:     row.Sheet,
				RowNumber: row.Number,
			})
			log.Warn("row skipped", "sheet", row.Sheet, "row", row.Number, "error", err)
			continue
		}
		if !rec.HasDate {
			conv.Stats.UnknownDates++
		}
		conv.Records = append(conv.Records, rec)
	}

	conv.Stats.Records = len(conv.Records)
	conv.Stats.BadDates = conv.Issues.BadDates
	conv.Stats.BadNumbers = conv.Issues.BadNumbers
	return conv
}

// convertRow builds the unvalidated record for one row.
func convertRow(row types.Row, issues *validation.Result, log *slog.Logger) types.ShipmentRecord {
	warn := func(field, value, rule, message string) {
		issues.Add(&validation.ValidationError{
			Severity:  validation.SeverityWarning,
			Field:     field,
			Value:     value,
			Rule:      rule,
			Message:   message,
			Sheet:     row.Sheet,
			RowNumber: row.Number,
		})
		log.Debug("cell absorbed", "sheet", row.Sheet, "row", row.Number, "field", field, "value", value, "rule", rule)
	}

	number := func(field string) decimal.Decimal {
		raw := row.Get(field)
		if strings.TrimSpace(raw) == "" {
			return decimal.Zero
		}
		if !normalize.IsNumber(raw) {
			warn(field, raw, validation.RuleNumber, "not a number, read as 0")
			return decimal.Zero
		}
		v := normalize.CleanNumber(raw)
		if v.IsNegative() {
			warn(field, raw, validation.RuleNegative, "negative value, read as 0")
			return decimal.Zero
		}
		return v
	}

	rec := types.ShipmentRecord{
		Row:          row.Number,
		Sheet:        row.Sheet,
		SerialNo:     strings.TrimSpace(row.Get(validation.ColSerialNo)),
		FromCity:     normalize.CleanCity(row.Get(validation.ColFrom)),
		ToCity:       normalize.CleanCity(row.Get(validation.ColTo)),
		TruckNo:      normalize.CleanFreeText(row.Get(validation.ColTruckNo)),
		DriverName:   normalize.CleanPersonName(row.Get(validation.ColDriverName)),
		DriverMobile: strings.TrimSpace(row.Get(validation.ColDriverMobile)),
		Consignor:    normalize.CleanFreeText(row.Get(validation.ColConsignor)),
		Consignee:    normalize.CleanFreeText(row.Get(validation.ColConsignee)),
		Weight:       number(validation.ColWeight),
		Packages:     number(validation.ColPackages),
		Freight:      number(validation.ColFreight),
		Amount:       number(validation.ColAmount),
		Hire:         number(validation.ColHire),
	}

	if raw := row.Get(validation.ColDate); strings.TrimSpace(raw) != "" {
		if d, ok := normalize.ParseDate(raw); ok {
			rec.Date, rec.HasDate = d, true
		} else {
			warn(validation.ColDate, raw, validation.RuleDate, "unreadable date, treated as unknown")
		}
	}

	if rec.TruckNo == "" {
		rec.TruckNo = normalize.NotAvailable
	}
	if rec.DriverMobile == "" {
		rec.DriverMobile = normalize.NotAvailable
	}
	return rec
}
