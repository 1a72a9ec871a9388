// =============================================================================
// Transport Challan & Ledger - Field Normalizer
// =============================================================================
//
// This module coerces raw spreadsheet text into the canonical forms used by
// every later stage of the pipeline:
//   - Dates        : day-first parsing with a fixed format precedence
//   - City names   : uppercase tokens with known synonyms folded
//   - Person names : uppercase, with placeholders collapsed to "NA"
//   - Free text    : uppercase with whitespace collapsed
//   - Numbers      : decimal values, zero on any parse failure
//
// None of these functions return errors. Manually typed sheets are noisy and
// a single bad cell must never abort a batch run.
//
// All Clean* functions are idempotent: cleaning an already clean value
// returns it unchanged.
//
// =============================================================================

package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NotAvailable is the sentinel written for blank or placeholder person names.
const NotAvailable = "NA"

// whitespaceRegex matches runs of whitespace for collapsing.
var whitespaceRegex = regexp.MustCompile(`\s+`)

// cityPunctuation strips dots and commas and turns hyphens into spaces.
var cityPunctuation = strings.NewReplacer(".", "", ",", "", "-", " ")

// citySynonyms folds known spellings onto one canonical token.
//
// CUSTOMIZATION: Add further synonym sets here (e.g. "CALCUTTA": "KOLKATA").
var citySynonyms = map[string]string{
	"BOMBAY": "MUMBAI",
	"MUMBAI": "MUMBAI",
	"DELHI":  "DELHI",
}

// placeholderNames are the tokens treated as "no name given".
var placeholderNames = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"NONE": {},
	"-":    {},
	"--":   {},
}

// =============================================================================
// DATES
// =============================================================================

// dateFormats are tried in order; the first successful parse wins.
// Day and month accept one or two digits, as spreadsheet exports do.
var dateFormats = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2-1-06",
}

// fallbackFormats approximate a day-first generic parse. Year-first ISO
// shapes are included because date cells read as text often arrive as
// "2006-01-02 15:04:05".
var fallbackFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2-1-2006 15:04:05",
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"2 Jan 06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006/01/02",
	"2006.01.02",
}

// ParseDate parses a day-first date string.
//
// RETURNS:
//   - The date at midnight UTC.
//   - false when no format matches; the caller treats the date as unknown.
func ParseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, text); err == nil {
			return truncateDay(t), true
		}
	}

	for _, layout := range fallbackFormats {
		if t, err := time.Parse(layout, text); err == nil {
			return truncateDay(t), true
		}
	}

	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// TEXT
// =============================================================================

// collapse trims and squeezes internal whitespace to single spaces.
func collapse(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// CleanCity returns the canonical uppercase token for a city name.
func CleanCity(text string) string {
	s := strings.ToUpper(strings.TrimSpace(text))
	s = collapse(cityPunctuation.Replace(s))
	if canonical, ok := citySynonyms[s]; ok {
		return canonical
	}
	return s
}

// CleanPersonName uppercases a driver or contact name. Blank input and the
// usual placeholder tokens become NotAvailable.
func CleanPersonName(text string) string {
	s := collapse(strings.ToUpper(text))
	if _, ok := placeholderNames[s]; ok {
		return NotAvailable
	}
	return s
}

// CleanFreeText uppercases and collapses whitespace. Blank stays blank.
func CleanFreeText(text string) string {
	return collapse(strings.ToUpper(text))
}

// =============================================================================
// NUMBERS
// =============================================================================

// CleanNumber parses a numeric cell. Anything unparseable, NaN or infinite
// yields zero.
func CleanNumber(text string) decimal.Decimal {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Zero
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}

	// Prefer the exact textual value; fall back to the float for shapes the
	// decimal parser does not accept.
	if d, err := decimal.NewFromString(s); err == nil {
		return d
	}
	return decimal.NewFromFloat(f)
}

// IsNumber reports whether CleanNumber would read text without defaulting.
func IsNumber(text string) bool {
	s := strings.TrimSpace(text)
	if s == "" {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}
