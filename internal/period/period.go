// Package period computes the billing period enclosing a date.
//
// Two schemes exist. Weekly periods run Monday to Sunday. Fixed buckets split
// each month into days 1-7, 8-14, 15-21 and 22 to month end, so the last
// bucket is between 7 and 10 days long. Historical reports depend on both
// boundaries, so neither scheme may be changed.
package period

import (
	"fmt"
	"strings"
	"time"

	"github.com/ginjaninja78/transport-challan-ledger/internal/types"
)

// Scheme names accepted in configuration.
const (
	SchemeWeekly = "week"
	SchemeBucket = "bucket"
)

// Scheme maps a date onto its period.
type Scheme interface {
	Name() string
	Of(d time.Time) types.PeriodRange
}

// ForName returns the scheme registered under name.
func ForName(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SchemeWeekly, "weekly", "iso_week":
		return Weekly{}, nil
	case SchemeBucket, "buckets", "fixed":
		return Buckets{}, nil
	default:
		return nil, fmt.Errorf("period: unknown scheme %q", name)
	}
}

// Weekly is the Monday-to-Sunday scheme.
type Weekly struct{}

func (Weekly) Name() string { return SchemeWeekly }

func (Weekly) Of(d time.Time) types.PeriodRange { return WeekOf(d) }

// Buckets is the four-per-month scheme.
type Buckets struct{}

func (Buckets) Name() string { return SchemeBucket }

func (Buckets) Of(d time.Time) types.PeriodRange { return BucketOf(d) }

// WeekOf returns the Monday-to-Sunday week containing d, labeled
// "02 Jan - 08 Jan 2006".
func WeekOf(d time.Time) types.PeriodRange {
	day := dateOnly(d)
	// time.Weekday has Sunday as 0; shift so Monday is 0.
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 6)

	return types.PeriodRange{
		Start: start,
		End:   end,
		Label: fmt.Sprintf("%s - %s", start.Format("02 Jan"), end.Format("02 Jan 2006")),
	}
}

// BucketOf returns the fixed bucket containing d, labeled like
// "08-14 January 2024".
func BucketOf(d time.Time) types.PeriodRange {
	day := dateOnly(d)
	monthEnd := time.Date(day.Year(), day.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()

	var index, first, last int
	switch {
	case day.Day() <= 7:
		index, first, last = 1, 1, 7
	case day.Day() <= 14:
		index, first, last = 2, 8, 14
	case day.Day() <= 21:
		index, first, last = 3, 15, 21
	default:
		// Bucket 4 always ends on the last day of the month, so every date
		// from the 22nd on shares one label. Labelling it with the date's own
		// day instead would split bucket 4 into one group per day.
		index, first, last = 4, 22, monthEnd
	}

	start := time.Date(day.Year(), day.Month(), first, 0, 0, 0, 0, time.UTC)
	end := time.Date(day.Year(), day.Month(), last, 0, 0, 0, 0, time.UTC)

	return types.PeriodRange{
		Index: index,
		Start: start,
		End:   end,
		Label: fmt.Sprintf("%02d-%02d %s", first, last, day.Format("January 2006")),
	}
}

// MonthKey returns "January_2024" for d, the bundle folder for challans.
func MonthKey(d time.Time) string {
	return d.Format("January_2006")
}

func dateOnly(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
