package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekOfBoundaries(t *testing.T) {
	// Every day across a leap year and a year boundary.
	for d := date(2023, 12, 1); d.Before(date(2025, 1, 15)); d = d.AddDate(0, 0, 1) {
		w := WeekOf(d)
		require.Equal(t, time.Monday, w.Start.Weekday(), "start for %s", d)
		require.Equal(t, time.Sunday, w.End.Weekday(), "end for %s", d)
		require.Equal(t, 6*24*time.Hour, w.End.Sub(w.Start), "span for %s", d)
		require.True(t, w.Contains(d), "%s outside %s", d, w.Label)
	}
}

func TestWeekOfLabel(t *testing.T) {
	cases := []struct {
		in    time.Time
		label string
	}{
		{date(2024, 11, 20), "18 Nov - 24 Nov 2024"},
		{date(2024, 1, 1), "01 Jan - 07 Jan 2024"},
		{date(2024, 1, 7), "01 Jan - 07 Jan 2024"},
		{date(2025, 1, 1), "30 Dec - 05 Jan 2025"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.label, WeekOf(tc.in).Label, "for %s", tc.in)
	}
}

func TestWeekOfIgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, WeekOf(date(2024, 3, 10)), WeekOf(late))
}

func TestBucketOf(t *testing.T) {
	cases := []struct {
		in    time.Time
		index int
		label string
	}{
		{date(2024, 1, 1), 1, "01-07 January 2024"},
		{date(2024, 1, 7), 1, "01-07 January 2024"},
		{date(2024, 1, 8), 2, "08-14 January 2024"},
		{date(2024, 1, 14), 2, "08-14 January 2024"},
		{date(2024, 1, 15), 3, "15-21 January 2024"},
		{date(2024, 1, 21), 3, "15-21 January 2024"},
		{date(2024, 1, 22), 4, "22-31 January 2024"},
		{date(2024, 1, 31), 4, "22-31 January 2024"},
		{date(2024, 2, 29), 4, "22-29 February 2024"},
		{date(2023, 2, 23), 4, "22-28 February 2023"},
		{date(2024, 4, 30), 4, "22-30 April 2024"},
	}
	for _, tc := range cases {
		b := BucketOf(tc.in)
		assert.Equal(t, tc.index, b.Index, "index for %s", tc.in)
		assert.Equal(t, tc.label, b.Label, "label for %s", tc.in)
		assert.True(t, b.Contains(tc.in))
	}
}

func TestLastBucketVariesWithMonthLength(t *testing.T) {
	feb := BucketOf(date(2023, 2, 25))
	jan := BucketOf(date(2023, 1, 25))
	assert.Equal(t, 6*24*time.Hour, feb.End.Sub(feb.Start))
	assert.Equal(t, 9*24*time.Hour, jan.End.Sub(jan.Start))
}

func TestForName(t *testing.T) {
	s, err := ForName("week")
	require.NoError(t, err)
	assert.Equal(t, SchemeWeekly, s.Name())

	s, err = ForName("BUCKET")
	require.NoError(t, err)
	assert.Equal(t, SchemeBucket, s.Name())

	s, err = ForName("")
	require.NoError(t, err)
	assert.Equal(t, SchemeWeekly, s.Name())

	_, err = ForName("fortnight")
	assert.Error(t, err)
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "January_2024", MonthKey(date(2024, 1, 31)))
}

func TestLastBucketSharesOneLabel(t *testing.T) {
	a := BucketOf(date(2024, 1, 22))
	b := BucketOf(date(2024, 1, 29))
	assert.Equal(t, "22-31 January 2024", a.Label)
	assert.Equal(t, a.Label, b.Label)
	assert.Equal(t, 4, b.Index)
}
