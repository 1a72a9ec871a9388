package normalize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{"day first slash", "05/03/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"single digit parts", "5/3/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"dash", "31-12-2023", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"dot", "01.02.2024", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"two digit year slash", "05/03/24", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"two digit year dash", "05-03-24", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"iso fallback", "2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"iso with time", "2024-03-05 00:00:00", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"month name", "5 March 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"upper month name", "05-MAR-2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"padded", "  01/01/2024 ", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"garbage", "not a date", time.Time{}, false},
		{"blank", "", time.Time{}, false},
		{"impossible day", "32/01/2024", time.Time{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseDate(tc.in)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.True(t, tc.want.Equal(got), "got %s want %s", got, tc.want)
			}
		})
	}
}

func TestParseDatePrefersDayFirst(t *testing.T) {
	got, ok := ParseDate("05/03/2024")
	require.True(t, ok)
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 5, got.Day())
}

func TestCleanCity(t *testing.T) {
	cases := map[string]string{
		"Bombay":        "MUMBAI",
		"MUMBAI.":       "MUMBAI",
		" mumbai ":      "MUMBAI",
		"Delhi":         "DELHI",
		"delhi,":        "DELHI",
		"new-delhi":     "NEW DELHI",
		"Navi   Mumbai": "NAVI MUMBAI",
		"":              "",
		"   ":           "",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanCity(in), "input %q", in)
	}
	assert.Equal(t, CleanCity("Bombay"), CleanCity("MUMBAI."))
}

func TestCleanPersonName(t *testing.T) {
	cases := map[string]string{
		"ram":          "RAM",
		"  ram  kumar": "RAM KUMAR",
		"":             NotAvailable,
		"na":           NotAvailable,
		"N/A":          NotAvailable,
		"none":         NotAvailable,
		"-":            NotAvailable,
		" -- ":         NotAvailable,
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanPersonName(in), "input %q", in)
	}
}

func TestCleanFreeTextKeepsBlank(t *testing.T) {
	assert.Equal(t, "", CleanFreeText("   "))
	assert.Equal(t, "ABC TRADERS", CleanFreeText(" abc\ttraders "))
	assert.Equal(t, "NA", CleanFreeText("na"))
}

func TestCleanersAreIdempotent(t *testing.T) {
	inputs := []string{
		"", " ", "Bombay", "MUMBAI.", "new - delhi", "n/a", "--", "Ram  Kumar",
		"abc, traders.", "DELHI", "Mumbai-Central", "\tpune\n",
	}
	for _, in := range inputs {
		city := CleanCity(in)
		assert.Equal(t, city, CleanCity(city), "city %q", in)

		name := CleanPersonName(in)
		assert.Equal(t, name, CleanPersonName(name), "name %q", in)

		text := CleanFreeText(in)
		assert.Equal(t, text, CleanFreeText(text), "text %q", in)
	}
}

func TestCleanNumber(t *testing.T) {
	cases := []struct {
		in   string
		want decimal.Decimal
	}{
		{"12.5", decimal.RequireFromString("12.5")},
		{" 100 ", decimal.NewFromInt(100)},
		{"1e3", decimal.NewFromInt(1000)},
		{"-7", decimal.NewFromInt(-7)},
		{"abc", decimal.Zero},
		{"", decimal.Zero},
		{"NaN", decimal.Zero},
		{"inf", decimal.Zero},
		{"1,000", decimal.Zero},
	}
	for _, tc := range cases {
		got := CleanNumber(tc.in)
		assert.True(t, tc.want.Equal(got), "input %q: got %s want %s", tc.in, got, tc.want)
	}
}

func TestIsNumber(t *testing.T) {
	assert.True(t, IsNumber("0"))
	assert.True(t, IsNumber("2.50"))
	assert.False(t, IsNumber(""))
	assert.False(t, IsNumber("nan"))
	assert.False(t, IsNumber("12kg"))
}
