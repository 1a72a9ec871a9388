package types

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() ShipmentRecord {
	return ShipmentRecord{
		Row:        2,
		SerialNo:   "1",
		Date:       time.Date(2024, 1, 1, 15, 30, 0, 0, time.Local),
		HasDate:    true,
		FromCity:   "DELHI",
		ToCity:     "MUMBAI",
		DriverName: "RAM",
		Consignor:  "ABC TRADERS",
		Consignee:  "XYZ",
		Weight:     decimal.NewFromInt(100),
		Packages:   decimal.NewFromInt(2),
		Amount:     decimal.NewFromInt(5000),
		Hire:       decimal.NewFromInt(2000),
	}
}

func TestNewShipmentRecord(t *testing.T) {
	rec, err := NewShipmentRecord(validRecord())
	require.NoError(t, err)

	assert.Equal(t, Route{From: "DELHI", To: "MUMBAI"}, rec.Route)
	assert.Equal(t, "2024-01-01", rec.DateKey())
	assert.Equal(t, "01/01/2024", rec.DisplayDate())
	assert.Equal(t, 0, rec.Date.Hour())
}

func TestNewShipmentRecordRejectsInvalidInput(t *testing.T) {
	cases := map[string]func(*ShipmentRecord){
		"negative amount":     func(r *ShipmentRecord) { r.Amount = decimal.NewFromInt(-1) },
		"negative weight":     func(r *ShipmentRecord) { r.Weight = decimal.NewFromFloat(-0.5) },
		"lowercase city":      func(r *ShipmentRecord) { r.FromCity = "delhi" },
		"unfolded synonym":    func(r *ShipmentRecord) { r.ToCity = "BOMBAY" },
		"blank driver":        func(r *ShipmentRecord) { r.DriverName = "" },
		"placeholder driver":  func(r *ShipmentRecord) { r.DriverName = "N/A" },
		"untrimmed consignor": func(r *ShipmentRecord) { r.Consignor = " ABC" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := validRecord()
			mutate(&r)
			_, err := NewShipmentRecord(r)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRecord))
		})
	}
}

func TestUnknownDateRecord(t *testing.T) {
	r := validRecord()
	r.HasDate = false
	rec, err := NewShipmentRecord(r)
	require.NoError(t, err)
	assert.True(t, rec.Date.IsZero())
	assert.Equal(t, "", rec.DateKey())
	assert.Equal(t, "", rec.DisplayDate())
}

func TestRouteForms(t *testing.T) {
	r := Route{From: "DELHI", To: "MUMBAI"}
	assert.Equal(t, "DELHI_TO_MUMBAI", r.Key())
	assert.Equal(t, "DELHI_to_MUMBAI", r.FileSegment())
	assert.Equal(t, "DELHI TO MUMBAI", r.Heading())
	assert.Equal(t, Route{From: "MUMBAI", To: "DELHI"}, r.Reverse())
	assert.False(t, Route{From: "DELHI"}.Complete())
}

func TestPeriodRangeFileSegment(t *testing.T) {
	p := PeriodRange{Label: "01 Jan - 07 Jan 2024"}
	assert.Equal(t, "01_Jan_to_07_Jan_2024", p.FileSegment())
}

func TestRowAccessors(t *testing.T) {
	row := Row{Cells: map[string]string{"FROM": "Delhi"}}
	assert.Equal(t, "Delhi", row.Get("FROM"))
	assert.Equal(t, "", row.Get("TO"))
	assert.True(t, row.Has("FROM"))
	assert.False(t, row.Has("TO"))
}

func TestValidatorRegistersCanonicalTags(t *testing.T) {
	v, err := newValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Var("MUMBAI", "canonical_city"))
	assert.Error(t, v.Var("Bombay", "canonical_city"))
	assert.NoError(t, v.Var("NA", "canonical_name"))
	assert.Error(t, v.Var("abc  traders", "canonical_text"))
}

func TestRegisterCanonicalReportsBadTag(t *testing.T) {
	v, err := newValidator()
	require.NoError(t, err)

	err = registerCanonical(v, map[string]func(string) string{"": strings.ToUpper})
	assert.ErrorContains(t, err, `register ""`)
}
