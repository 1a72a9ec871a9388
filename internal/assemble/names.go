package assemble

import (
	"path"
	"strings"

	"github.com/ginjaninja78/transport-challan-ledger/internal/grouping"
	"github.com/ginjaninja78/transport-challan-ledger/internal/types"
)

// PartySummaryBase is the file name stem of the all-party summary.
const PartySummaryBase = "All_Party_Summary"

var serialReplacer = strings.NewReplacer("/", "-", "\\", "-", " ", "_")

var segmentReplacer = strings.NewReplacer("/", "-", "\\", "-")

// safeSegment keeps a value usable as a single path element.
func safeSegment(s string) string {
	s = segmentReplacer.Replace(strings.TrimSpace(s))
	switch s {
	case "", ".", "..":
		return "UNKNOWN"
	}
	return s
}

// ChallanFileName returns
// "{YYYYMMDD}__{serial}__{driver}__{FROM}_to_{TO}.pdf". Undated challans use
// "UNDATED" in place of the date.
func ChallanFileName(key grouping.ChallanKey) string {
	date := "UNDATED"
	if key.DateKey != "" {
		date = strings.ReplaceAll(key.DateKey, "-", "")
	}
	return date + "__" +
		serialReplacer.Replace(key.SerialNo) + "__" +
		serialReplacer.Replace(key.Driver) + "__" +
		key.Route().FileSegment() + ".pdf"
}

// ChallanBundleDir returns "{Month_YYYY}/{FROM}_TO_{TO}".
func ChallanBundleDir(monthKey string, route types.Route) string {
	return path.Join(monthKey, safeSegment(route.Key()))
}

// SummaryFileName returns "SUMMARY__{FROM}_TO_{TO}__{Month_YYYY}.pdf".
func SummaryFileName(monthKey string, route types.Route) string {
	return "SUMMARY__" + route.Key() + "__" + monthKey + ".pdf"
}

// LedgerFileBase returns "{consignor}__{period}__{FROM}_to_{TO}".
func LedgerFileBase(key grouping.LedgerKey) string {
	p := types.PeriodRange{Label: key.PeriodLabel}
	return safeSegment(key.Consignor) + "__" + p.FileSegment() + "__" + key.Route().FileSegment()
}

// LedgerBundleDir returns "{consignor}/{period}".
func LedgerBundleDir(key grouping.LedgerKey) string {
	p := types.PeriodRange{Label: key.PeriodLabel}
	return path.Join(safeSegment(key.Consignor), p.FileSegment())
}
