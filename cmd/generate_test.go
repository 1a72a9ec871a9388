package cmd

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/transport-challan-ledger/internal/assemble"
	"github.com/ginjaninja78/transport-challan-ledger/internal/config"
	"github.com/ginjaninja78/transport-challan-ledger/internal/logging"
	"github.com/ginjaninja78/transport-challan-ledger/internal/pipeline"
	"github.com/ginjaninja78/transport-challan-ledger/internal/types"
	"github.com/ginjaninja78/transport-challan-ledger/internal/validation"
)

const shipmentCSV = "S. NO.,DATE,FROM,TO,NAME OF THE DRIVER,CONSIGNOR,CONSIGNEE,WT. Kgs.,NO. OF Pkgs,FREIGHT,AMOUNT,Hire\n" +
	"1,02/01/2024,Delhi,Mumbai,Ram,ABC,XYZ,60,1,100,6000,2000\n" +
	"1,02/01/2024,Delhi,Mumbai,Ram,DEF,XYZ,40,1,100,4000,2000\n"

// testConfig points the globals at temporary directories.
func testConfig(t *testing.T) *config.MainConfig {
	t.Helper()
	root := t.TempDir()
	cfg := &config.MainConfig{
		InputDir:           filepath.Join(root, "input"),
		OutputDir:          filepath.Join(root, "output"),
		InputArchiveDir:    filepath.Join(root, "input_archive"),
		OutputArchiveDir:   filepath.Join(root, "output_archive"),
		ArchiveOnSuccess:   true,
		OutputFormat:       "html",
		CompanyName:        "ACME TRANSPORT",
		SummaryRowsPerPage: 30,
		MaxConcurrency:     2,
		CSVDelimiter:       ",",
	}
	require.NoError(t, cfg.EnsureDirectories())

	prevConfig, prevLogger := mainConfig, logger
	mainConfig = cfg
	logger = logging.New("error", "text", io.Discard)
	t.Cleanup(func() { mainConfig, logger = prevConfig, prevLogger })
	return cfg
}

func writeInput(t *testing.T, cfg *config.MainConfig, name, data string) string {
	t.Helper()
	path := filepath.Join(cfg.InputDir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func challanGeneration(cfg *config.MainConfig) generation {
	return generation{
		command:  "challans",
		prefix:   "challans",
		required: validation.ShipmentColumns,
		opts:     pipelineOptions(cfg),
		run:      (*pipeline.Pipeline).Challans,
	}
}

func glob(t *testing.T, dir, pattern string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	require.NoError(t, err)
	return matches
}

// =============================================================================
// END TO END
// =============================================================================

func TestRunGenerationWritesBundleAndArchives(t *testing.T) {
	cfg := testConfig(t)
	input := writeInput(t, cfg, "shipments.csv", shipmentCSV)

	require.NoError(t, runGeneration(context.Background(), challanGeneration(cfg)))

	bundles := glob(t, cfg.OutputDir, "challans_*.zip")
	require.Len(t, bundles, 1)

	zr, err := zip.OpenReader(bundles[0])
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{
		"January_2024/DELHI_TO_MUMBAI/20240102__1__RAM__DELHI_to_MUMBAI.html",
		"January_2024/DELHI_TO_MUMBAI/SUMMARY__DELHI_TO_MUMBAI__January_2024.html",
	}, names)

	assert.NoFileExists(t, input)
	assert.FileExists(t, filepath.Join(cfg.InputArchiveDir, "shipments.csv"))
	assert.Len(t, glob(t, cfg.OutputArchiveDir, "challans_*.zip"), 1)
	assert.Len(t, glob(t, cfg.OutputDir, "processing_summary_*.txt"), 1)
	assert.Empty(t, glob(t, cfg.OutputDir, "error_log_*.txt"))
}

func TestRunGenerationMissingColumnAbortsRun(t *testing.T) {
	cfg := testConfig(t)
	input := writeInput(t, cfg, "broken.csv", "S. NO.,DATE\n1,02/01/2024\n")

	err := runGeneration(context.Background(), challanGeneration(cfg))
	require.Error(t, err)
	assert.True(t, errors.Is(err, validation.ErrMissingColumn))

	assert.Empty(t, glob(t, cfg.OutputDir, "*.zip"))
	assert.FileExists(t, input, "inputs stay in place after a failed run")
	assert.Len(t, glob(t, cfg.OutputDir, "error_log_*.txt"), 1)
}

func TestRunGenerationLogsAbsorbedCells(t *testing.T) {
	cfg := testConfig(t)
	writeInput(t, cfg, "shipments.csv", shipmentCSV+"2,not a date,Delhi,Mumbai,Ram,ABC,XYZ,abc,1,100,500,0\n")

	require.NoError(t, runGeneration(context.Background(), challanGeneration(cfg)))

	assert.Len(t, glob(t, cfg.OutputDir, "challans_*.zip"), 1)
	assert.Len(t, glob(t, cfg.OutputDir, "error_log_*.txt"), 1)
}

func TestRunGenerationNoDataIsNotAnError(t *testing.T) {
	cfg := testConfig(t)
	writeInput(t, cfg, "shipments.csv", shipmentCSV)

	g := challanGeneration(cfg)
	g.command, g.prefix = "ledgers", "ledgers"
	g.opts.Routes = func(types.Route) bool { return false }
	g.run = (*pipeline.Pipeline).Ledgers

	require.NoError(t, runGeneration(context.Background(), g))
	assert.Empty(t, glob(t, cfg.OutputDir, "*.zip"))
}

func TestRunGenerationDryRunWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	input := writeInput(t, cfg, "shipments.csv", shipmentCSV)

	g := challanGeneration(cfg)
	g.dryRun = true
	require.NoError(t, runGeneration(context.Background(), g))

	assert.Empty(t, glob(t, cfg.OutputDir, "*"))
	assert.FileExists(t, input)
}

func TestRunGenerationNoBundleWritesFiles(t *testing.T) {
	cfg := testConfig(t)
	writeInput(t, cfg, "shipments.csv", shipmentCSV)

	g := challanGeneration(cfg)
	g.noBundle = true
	require.NoError(t, runGeneration(context.Background(), g))

	dirs := glob(t, cfg.OutputDir, "challans_*")
	require.Len(t, dirs, 1)
	assert.FileExists(t, filepath.Join(dirs[0], "January_2024", "DELHI_TO_MUMBAI", "SUMMARY__DELHI_TO_MUMBAI__January_2024.html"))
	assert.Empty(t, glob(t, cfg.OutputDir, "*.zip"))
}

func TestRunGenerationExplicitFileIsNotArchived(t *testing.T) {
	cfg := testConfig(t)
	input := filepath.Join(t.TempDir(), "elsewhere.csv")
	require.NoError(t, os.WriteFile(input, []byte(shipmentCSV), 0o644))

	g := challanGeneration(cfg)
	g.file = input
	require.NoError(t, runGeneration(context.Background(), g))

	assert.FileExists(t, input)
	assert.Len(t, glob(t, cfg.OutputDir, "challans_*.zip"), 1)
}

func TestReadInputRejectsUnknownExtension(t *testing.T) {
	testConfig(t)
	_, err := readInput("shipments.ods", validation.ShipmentColumns)
	assert.ErrorContains(t, err, "unsupported input file")
}

// =============================================================================
// OPTIONS AND FLAGS
// =============================================================================

func TestLedgerOptionsMergesSideFiles(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ledger.PreviousBalances = map[string]decimal.Decimal{
		"abc traders": decimal.NewFromInt(100),
		"def":         decimal.NewFromInt(50),
	}

	dir := t.TempDir()
	balances := filepath.Join(dir, "balances.csv")
	corrections := filepath.Join(dir, "corrections.csv")
	require.NoError(t, os.WriteFile(balances, []byte("consignor,balance\n Abc  Traders ,1000\n"), 0o644))
	require.NoError(t, os.WriteFile(corrections, []byte("key,deduction,addition\nK1,500,250\n"), 0o644))

	ledgersBalances, ledgersCorrections, ledgersScheme = balances, corrections, "bucket"
	t.Cleanup(func() { ledgersBalances, ledgersCorrections, ledgersScheme = "", "", "" })

	opts, err := ledgerOptions()
	require.NoError(t, err)

	assert.Equal(t, "1000", opts.PreviousBalances["ABC TRADERS"].String(), "side file wins")
	assert.Equal(t, "50", opts.PreviousBalances["DEF"].String())
	assert.Equal(t, "500", opts.Corrections["K1"].Deduction.String())
	assert.Equal(t, "250", opts.Corrections["K1"].Addition.String())
	assert.Equal(t, "bucket", opts.Scheme.Name())
}

func TestLedgerOptionsCorrectionVariant(t *testing.T) {
	cfg := testConfig(t)
	prev := decimal.NewFromInt(75)
	cfg.Ledger.Corrections = map[string]config.Correction{
		"K1": {Deduction: decimal.NewFromInt(10), PreviousBalance: &prev},
	}

	corrections := filepath.Join(t.TempDir(), "corrections.csv")
	require.NoError(t, os.WriteFile(corrections, []byte("K1,500,250\n"), 0o644))

	ledgersVariant, ledgersCorrections = "correction", corrections
	t.Cleanup(func() { ledgersVariant, ledgersCorrections = "", "" })

	opts, err := ledgerOptions()
	require.NoError(t, err)

	assert.Equal(t, assemble.VariantCorrection, opts.Variant)
	assert.Equal(t, "bucket", opts.Scheme.Name(), "correction ledgers default to buckets")
	assert.Equal(t, "500", opts.Corrections["K1"].Deduction.String())
	require.True(t, opts.Corrections["K1"].PreviousBalance.Valid, "config balance survives the CSV")
	assert.Equal(t, "75", opts.Corrections["K1"].PreviousBalance.Decimal.String())

	c := opts.LedgerHamali.For(types.Route{From: "MUMBAI", To: "DELHI"})
	assert.Equal(t, "2200", c.Loading.String())
}

func TestLedgerOptionsRejectsBadFlags(t *testing.T) {
	testConfig(t)

	ledgersVariant = "monthly"
	_, err := ledgerOptions()
	ledgersVariant = ""
	assert.ErrorContains(t, err, "invalid --variant")

	ledgersRoutes = "everywhere"
	_, err = ledgerOptions()
	ledgersRoutes = ""
	assert.ErrorContains(t, err, "invalid --routes")

	ledgersScheme = "fortnight"
	_, err = ledgerOptions()
	ledgersScheme = ""
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	d, err := parseAmount("amount", " 1,250.50 ")
	require.NoError(t, err)
	assert.Equal(t, "1250.5", d.String())

	d, err = parseAmount("amount", "")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = parseAmount("amount", "lots")
	assert.ErrorContains(t, err, "--amount")
}

func TestParseDay(t *testing.T) {
	d, err := parseDay("date", "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDay("date", "")
	require.NoError(t, err)
	assert.Equal(t, time.Now().Day(), d.Day())

	_, err = parseDay("date", "10/03/2024")
	assert.ErrorContains(t, err, "YYYY-MM-DD")
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, "MISSING_COLUMN", errorType(&validation.ColumnError{Missing: []string{"DATE"}}))
	assert.Equal(t, "CANCELLED", errorType(context.Canceled))
	assert.Equal(t, "PROCESSING", errorType(errors.New("boom")))
}
