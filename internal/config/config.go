// =============================================================================
// Transport Challan & Ledger - Configuration Module
// =============================================================================
//
// This module loads the application configuration. Settings come from two
// places, applied in order:
//   1. Main Config (config.yaml): directories, output, hamali tables,
//      ledger settings, balances and corrections.
//   2. Environment (TRANSPORT_*): deployment overrides for the database,
//      Gotenberg, logging and the output directory.
//
// Money values in YAML may be written as plain numbers or quoted strings;
// both are read exactly.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/transport-challan-ledger/internal/aggregate"
	"github.com/ginjaninja78/transport-challan-ledger/internal/assemble"
	"github.com/ginjaninja78/transport-challan-ledger/internal/grouping"
	"github.com/ginjaninja78/transport-challan-ledger/internal/period"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "TRANSPORT"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for shipment workbooks when no file is named.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives bundles, logs and summaries.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives input files after a successful run.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir receives older bundles.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// ArchiveOnSuccess moves processed inputs to InputArchiveDir.
	ArchiveOnSuccess bool `yaml:"archive_on_success"`

	// UseTimestampSubdirs nests archives under YYYY/MM/DD directories.
	UseTimestampSubdirs bool `yaml:"use_timestamp_subdirs"`

	// ArchiveRetentionDays removes archived bundles older than this many
	// days at the start of a run. 0 keeps everything.
	ArchiveRetentionDays int `yaml:"archive_retention_days"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel is one of "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFormat is "pdf" (through Gotenberg) or "html".
	// Default: "pdf"
	OutputFormat string `yaml:"output_format"`

	// GotenbergURL is the base URL of the PDF converter.
	// Default: "http://127.0.0.1:3000"
	GotenbergURL string `yaml:"gotenberg_url"`

	// CompanyName is printed at the top of every document.
	CompanyName string `yaml:"company_name"`

	// SummaryRowsPerPage limits the rows on one route summary page.
	// Default: 30
	SummaryRowsPerPage int `yaml:"summary_rows_per_page"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency bounds parallel rendering.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// CSVDelimiter separates fields in CSV input and side files.
	// Default: ","
	CSVDelimiter string `yaml:"csv_delimiter"`

	// =========================================================================
	// CHARGES
	// =========================================================================

	// DefaultHamali applies to routes missing from RouteHamali.
	// Default: 1700 loading, 1700 unloading
	DefaultHamali *Hamali `yaml:"default_hamali"`

	// RouteHamali is keyed "{FROM}_TO_{TO}", e.g. "DELHI_TO_MUMBAI".
	RouteHamali map[string]Hamali `yaml:"route_hamali"`

	// OtherExpenses is deducted from every challan balance.
	OtherExpenses decimal.Decimal `yaml:"other_expenses"`

	// =========================================================================
	// LEDGER SETTINGS
	// =========================================================================

	Ledger LedgerConfig `yaml:"ledger"`

	// =========================================================================
	// DATABASE
	// =========================================================================

	// PGDSN is the token workflow database.
	PGDSN string `yaml:"pg_dsn"`
}

// Hamali is the loading and unloading charge for a route.
type Hamali struct {
	Loading   decimal.Decimal `yaml:"loading"`
	Unloading decimal.Decimal `yaml:"unloading"`
}

// LedgerConfig controls bill and ledger generation.
type LedgerConfig struct {
	// Variant is "weekly" (SUBTOTAL + OLD BALANCE bills) or "correction"
	// (route constant hamali, hire and manual corrections deducted).
	// Default: "weekly"
	Variant string `yaml:"variant"`

	// Scheme is "week" (Monday to Sunday) or "bucket" (1-7, 8-14, 15-21,
	// 22 to month end).
	// Default: "week", or "bucket" for the correction variant
	Scheme string `yaml:"scheme"`

	// Routes is "all" or "delhi_mumbai".
	// Default: "all"
	Routes string `yaml:"routes"`

	// DefaultHamali and RouteHamali override the route constant hamali of
	// correction ledgers. They are independent of the challan tables.
	// Default: DELHI_TO_MUMBAI 1700/1600, MUMBAI_TO_DELHI 2200/2200,
	// anything else 1700/1700
	DefaultHamali *Hamali           `yaml:"default_hamali"`
	RouteHamali   map[string]Hamali `yaml:"route_hamali"`

	// PreviousBalances maps consignor to the balance carried forward.
	PreviousBalances map[string]decimal.Decimal `yaml:"previous_balances"`

	// Corrections is keyed "{consignor}_{period}_{FROM}_to_{TO}".
	Corrections map[string]Correction `yaml:"corrections"`
}

// Correction is a manual adjustment to one bill. PreviousBalance, when set,
// replaces the consignor's balance for that bill only.
type Correction struct {
	Deduction       decimal.Decimal  `yaml:"deduction"`
	Addition        decimal.Decimal  `yaml:"addition"`
	PreviousBalance *decimal.Decimal `yaml:"previous_balance"`
}

// EnvOverrides are read from TRANSPORT_* variables. Empty values leave the
// YAML setting in place.
type EnvOverrides struct {
	PGDSN        string `envconfig:"PG_DSN"`
	GotenbergURL string `envconfig:"GOTENBERG_URL"`
	LogLevel     string `envconfig:"LOG_LEVEL"`
	LogFormat    string `envconfig:"LOG_FORMAT"`
	OutputDir    string `envconfig:"OUTPUT_DIR"`
	OutputFormat string `envconfig:"OUTPUT_FORMAT"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file and applies
// environment overrides. A missing file is not an error; defaults and the
// environment are used instead.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be parsed or a setting is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnvOverrides(&config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyEnvOverrides copies non-empty TRANSPORT_* values over the YAML.
func applyEnvOverrides(config *MainConfig) error {
	var env EnvOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return err
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&config.PGDSN, env.PGDSN)
	override(&config.GotenbergURL, env.GotenbergURL)
	override(&config.LogLevel, env.LogLevel)
	override(&config.LogFormat, env.LogFormat)
	override(&config.OutputDir, env.OutputDir)
	override(&config.OutputFormat, env.OutputFormat)
	return nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = "./output_archive"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	if config.OutputFormat == "" {
		config.OutputFormat = "pdf"
	}
	if config.GotenbergURL == "" {
		config.GotenbergURL = "http://127.0.0.1:3000"
	}
	if config.SummaryRowsPerPage == 0 {
		config.SummaryRowsPerPage = 30
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
	if config.CSVDelimiter == "" {
		config.CSVDelimiter = ","
	}
	if config.DefaultHamali == nil {
		config.DefaultHamali = &Hamali{
			Loading:   aggregate.DefaultHamali.Loading,
			Unloading: aggregate.DefaultHamali.Unloading,
		}
	}
	if config.Ledger.Variant == "" {
		config.Ledger.Variant = string(assemble.VariantWeekly)
	}
	if config.Ledger.Scheme == "" {
		config.Ledger.Scheme = period.SchemeWeekly
		if v, _ := assemble.VariantFor(config.Ledger.Variant); v == assemble.VariantCorrection {
			config.Ledger.Scheme = period.SchemeBucket
		}
	}
	if config.Ledger.Routes == "" {
		config.Ledger.Routes = grouping.RoutesAll
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.OutputFormat) {
	case "pdf", "html":
	default:
		return fmt.Errorf("output_format must be pdf or html, got %q", config.OutputFormat)
	}
	if _, ok := assemble.VariantFor(config.Ledger.Variant); !ok {
		return fmt.Errorf("ledger.variant must be %s or %s, got %q",
			assemble.VariantWeekly, assemble.VariantCorrection, config.Ledger.Variant)
	}
	if _, err := period.ForName(config.Ledger.Scheme); err != nil {
		return err
	}
	if _, ok := grouping.RouteFilterFor(config.Ledger.Routes); !ok {
		return fmt.Errorf("ledger.routes must be %s or %s, got %q",
			grouping.RoutesAll, grouping.RoutesDelhiMumbai, config.Ledger.Routes)
	}
	if config.SummaryRowsPerPage < 1 {
		return fmt.Errorf("summary_rows_per_page must be positive")
	}
	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be positive")
	}
	if config.ArchiveRetentionDays < 0 {
		return fmt.Errorf("archive_retention_days must not be negative")
	}
	if config.OtherExpenses.IsNegative() {
		return fmt.Errorf("other_expenses must not be negative")
	}
	return nil
}

// EnsureDirectories creates the configured directories.
func (c *MainConfig) EnsureDirectories() error {
	for _, dir := range []string{c.InputDir, c.OutputDir} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}
	return nil
}

// =============================================================================
// TYPED ACCESSORS
// =============================================================================

// RouteCharges returns the challan hamali table.
func (c *MainConfig) RouteCharges() aggregate.RouteCharges {
	return overlayHamali(aggregate.NewRouteCharges(nil), c.DefaultHamali, c.RouteHamali)
}

// LedgerRouteCharges returns the hamali table of correction ledgers: the
// route constants with any ledger.route_hamali entries laid over them.
func (c *MainConfig) LedgerRouteCharges() aggregate.RouteCharges {
	return overlayHamali(aggregate.LedgerHamali(), c.Ledger.DefaultHamali, c.Ledger.RouteHamali)
}

// LedgerVariant returns the configured bill variant.
func (c *MainConfig) LedgerVariant() assemble.Variant {
	v, ok := assemble.VariantFor(c.Ledger.Variant)
	if !ok {
		return assemble.VariantWeekly
	}
	return v
}

func overlayHamali(rc aggregate.RouteCharges, def *Hamali, routes map[string]Hamali) aggregate.RouteCharges {
	for key, h := range routes {
		rc.Routes[strings.ToUpper(strings.TrimSpace(key))] = aggregate.Charges{Loading: h.Loading, Unloading: h.Unloading}
	}
	if def != nil {
		rc.Default = aggregate.Charges{Loading: def.Loading, Unloading: def.Unloading}
	}
	return rc
}

// PeriodScheme returns the configured ledger period scheme.
func (c *MainConfig) PeriodScheme() period.Scheme {
	s, err := period.ForName(c.Ledger.Scheme)
	if err != nil {
		return period.Weekly{}
	}
	return s
}

// RouteFilter returns the configured ledger route filter.
func (c *MainConfig) RouteFilter() grouping.RouteFilter {
	f, ok := grouping.RouteFilterFor(c.Ledger.Routes)
	if !ok {
		return grouping.AllRoutes
	}
	return f
}

// CorrectionTable returns the corrections keyed as aggregate.CorrectionKey.
func (c *MainConfig) CorrectionTable() map[string]aggregate.Correction {
	out := make(map[string]aggregate.Correction, len(c.Ledger.Corrections))
	for key, v := range c.Ledger.Corrections {
		corr := aggregate.Correction{Deduction: v.Deduction, Addition: v.Addition}
		if v.PreviousBalance != nil {
			corr.PreviousBalance = decimal.NewNullDecimal(*v.PreviousBalance)
		}
		out[key] = corr
	}
	return out
}
