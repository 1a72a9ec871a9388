// =============================================================================
// Transport Challan & Ledger - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// (challans, ledgers, party-summary, tms, version) is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (transport)
//   ├── challansCmd      (transport challans)
//   ├── ledgersCmd       (transport ledgers)
//   ├── partySummaryCmd  (transport party-summary)
//   ├── tmsCmd           (transport tms ...)
//   └── versionCmd       (transport version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading config.yaml and the TRANSPORT_* environment overrides
//   3. Building the structured logger shared by every command
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/transport-challan-ledger/internal/config"
	"github.com/ginjaninja78/transport-challan-ledger/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose forces debug logging when set to true.
var verbose bool

// mainConfig is loaded once before any subcommand runs.
var mainConfig *config.MainConfig

// logger is the process-wide structured logger.
var logger *slog.Logger

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "transport",
	Short: "Transport Challan & Ledger - challans, ledgers and party summaries from shipment workbooks",
	Long: `Transport Challan & Ledger turns shipment workbooks exported by a goods
transport office into printable documents:

  - One challan per trip, plus a monthly summary for every route
  - Weekly (or fixed-bucket) bills, ledgers and Excel workbooks per consignor
  - An all-party summary of weight, freight and amount per consignor

It also runs the token workflow (booking tokens, loading them onto challans,
payments, deliveries and party ledgers) against a Postgres database.

Example Usage:
  transport challans                        # Process every workbook in the input directory
  transport ledgers --scheme bucket         # Bills over 1-7, 8-14, 15-21, 22-end buckets
  transport party-summary --file jan.xlsx   # All-party summary of one workbook
  transport tms token list --open           # Tokens not yet delivered`,

	// SilenceUsage keeps Cobra from printing the usage text on runtime errors.
	SilenceUsage: true,

	// PersistentPreRunE runs before every subcommand.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},

	// With no subcommand, print the help message.
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// An interrupt cancels the context passed to every command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags.
func init() {
	// --config flag: Path to the main configuration file.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file (default is config.yaml)",
	)

	// --verbose flag: Enables debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// initConfig loads the configuration and builds the logger.
func initConfig() error {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}

	mainConfig = cfg
	logger = logging.New(level, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)
	return nil
}
