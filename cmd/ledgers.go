// =============================================================================
// Transport Challan & Ledger - Ledgers Command
// =============================================================================
//
// This file defines the 'ledgers' command. It produces a bill, a ledger and
// an Excel workbook for every (consignor, period, route).
//
// COMMAND USAGE:
//   transport ledgers [flags]
//
// FLAGS:
//   --file         : Process a single workbook instead of the input directory
//   --variant      : "weekly" or "correction" (route hamali and corrections)
//   --scheme       : "week" (Monday to Sunday) or "bucket" (1-7, 8-14, 15-21, 22-end)
//   --routes       : "all" or "delhi_mumbai"
//   --balances     : CSV of consignor,previous_balance
//   --corrections  : CSV of key,deduction,addition
//   --no-bundle    : Write plain files instead of a ZIP bundle
//   --dry-run      : List the documents without writing anything
//
// SIDE FILES:
//   Balances and corrections from CSV are merged over the ones in
//   config.yaml; the CSV wins for a key present in both. Correction keys
//   read "{consignor}_{period}_{FROM}_to_{TO}", for example
//   "ABC TRADERS_08-14 January 2024_DELHI_to_MUMBAI".
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/transport-challan-ledger/internal/aggregate"
	"github.com/ginjaninja78/transport-challan-ledger/internal/assemble"
	"github.com/ginjaninja78/transport-challan-ledger/internal/csvparser"
	"github.com/ginjaninja78/transport-challan-ledger/internal/grouping"
	"github.com/ginjaninja78/transport-challan-ledger/internal/normalize"
	"github.com/ginjaninja78/transport-challan-ledger/internal/period"
	"github.com/ginjaninja78/transport-challan-ledger/internal/pipeline"
	"github.com/ginjaninja78/transport-challan-ledger/internal/validation"
)

// Flags of the ledgers command.
var (
	ledgersFile        string
	ledgersVariant     string
	ledgersScheme      string
	ledgersRoutes      string
	ledgersBalances    string
	ledgersCorrections string
	ledgersNoBundle    bool
	ledgersDryRun      bool
)

// ledgersCmd represents the 'ledgers' command.
var ledgersCmd = &cobra.Command{
	Use:   "ledgers",
	Short: "Generate bills, ledgers and workbooks per consignor and period",
	Long: `The ledgers command groups shipment rows by consignor, billing period and
route and renders for each group:

  - A bill: shipment lines, subtotal, old balance and final total
  - A ledger: the same lines and the subtotal only
  - A workbook with "Shipments" and "Summary" sheets

Rows without a readable date, or with a blank origin or destination, cannot
be billed and are dropped (the count is reported).

Periods are ISO weeks by default; --scheme bucket uses 1-7, 8-14, 15-21 and
22 to month end.

Weekly bills total SUBTOTAL + OLD BALANCE; hire appears in the workbook
only. The correction variant (--variant correction) switches to bucket
periods unless a scheme is given, deducts hire, the route constant hamali
and manual corrections, and prints the carry-forward balance.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := ledgerOptions()
		if err != nil {
			return err
		}

		return runGeneration(cmd.Context(), generation{
			command:  "ledgers",
			prefix:   "ledgers",
			required: validation.ShipmentColumns,
			file:     ledgersFile,
			noBundle: ledgersNoBundle,
			dryRun:   ledgersDryRun,
			opts:     opts,
			run:      (*pipeline.Pipeline).Ledgers,
		})
	},
}

func init() {
	rootCmd.AddCommand(ledgersCmd)

	ledgersCmd.Flags().StringVar(&ledgersFile, "file", "", "Path to a single workbook or CSV export to process")
	ledgersCmd.Flags().StringVar(&ledgersVariant, "variant", "", "Bill variant: weekly or correction (overrides ledger.variant)")
	ledgersCmd.Flags().StringVar(&ledgersScheme, "scheme", "", "Billing period scheme: week or bucket (overrides ledger.scheme)")
	ledgersCmd.Flags().StringVar(&ledgersRoutes, "routes", "", "Billed routes: all or delhi_mumbai (overrides ledger.routes)")
	ledgersCmd.Flags().StringVar(&ledgersBalances, "balances", "", "CSV file of consignor,previous_balance")
	ledgersCmd.Flags().StringVar(&ledgersCorrections, "corrections", "", "CSV file of key,deduction,addition")
	ledgersCmd.Flags().BoolVar(&ledgersNoBundle, "no-bundle", false, "Write plain files instead of a ZIP bundle")
	ledgersCmd.Flags().BoolVar(&ledgersDryRun, "dry-run", false, "List the documents without writing output files")
}

// ledgerOptions merges the flags and side files over the configuration.
func ledgerOptions() (pipeline.Options, error) {
	opts := pipelineOptions(mainConfig)

	if ledgersVariant != "" {
		variant, ok := assemble.VariantFor(ledgersVariant)
		if !ok {
			return opts, fmt.Errorf("invalid --variant %q: expected %s or %s", ledgersVariant, assemble.VariantWeekly, assemble.VariantCorrection)
		}
		opts.Variant = variant
		if variant == assemble.VariantCorrection && ledgersScheme == "" {
			opts.Scheme = period.Buckets{}
		}
	}
	if ledgersScheme != "" {
		scheme, err := period.ForName(ledgersScheme)
		if err != nil {
			return opts, err
		}
		opts.Scheme = scheme
	}
	if ledgersRoutes != "" {
		filter, ok := grouping.RouteFilterFor(ledgersRoutes)
		if !ok {
			return opts, fmt.Errorf("invalid --routes %q: expected %s or %s", ledgersRoutes, grouping.RoutesAll, grouping.RoutesDelhiMumbai)
		}
		opts.Routes = filter
	}

	balances := make(map[string]decimal.Decimal, len(opts.PreviousBalances))
	for consignor, v := range opts.PreviousBalances {
		balances[normalize.CleanFreeText(consignor)] = v
	}
	if ledgersBalances != "" {
		rows, err := csvparser.ReadKeyedAmounts(ledgersBalances, csvSettings(mainConfig), 1)
		if err != nil {
			return opts, fmt.Errorf("failed to read balances %s: %w", ledgersBalances, err)
		}
		for _, r := range rows {
			balances[normalize.CleanFreeText(r.Key)] = r.Values[0]
		}
		logger.Info("previous balances loaded", "file", ledgersBalances, "count", len(rows))
	}
	opts.PreviousBalances = balances

	if ledgersCorrections != "" {
		rows, err := csvparser.ReadKeyedAmounts(ledgersCorrections, csvSettings(mainConfig), 2)
		if err != nil {
			return opts, fmt.Errorf("failed to read corrections %s: %w", ledgersCorrections, err)
		}
		if opts.Corrections == nil {
			opts.Corrections = make(map[string]aggregate.Correction, len(rows))
		}
		for _, r := range rows {
			corr := aggregate.Correction{Deduction: r.Values[0], Addition: r.Values[1]}
			if prev, ok := opts.Corrections[r.Key]; ok {
				corr.PreviousBalance = prev.PreviousBalance
			}
			opts.Corrections[r.Key] = corr
		}
		logger.Info("corrections loaded", "file", ledgersCorrections, "count", len(rows))
	}

	return opts, nil
}
