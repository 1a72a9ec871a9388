// =============================================================================
// Transport Challan & Ledger - Challans Command
// =============================================================================
//
// This file defines the 'challans' command. It produces one challan per
// trip (serial, date, driver, route) and a monthly summary per route.
//
// COMMAND USAGE:
//   transport challans [flags]
//
// FLAGS:
//   --file            : Process a single workbook instead of the input directory
//   --other-expenses  : Amount deducted from every challan balance
//   --no-bundle       : Write plain files instead of a ZIP bundle
//   --dry-run         : List the documents without writing anything
//
// BUNDLE LAYOUT:
//   challans_YYYYMMDD_HHMMSS.zip
//   └── January_2024/
//       └── DELHI_TO_MUMBAI/
//           ├── 20240102__1__RAM__DELHI_to_MUMBAI.pdf
//           └── SUMMARY__DELHI_TO_MUMBAI__January_2024.pdf
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/transport-challan-ledger/internal/pipeline"
	"github.com/ginjaninja78/transport-challan-ledger/internal/validation"
)

// Flags of the challans command.
var (
	challansFile          string
	challansOtherExpenses string
	challansNoBundle      bool
	challansDryRun        bool
)

// challansCmd represents the 'challans' command.
var challansCmd = &cobra.Command{
	Use:   "challans",
	Short: "Generate trip challans and monthly route summaries",
	Long: `The challans command reads every shipment workbook in the input directory
(or the one named with --file), groups the rows into trips and renders:

  - One challan per (S. NO., date, driver, route) with totals, hire,
    loading and unloading hamali, other expenses and the balance
  - One summary per (month, route), sorted by date and paginated

Rows with an unreadable date are kept and filed under Unknown_Month.

On success the documents are written as a ZIP bundle to the output directory
and the inputs are archived. A missing required column aborts the run
before anything is written.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		opts := pipelineOptions(mainConfig)
		if cmd.Flags().Changed("other-expenses") {
			v, err := decimal.NewFromString(challansOtherExpenses)
			if err != nil || v.IsNegative() {
				return fmt.Errorf("invalid --other-expenses %q: expected a non-negative amount", challansOtherExpenses)
			}
			opts.OtherExpenses = v
		}

		return runGeneration(cmd.Context(), generation{
			command:  "challans",
			prefix:   "challans",
			required: validation.ShipmentColumns,
			file:     challansFile,
			noBundle: challansNoBundle,
			dryRun:   challansDryRun,
			opts:     opts,
			run:      (*pipeline.Pipeline).Challans,
		})
	},
}

func init() {
	rootCmd.AddCommand(challansCmd)

	challansCmd.Flags().StringVar(&challansFile, "file", "", "Path to a single workbook or CSV export to process")
	challansCmd.Flags().StringVar(&challansOtherExpenses, "other-expenses", "0", "Amount deducted from every challan balance (overrides other_expenses)")
	challansCmd.Flags().BoolVar(&challansNoBundle, "no-bundle", false, "Write plain files instead of a ZIP bundle")
	challansCmd.Flags().BoolVar(&challansDryRun, "dry-run", false, "List the documents without writing output files")
}
