// =============================================================================
// Transport Challan & Ledger - Party Summary Command
// =============================================================================
//
// This file defines the 'party-summary' command: one row per consignor with
// the summed weight, the highest freight rate and the summed amount, closed
// by a Grand Total row.
//
// COMMAND USAGE:
//   transport party-summary [--file F] [--consignor NAME]
//
// Only CONSIGNOR, WT. Kgs., FREIGHT and AMOUNT are required, so the command
// also accepts trimmed-down exports.
//
// =============================================================================

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/transport-challan-ledger/internal/pipeline"
	"github.com/ginjaninja78/transport-challan-ledger/internal/types"
	"github.com/ginjaninja78/transport-challan-ledger/internal/validation"
)

// Flags of the party-summary command.
var (
	partyFile      string
	partyConsignor string
	partyNoBundle  bool
	partyDryRun    bool
)

// partySummaryCmd represents the 'party-summary' command.
var partySummaryCmd = &cobra.Command{
	Use:   "party-summary",
	Short: "Generate the all-party summary report and workbook",
	Long: `The party-summary command totals every consignor's shipments:

  SUM_WT      sum of WT. Kgs.
  FREIGHT     highest FREIGHT rate
  SUM_AMOUNT  sum of AMOUNT

Rows with a blank consignor are left out. --consignor limits the report to
one party (compared case-insensitively).`,

	RunE: func(cmd *cobra.Command, args []string) error {
		consignor := partyConsignor
		return runGeneration(cmd.Context(), generation{
			command:  "party-summary",
			prefix:   "party_summary",
			required: validation.PartySummaryColumns,
			file:     partyFile,
			noBundle: partyNoBundle,
			dryRun:   partyDryRun,
			opts:     pipelineOptions(mainConfig),
			run: func(p *pipeline.Pipeline, ctx context.Context, records []types.ShipmentRecord) (*pipeline.Result, error) {
				return p.PartySummary(ctx, records, consignor)
			},
		})
	},
}

func init() {
	rootCmd.AddCommand(partySummaryCmd)

	partySummaryCmd.Flags().StringVar(&partyFile, "file", "", "Path to a single workbook or CSV export to process")
	partySummaryCmd.Flags().StringVar(&partyConsignor, "consignor", "", "Limit the summary to one consignor")
	partySummaryCmd.Flags().BoolVar(&partyNoBundle, "no-bundle", false, "Write plain files instead of a ZIP bundle")
	partySummaryCmd.Flags().BoolVar(&partyDryRun, "dry-run", false, "List the documents without writing output files")
}
