// =============================================================================
// Transport Challan & Ledger - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Transport Challan & Ledger CLI. It
// delegates command execution to the cmd package.
//
// USAGE:
//   transport challans        - Challans and route summaries
//   transport ledgers         - Bills, ledgers and workbooks per consignor
//   transport party-summary   - All-party summary
//   transport tms ...         - Token workflow against Postgres
//   transport version         - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : Cobra command definitions
//   - internal/      : Grouping, aggregation, rendering and the token store
//   - pkg/utils/     : File discovery, archival, bundles and run logs
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/transport-challan-ledger/cmd"
)

func main() {
	cmd.Execute()
}
