// =============================================================================
// Transport Challan & Ledger - Token Workflow Commands
// =============================================================================
//
// This file defines the 'tms' command tree. It drives the token workflow
// stored in Postgres (pg_dsn or TRANSPORT_PG_DSN):
//
//   transport tms migrate
//   transport tms party add --name NAME [--rate N] ...
//   transport tms party list
//   transport tms token create --party NAME [--weight N --rate-kg N | --rate-parcel N]
//   transport tms token list [--open]
//   transport tms token show TOKEN_NO
//   transport tms challan create --truck NO TOKEN_NO...
//   transport tms challan show CHALLAN_NO
//   transport tms payment add --party NAME --amount N [--method Cash]
//   transport tms deliver TOKEN_NO [--date YYYY-MM-DD] [--receiver NAME]
//   transport tms ledger PARTY [--export]
//   transport tms outstanding
//   transport tms invoice PARTY --from YYYY-MM-DD --to YYYY-MM-DD
//   transport tms report NAME [--day YYYY-MM-DD] [--truck NO]
//
// Workbooks (reports, ledgers, invoices) are written to the output directory.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/transport-challan-ledger/internal/platform/db"
	"github.com/ginjaninja78/transport-challan-ledger/internal/tms"
)

// dateLayout is the date format accepted by every tms flag.
const dateLayout = "2006-01-02"

// =============================================================================
// SHARED HELPERS
// =============================================================================

// withService opens the database, runs fn with a token service and closes
// the pool.
func withService(ctx context.Context, fn func(*tms.Service) error) error {
	if mainConfig.PGDSN == "" {
		return fmt.Errorf("no database configured: set pg_dsn or TRANSPORT_PG_DSN")
	}
	pool, err := db.New(ctx, mainConfig.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(tms.NewService(tms.NewRepository(pool), logger))
}

// parseAmount reads a decimal flag. Empty means zero.
func parseAmount(flag, value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(value), ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s %q: expected a number", flag, value)
	}
	return d, nil
}

// parseDay reads a date flag. Empty means today.
func parseDay(flag, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: expected YYYY-MM-DD", flag, value)
	}
	return t, nil
}

// writeWorkbook writes a report workbook to the output directory.
func writeWorkbook(report *tms.Report) (string, error) {
	data, err := report.Workbook()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(mainConfig.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(mainConfig.OutputDir, report.FileName())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", report.FileName(), err)
	}
	return path, nil
}

func printTokens(tokens []tms.Token) {
	if len(tokens) == 0 {
		fmt.Println("No tokens.")
		return
	}
	fmt.Printf("%-10s %-10s %-24s %10s %12s %-10s\n", "TOKEN", "DATE", "PARTY", "WEIGHT", "AMOUNT", "STATUS")
	for _, t := range tokens {
		fmt.Printf("%-10s %-10s %-24s %10s %12s %-10s\n",
			t.TokenNo, t.CreatedAt.Format("02-01-2006"), t.PartyName,
			t.Weight.String(), t.TotalAmount.StringFixed(2), t.Status)
	}
}

// =============================================================================
// COMMAND TREE
// =============================================================================

var tmsCmd = &cobra.Command{
	Use:   "tms",
	Short: "Token workflow: parties, tokens, challans, payments and deliveries",
	Long: `The tms commands book consignment tokens for parties, load booked tokens
onto truck challans, record payments and deliveries, and report party
balances. Every write runs in a single database transaction.

Token status moves Booked -> Loaded -> Delivered. Only booked tokens can be
loaded onto a challan.`,
}

var tmsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the token workflow tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if mainConfig.PGDSN == "" {
			return fmt.Errorf("no database configured: set pg_dsn or TRANSPORT_PG_DSN")
		}
		pool, err := db.New(cmd.Context(), mainConfig.PGDSN)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := tms.Migrate(cmd.Context(), pool); err != nil {
			return err
		}
		fmt.Println("Schema is up to date.")
		return nil
	},
}

// =============================================================================
// PARTIES
// =============================================================================

var partyInput tms.PartyInput
var partyRate string

var tmsPartyCmd = &cobra.Command{
	Use:   "party",
	Short: "Manage parties",
}

var tmsPartyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a party, or update it when the name exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		rate, err := parseAmount("rate", partyRate)
		if err != nil {
			return err
		}
		in := partyInput
		in.DefaultRate = rate

		return withService(cmd.Context(), func(svc *tms.Service) error {
			p, err := svc.AddParty(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("Party saved: %s (id %d)\n", p.Name, p.ID)
			return nil
		})
	},
}

var tmsPartyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List parties",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(svc *tms.Service) error {
			parties, err := svc.ListParties(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%-5s %-28s %-14s %-16s %10s\n", "ID", "NAME", "MOBILE", "MARKA", "RATE")
			for _, p := range parties {
				fmt.Printf("%-5d %-28s %-14s %-16s %10s\n", p.ID, p.Name, p.Mobile, p.Marka, p.DefaultRate.StringFixed(2))
			}
			return nil
		})
	},
}

// =============================================================================
// TOKENS
// =============================================================================

var tokenInput tms.TokenInput
var (
	tokenWeight     string
	tokenRateKg     string
	tokenRateParcel string
	tokenOpenOnly   bool
)

var tmsTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Book and look up tokens",
}

var tmsTokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Book a token for a party",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := tokenInput
		var err error
		if in.Weight, err = parseAmount("weight", tokenWeight); err != nil {
			return err
		}
		if in.RatePerKg, err = parseAmount("rate-kg", tokenRateKg); err != nil {
			return err
		}
		if in.RatePerParcel, err = parseAmount("rate-parcel", tokenRateParcel); err != nil {
			return err
		}

		return withService(cmd.Context(), func(svc *tms.Service) error {
			t, err := svc.CreateToken(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("Token %s booked, amount %s\n\n", t.TokenNo, t.TotalAmount.StringFixed(2))
			fmt.Println(tms.WhatsAppText(*t))
			return nil
		})
	},
}

var tmsTokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(svc *tms.Service) error {
			tokens, err := svc.ListTokens(cmd.Context(), tokenOpenOnly)
			if err != nil {
				return err
			}
			printTokens(tokens)
			return nil
		})
	},
}

var tmsTokenShowCmd = &cobra.Command{
	Use:   "show TOKEN_NO",
	Short: "Show a token and its WhatsApp message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(svc *tms.Service) error {
			t, err := svc.GetToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Status:   %s\n", t.Status)
			if t.DeliveryDate != nil {
				fmt.Printf("Delivered: %s to %s\n", t.DeliveryDate.Format("02-01-2006"), t.Receiver)
			}
			fmt.Println()
			fmt.Println(tms.WhatsAppText(*t))
			return nil
		})
	},
}

// =============================================================================
// CHALLANS
// =============================================================================

var challanInput tms.ChallanInput

var tmsChallanCmd = &cobra.Command{
	Use:   "challan",
	Short: "Load tokens onto truck challans",
}

var tmsChallanCreateCmd = &cobra.Command{
	Use:   "create TOKEN_NO...",
	Short: "Create a challan loading the given booked tokens",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := challanInput
		in.TokenNos = args

		return withService(cmd.Context(), func(svc *tms.Service) error {
			c, err := svc.CreateChallan(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("Challan %s created for truck %s with %d token(s)\n", c.ChallanNo, c.TruckNo, len(c.Tokens))
			return nil
		})
	},
}

var tmsChallanShowCmd = &cobra.Command{
	Use:   "show CHALLAN_NO",
	Short: "Show a challan and its tokens",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(svc *tms.Service) error {
			c, err := svc.GetChallan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Challan:  %s (%s)\n", c.ChallanNo, c.CreatedAt.Format("02-01-2006"))
			fmt.Printf("Truck:    %s\n", c.TruckNo)
			fmt.Printf("Driver:   %s %s\n", c.DriverName, c.DriverMobile)
			fmt.Printf("Route:    %s -> %s\n\n", c.Origin, c.Destination)
			printTokens(c.Tokens)
			return nil
		})
	},
}

// =============================================================================
// PAYMENTS AND DELIVERIES
// =============================================================================

var (
	paymentParty  string
	paymentAmount string
	paymentMethod string
	paymentDate   string
	paymentRemark string
)

var tmsPaymentCmd = &cobra.Command{
	Use:   "payment",
	Short: "Record party payments",
}

var tmsPaymentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a payment received from a party",
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount("amount", paymentAmount)
		if err != nil {
			return err
		}
		day, err := parseDay("date", paymentDate)
		if err != nil {
			return err
		}
		in := tms.PaymentInput{
			Party:  paymentParty,
			Amount: amount,
			Method: tms.PaymentMethod(paymentMethod),
			Date:   day,
			Remark: paymentRemark,
		}

		return withService(cmd.Context(), func(svc *tms.Service) error {
			p, err := svc.AddPayment(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("Payment of %s (%s) recorded on %s\n", p.Amount.StringFixed(2), p.Method, p.Date.Format("02-01-2006"))
			return nil
		})
	},
}

var (
	deliveryDate     string
	deliveryReceiver string
)

var tmsDeliverCmd = &cobra.Command{
	Use:   "deliver TOKEN_NO",
	Short: "Mark a token delivered",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDay("date", deliveryDate)
		if err != nil {
			return err
		}
		in := tms.DeliveryInput{TokenNo: args[0], Date: day, Receiver: deliveryReceiver}

		return withService(cmd.Context(), func(svc *tms.Service) error {
			t, err := svc.MarkDelivered(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("Token %s delivered on %s\n", t.TokenNo, day.Format("02-01-2006"))
			return nil
		})
	},
}

// =============================================================================
// LEDGERS AND REPORTS
// =============================================================================

var ledgerExport bool

var tmsLedgerCmd = &cobra.Command{
	Use:   "ledger PARTY",
	Short: "Show a party's charges, payments and balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(svc *tms.Service) error {
			l, err := svc.PartyLedger(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTokens(l.Tokens)
			fmt.Println()
			for _, p := range l.Payments {
				fmt.Printf("Payment %s  %-7s %12s\n", p.Date.Format("02-01-2006"), p.Method, p.Amount.StringFixed(2))
			}
			fmt.Printf("\nCharges:  %12s\n", l.TotalCharges.StringFixed(2))
			fmt.Printf("Payments: %12s\n", l.TotalPayments.StringFixed(2))
			fmt.Printf("Balance:  %12s\n", l.Balance.StringFixed(2))

			if ledgerExport {
				path, err := writeWorkbook(l.Report())
				if err != nil {
					return err
				}
				fmt.Printf("\nLedger written to %s\n", path)
			}
			return nil
		})
	},
}

var tmsOutstandingCmd = &cobra.Command{
	Use:   "outstanding",
	Short: "List parties with an outstanding balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(svc *tms.Service) error {
			rows, err := svc.OutstandingReport(cmd.Context())
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("No outstanding balances.")
				return nil
			}
			fmt.Printf("%-28s %14s\n", "PARTY", "OUTSTANDING")
			for _, r := range rows {
				fmt.Printf("%-28s %14s\n", r.Party, r.Outstanding.StringFixed(2))
			}
			return nil
		})
	},
}

var (
	invoiceFrom string
	invoiceTo   string
)

var tmsInvoiceCmd = &cobra.Command{
	Use:   "invoice PARTY",
	Short: "Write an invoice of a party's tokens over a date range",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseDay("from", invoiceFrom)
		if err != nil {
			return err
		}
		to, err := parseDay("to", invoiceTo)
		if err != nil {
			return err
		}

		return withService(cmd.Context(), func(svc *tms.Service) error {
			inv, err := svc.Invoice(cmd.Context(), args[0], from, to)
			if err != nil {
				return err
			}
			path, err := writeWorkbook(inv.Report())
			if err != nil {
				return err
			}
			fmt.Printf("Invoice of %d token(s), total %s, written to %s\n", len(inv.Tokens), inv.Total.StringFixed(2), path)
			return nil
		})
	},
}

var (
	reportDay   string
	reportTruck string
)

var tmsReportCmd = &cobra.Command{
	Use:       "report NAME",
	Short:     "Export a report workbook: " + strings.Join(tms.ReportNames, ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: tms.ReportNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		params := tms.ReportParams{Truck: reportTruck}
		if reportDay != "" {
			day, err := parseDay("day", reportDay)
			if err != nil {
				return err
			}
			params.Day = day
		}

		return withService(cmd.Context(), func(svc *tms.Service) error {
			report, err := svc.Report(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			path, err := writeWorkbook(report)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d row(s) written to %s\n", report.Title, report.Rows(), path)
			return nil
		})
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(tmsCmd)
	tmsCmd.AddCommand(tmsMigrateCmd, tmsPartyCmd, tmsTokenCmd, tmsChallanCmd, tmsPaymentCmd,
		tmsDeliverCmd, tmsLedgerCmd, tmsOutstandingCmd, tmsInvoiceCmd, tmsReportCmd)

	// Parties.
	tmsPartyCmd.AddCommand(tmsPartyAddCmd, tmsPartyListCmd)
	f := tmsPartyAddCmd.Flags()
	f.StringVar(&partyInput.Name, "name", "", "Party name")
	f.StringVar(&partyInput.Address, "address", "", "Address")
	f.StringVar(&partyInput.Mobile, "mobile", "", "Mobile number")
	f.StringVar(&partyInput.GST, "gst", "", "GST number")
	f.StringVar(&partyInput.Marka, "marka", "", "Marka (sign) printed on the party's parcels")
	f.StringVar(&partyRate, "rate", "", "Default rate")

	// Tokens.
	tmsTokenCmd.AddCommand(tmsTokenCreateCmd, tmsTokenListCmd, tmsTokenShowCmd)
	f = tmsTokenCreateCmd.Flags()
	f.StringVar(&tokenInput.Party, "party", "", "Party name")
	f.StringVar(&tokenInput.Marka, "marka", "", "Marka (defaults to the party's)")
	f.StringVar(&tokenWeight, "weight", "", "Weight in kg")
	f.StringVar(&tokenRateKg, "rate-kg", "", "Rate per kg")
	f.StringVar(&tokenRateParcel, "rate-parcel", "", "Rate per parcel, used when weight or rate per kg is missing")
	f.StringVar(&tokenInput.FromCity, "from", "", "Origin city")
	f.StringVar(&tokenInput.ToCity, "to", "", "Destination city")
	f.StringVar(&tokenInput.Remark, "remark", "", "Remark")
	tmsTokenListCmd.Flags().BoolVar(&tokenOpenOnly, "open", false, "Only tokens not yet delivered")

	// Challans.
	tmsChallanCmd.AddCommand(tmsChallanCreateCmd, tmsChallanShowCmd)
	f = tmsChallanCreateCmd.Flags()
	f.StringVar(&challanInput.TruckNo, "truck", "", "Truck number")
	f.StringVar(&challanInput.DriverName, "driver", "", "Driver name")
	f.StringVar(&challanInput.DriverMobile, "driver-mobile", "", "Driver mobile number")
	f.StringVar(&challanInput.Origin, "origin", "", "Origin city")
	f.StringVar(&challanInput.Destination, "destination", "", "Destination city")

	// Payments and deliveries.
	tmsPaymentCmd.AddCommand(tmsPaymentAddCmd)
	f = tmsPaymentAddCmd.Flags()
	f.StringVar(&paymentParty, "party", "", "Party name")
	f.StringVar(&paymentAmount, "amount", "", "Amount received")
	f.StringVar(&paymentMethod, "method", string(tms.MethodCash), "Cash, Bank, UPI or Cheque")
	f.StringVar(&paymentDate, "date", "", "Payment date, YYYY-MM-DD (default today)")
	f.StringVar(&paymentRemark, "remark", "", "Remark")

	tmsDeliverCmd.Flags().StringVar(&deliveryDate, "date", "", "Delivery date, YYYY-MM-DD (default today)")
	tmsDeliverCmd.Flags().StringVar(&deliveryReceiver, "receiver", "", "Name of the person who received the goods")

	// Ledgers and reports.
	tmsLedgerCmd.Flags().BoolVar(&ledgerExport, "export", false, "Also write the ledger workbook")
	tmsInvoiceCmd.Flags().StringVar(&invoiceFrom, "from", "", "First booking date, YYYY-MM-DD")
	tmsInvoiceCmd.Flags().StringVar(&invoiceTo, "to", "", "Last booking date, YYYY-MM-DD")
	tmsInvoiceCmd.MarkFlagRequired("from")
	tmsInvoiceCmd.MarkFlagRequired("to")
	tmsReportCmd.Flags().StringVar(&reportDay, "day", "", "Report day, YYYY-MM-DD (default today)")
	tmsReportCmd.Flags().StringVar(&reportTruck, "truck", "", "Truck number (truck report)")
}
