package tms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ginjaninja78/transport-challan-ledger/internal/render"
)

// Report names accepted by Service.Report.
const (
	ReportDailyBooking = "daily-booking"
	ReportDailyChallan = "daily-challan"
	ReportTruck        = "truck"
	ReportRegister     = "register"
	ReportDelivery     = "delivery"
	ReportOutstanding  = "outstanding"
)

// ReportNames lists every report in menu order.
var ReportNames = []string{
	ReportDailyBooking,
	ReportDailyChallan,
	ReportTruck,
	ReportRegister,
	ReportDelivery,
	ReportOutstanding,
}

// Report is a titled set of sheets ready for export.
type Report struct {
	Title  string
	Sheets []render.Sheet
}

// FileName returns the title with spaces as underscores plus ".xlsx".
func (r *Report) FileName() string {
	return strings.ReplaceAll(r.Title, " ", "_") + ".xlsx"
}

// Workbook renders the report as an Excel file.
func (r *Report) Workbook() ([]byte, error) {
	return render.TableWorkbook(r.Sheets...)
}

// Rows counts data rows across every sheet.
func (r *Report) Rows() int {
	n := 0
	for _, s := range r.Sheets {
		n += len(s.Rows)
	}
	return n
}

// ReportParams carries the optional inputs of a report.
type ReportParams struct {
	Day   time.Time
	Truck string
}

var tokenHeaders = []string{"Token No", "Created", "Party", "Marka", "Weight", "Amount", "From", "To", "Status"}

func tokenRows(tokens []Token) [][]any {
	rows := make([][]any, 0, len(tokens))
	for _, t := range tokens {
		rows = append(rows, []any{
			t.TokenNo, t.CreatedAt.Format("02/01/2006 15:04"), t.PartyName, t.Marka,
			t.Weight.InexactFloat64(), t.TotalAmount.InexactFloat64(),
			t.FromCity, t.ToCity, string(t.Status),
		})
	}
	return rows
}

func paymentRows(payments []Payment) [][]any {
	rows := make([][]any, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, []any{p.Date.Format("02/01/2006"), string(p.Method), p.Amount.InexactFloat64(), p.Remark})
	}
	return rows
}

// Report builds the named report.
func (s *Service) Report(ctx context.Context, name string, params ReportParams) (*Report, error) {
	day := dateOnly(params.Day)
	if params.Day.IsZero() {
		day = dateOnly(s.now())
	}

	switch name {
	case ReportDailyBooking:
		tokens, err := s.repo.ListTokens(ctx, TokenFilter{From: &day, To: &day})
		if err != nil {
			return nil, fmt.Errorf("daily booking report: %w", err)
		}
		return &Report{
			Title:  "Daily Booking Report - " + day.Format("02-01-2006"),
			Sheets: []render.Sheet{{Name: "Bookings", Headers: tokenHeaders, Rows: tokenRows(tokens)}},
		}, nil

	case ReportDailyChallan:
		challans, err := s.repo.ListChallans(ctx, ChallanFilter{Day: &day})
		if err != nil {
			return nil, fmt.Errorf("daily challan report: %w", err)
		}
		sheet := render.Sheet{
			Name:    "Challans",
			Headers: []string{"Challan No", "Created", "Truck No", "Driver", "Driver Mobile", "Origin", "Destination"},
		}
		for _, c := range challans {
			sheet.Rows = append(sheet.Rows, []any{
				c.ChallanNo, c.CreatedAt.Format("02/01/2006 15:04"), c.TruckNo,
				c.DriverName, c.DriverMobile, c.Origin, c.Destination,
			})
		}
		return &Report{Title: "Daily Challan Report - " + day.Format("02-01-2006"), Sheets: []render.Sheet{sheet}}, nil

	case ReportTruck:
		truck := strings.TrimSpace(params.Truck)
		consignments, err := s.repo.ListConsignments(ctx, truck)
		if err != nil {
			return nil, fmt.Errorf("truck report: %w", err)
		}
		sheet := render.Sheet{
			Name:    "Consignments",
			Headers: []string{"Challan No", "Truck No", "Token No", "Party", "Weight", "Amount"},
		}
		for _, c := range consignments {
			sheet.Rows = append(sheet.Rows, []any{
				c.ChallanNo, c.TruckNo, c.TokenNo, c.PartyName,
				c.Weight.InexactFloat64(), c.TotalAmount.InexactFloat64(),
			})
		}
		title := "Truck Wise Consignment Report"
		if truck != "" {
			title = "Truck Consignment - " + truck
		}
		return &Report{Title: title, Sheets: []render.Sheet{sheet}}, nil

	case ReportRegister:
		tokens, err := s.repo.ListTokens(ctx, TokenFilter{})
		if err != nil {
			return nil, fmt.Errorf("token register: %w", err)
		}
		return &Report{
			Title:  "Token Bilty Register",
			Sheets: []render.Sheet{{Name: "Register", Headers: tokenHeaders, Rows: tokenRows(tokens)}},
		}, nil

	case ReportDelivery:
		tokens, err := s.repo.ListTokens(ctx, TokenFilter{Status: StatusDelivered})
		if err != nil {
			return nil, fmt.Errorf("delivery report: %w", err)
		}
		sheet := render.Sheet{
			Name:    "Deliveries",
			Headers: []string{"Token No", "Party", "Delivery Date", "Receiver", "Status"},
		}
		for _, t := range tokens {
			delivered := ""
			if t.DeliveryDate != nil {
				delivered = t.DeliveryDate.Format("02/01/2006")
			}
			sheet.Rows = append(sheet.Rows, []any{t.TokenNo, t.PartyName, delivered, t.Receiver, string(t.Status)})
		}
		return &Report{Title: "Delivery Report", Sheets: []render.Sheet{sheet}}, nil

	case ReportOutstanding:
		rows, err := s.OutstandingReport(ctx)
		if err != nil {
			return nil, fmt.Errorf("outstanding report: %w", err)
		}
		sheet := render.Sheet{Name: "Outstanding", Headers: []string{"Party", "Outstanding"}}
		for _, r := range rows {
			sheet.Rows = append(sheet.Rows, []any{r.Party, r.Outstanding.InexactFloat64()})
		}
		return &Report{Title: "Outstanding Payment Report", Sheets: []render.Sheet{sheet}}, nil

	default:
		return nil, fmt.Errorf("%w: unknown report %q", ErrInvalidInput, name)
	}
}

// Report exports the ledger as "Tokens" and "Payments" sheets.
func (l *PartyLedger) Report() *Report {
	return &Report{
		Title: "Party Ledger - " + l.Party.Name,
		Sheets: []render.Sheet{
			{Name: "Tokens", Headers: tokenHeaders, Rows: tokenRows(l.Tokens)},
			{Name: "Payments", Headers: []string{"Date", "Method", "Amount", "Remark"}, Rows: paymentRows(l.Payments)},
		},
	}
}

// Report exports the invoice tokens with a total row.
func (inv *Invoice) Report() *Report {
	rows := tokenRows(inv.Tokens)
	rows = append(rows, []any{"TOTAL", "", "", "", "", inv.Total.InexactFloat64(), "", "", ""})
	return &Report{
		Title:  fmt.Sprintf("invoice %s %s %s", inv.Party.Name, inv.From.Format("2006-01-02"), inv.To.Format("2006-01-02")),
		Sheets: []render.Sheet{{Name: "Invoice", Headers: tokenHeaders, Rows: rows}},
	}
}
