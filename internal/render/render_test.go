package render

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/transport-challan-ledger/internal/assemble"
)

func sampleChallan() assemble.Challan {
	return assemble.Challan{
		FileName:  "20240102__1__RAM__DELHI_to_MUMBAI.pdf",
		From:      "DELHI",
		To:        "MUMBAI",
		Month:     "JANUARY",
		Date:      "02/01/2024",
		ChallanNo: "1",
		TruckNo:   "NA",
		Driver:    "RAM",
		Lines: []assemble.ChallanLine{
			{Consignor: "A & B", Consignee: "XYZ", Weight: "60", Packages: "1", Freight: "100", Amount: "6000"},
		},
		TotalAmount: "6000",
		Hire:        "2000",
		Balance:     "-400",
	}
}

// =============================================================================
// HTML
// =============================================================================

func TestHTMLRendererChallan(t *testing.T) {
	r, err := NewHTMLRenderer("")
	require.NoError(t, err)

	out, err := r.Render(context.Background(), sampleChallan())
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, DefaultCompany)
	assert.Contains(t, html, "DELHI TO MUMBAI - JANUARY")
	assert.Contains(t, html, "A &amp; B", "values are escaped")
	assert.Contains(t, html, "-400")
	assert.Contains(t, html, "<td>1</td>", "line numbers start at 1")
	assert.Equal(t, ".html", r.Extension())
}

func TestHTMLRendererEveryDocument(t *testing.T) {
	r, err := NewHTMLRenderer("ACME ROADWAYS")
	require.NoError(t, err)

	total := assemble.SummaryRow{Date: "TOTAL", Balance: "9200"}
	docs := []Document{
		assemble.RouteSummary{From: "DELHI", To: "MUMBAI", Month: "JANUARY 2024", Pages: []assemble.SummaryPage{
			{Number: 1, Rows: []assemble.SummaryRow{{Date: "01/01/2024"}}},
			{Number: 2, Rows: []assemble.SummaryRow{{Date: "02/01/2024"}}, Total: &total},
		}},
		assemble.Bill{
			LedgerSheet: assemble.LedgerSheet{Consignor: "ABC", Subtotal: "5000"},
			Adjustments: []assemble.Line{{Label: "LESS: HIRE", Value: "1000"}},
			OldBalance:  "1000",
			FinalTotal:  "5000",
		},
		assemble.Ledger{LedgerSheet: assemble.LedgerSheet{Consignor: "ABC", Subtotal: "5000"}},
		assemble.PartySummary{
			Rows:       []assemble.PartyRow{{Consignor: "ABC", SumAmount: "1500"}},
			GrandTotal: assemble.PartyRow{Consignor: assemble.GrandTotalLabel, SumAmount: "1500"},
		},
	}
	for _, doc := range docs {
		t.Run(doc.Template(), func(t *testing.T) {
			out, err := r.Render(context.Background(), doc)
			require.NoError(t, err)
			assert.Contains(t, string(out), "ACME ROADWAYS", "company appears where printed")
		})
	}
}

func TestSummaryTemplatePagesAndTotal(t *testing.T) {
	r, err := NewHTMLRenderer("")
	require.NoError(t, err)

	total := assemble.SummaryRow{Date: "TOTAL", Balance: "9200"}
	out, err := r.Render(context.Background(), assemble.RouteSummary{
		From: "DELHI", To: "MUMBAI", Month: "JANUARY 2024",
		Pages: []assemble.SummaryPage{
			{Number: 1, Rows: []assemble.SummaryRow{{Date: "01/01/2024"}}},
			{Number: 2, Rows: []assemble.SummaryRow{{Date: "02/01/2024"}}, Total: &total},
		},
	})
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "Page 2 of 2")
	assert.Equal(t, 1, strings.Count(html, ">TOTAL<"))
	assert.Contains(t, html, "9200")
}

func TestBillTemplateShowsOldBalanceLedgerDoesNot(t *testing.T) {
	r, err := NewHTMLRenderer("")
	require.NoError(t, err)

	sheet := assemble.LedgerSheet{Consignor: "ABC", Subtotal: "5000"}
	bill, err := r.Render(context.Background(), assemble.Bill{LedgerSheet: sheet, OldBalance: "1000", FinalTotal: "6000"})
	require.NoError(t, err)
	ledger, err := r.Render(context.Background(), assemble.Ledger{LedgerSheet: sheet})
	require.NoError(t, err)

	assert.Contains(t, string(bill), "OLD BALANCE")
	assert.Contains(t, string(bill), "6000")
	assert.NotContains(t, string(ledger), "OLD BALANCE")
	assert.Contains(t, string(ledger), "5000")
}

// =============================================================================
// GOTENBERG
// =============================================================================

func newGotenberg(t *testing.T, status int) (*httptest.Server, *[]byte) {
	t.Helper()
	var received []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/health":
			w.WriteHeader(status)
		case "/forms/chromium/convert/html":
			file, _, err := req.FormFile("files")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			received, _ = io.ReadAll(file)
			if status >= 400 {
				http.Error(w, "chromium crashed", status)
				return
			}
			_, _ = w.Write([]byte("%PDF-1.7 fake"))
		default:
			http.NotFound(w, req)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &received
}

func TestPDFRendererPostsHTML(t *testing.T) {
	srv, received := newGotenberg(t, http.StatusOK)

	r, err := New(FormatPDF, "", srv.URL+"/")
	require.NoError(t, err)

	out, err := r.Render(context.Background(), sampleChallan())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Contains(t, string(*received), "DELHI TO MUMBAI")
	assert.Equal(t, ".pdf", r.Extension())
}

func TestPDFRendererReportsStatus(t *testing.T) {
	srv, _ := newGotenberg(t, http.StatusServiceUnavailable)

	r, err := New(FormatPDF, "", srv.URL)
	require.NoError(t, err)

	_, err = r.Render(context.Background(), sampleChallan())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "chromium crashed")
}

func TestClientPing(t *testing.T) {
	ok, _ := newGotenberg(t, http.StatusOK)
	assert.NoError(t, NewClient(ok.URL).Ping(context.Background()))

	down, _ := newGotenberg(t, http.StatusInternalServerError)
	assert.Error(t, NewClient(down.URL).Ping(context.Background()))
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New("docx", "", "")
	assert.Error(t, err)

	_, err = New(FormatPDF, "", "")
	assert.Error(t, err)

	r, err := New(FormatHTML, "", "")
	require.NoError(t, err)
	assert.Equal(t, "a__b.html", FileName(r, "a__b.pdf"))
}

// =============================================================================
// WORKBOOKS
// =============================================================================

func TestLedgerWorkbook(t *testing.T) {
	data, err := LedgerWorkbook(assemble.LedgerWorkbook{
		Shipments: []assemble.WorkbookShipment{
			{Date: "02/01/2024", Consignee: "XYZ", Weight: 30, Packages: 1, Amount: 3000},
		},
		Summary: assemble.WorkbookSummary{WeekRange: "01 Jan - 07 Jan 2024", Consignor: "ABC", FinalBalance: 6000},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Shipments", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Shipments")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "XYZ", rows[1][1])

	header, err := f.GetCellValue("Summary", "K1")
	require.NoError(t, err)
	assert.Equal(t, "Final Balance", header)
	final, err := f.GetCellValue("Summary", "K2")
	require.NoError(t, err)
	assert.Equal(t, "6000", final)
}

func TestPartySummaryWorkbook(t *testing.T) {
	data, err := PartySummaryWorkbook(assemble.PartySummary{
		Rows:       []assemble.PartyRow{{Consignor: "ABC", Weight: 15, MaxFreight: 150, Amount: 1500}},
		GrandTotal: assemble.PartyRow{Consignor: assemble.GrandTotalLabel, Weight: 15, Amount: 1500},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Party Summary")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"CONSIGNOR", "SUM_WT", "FREIGHT", "SUM_AMOUNT"}, rows[0])
	assert.Equal(t, assemble.GrandTotalLabel, rows[2][0])
}

func TestTableWorkbookNeedsSheet(t *testing.T) {
	_, err := TableWorkbook()
	assert.Error(t, err)
}
