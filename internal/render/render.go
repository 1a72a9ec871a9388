// =============================================================================
// Transport Challan & Ledger - Document Renderer
// =============================================================================
//
// This package turns assembled field sets into files. Printed documents are
// produced from HTML templates; PDFs are made by posting that HTML to a
// Gotenberg instance. Workbooks are written directly with excelize.
//
// RENDERERS:
//   - HTMLRenderer: executes the template named by the document.
//   - PDFRenderer:  HTMLRenderer output converted by Gotenberg.
//
// Templates receive {Company, Doc}; Doc is the assembled field set.
//
// =============================================================================

package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultCompany is printed at the top of every document.
const DefaultCompany = "NAGPUR BHOPAL TRANSPORT COMPANY"

// Output formats.
const (
	FormatPDF  = "pdf"
	FormatHTML = "html"
)

// Document is an assembled field set that knows its template.
type Document interface {
	Template() string
}

// Renderer turns a document into file bytes.
type Renderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)

	// Extension is the file extension of rendered output, with the dot.
	Extension() string
}

// page is the value every template executes against.
type page struct {
	Company string
	Doc     Document
}

// =============================================================================
// HTML
// =============================================================================

// HTMLRenderer executes the embedded templates.
type HTMLRenderer struct {
	company   string
	templates *template.Template
}

// NewHTMLRenderer parses the embedded templates.
func NewHTMLRenderer(company string) (*HTMLRenderer, error) {
	if strings.TrimSpace(company) == "" {
		company = DefaultCompany
	}
	funcs := template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}
	tmpl, err := template.New("documents").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	return &HTMLRenderer{company: company, templates: tmpl}, nil
}

// Render executes the document's template.
func (r *HTMLRenderer) Render(_ context.Context, doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, doc.Template(), page{Company: r.company, Doc: doc}); err != nil {
		return nil, fmt.Errorf("render: execute %s: %w", doc.Template(), err)
	}
	return buf.Bytes(), nil
}

// Extension returns ".html".
func (r *HTMLRenderer) Extension() string { return ".html" }

// =============================================================================
// PDF
// =============================================================================

// PDFRenderer converts HTMLRenderer output to PDF through Gotenberg.
type PDFRenderer struct {
	html   *HTMLRenderer
	client *Client
}

// NewPDFRenderer pairs an HTML renderer with a Gotenberg client.
func NewPDFRenderer(html *HTMLRenderer, client *Client) *PDFRenderer {
	return &PDFRenderer{html: html, client: client}
}

// Render produces the HTML and converts it.
func (r *PDFRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	html, err := r.html.Render(ctx, doc)
	if err != nil {
		return nil, err
	}
	pdf, err := r.client.RenderHTML(ctx, string(html))
	if err != nil {
		return nil, fmt.Errorf("render: convert %s: %w", doc.Template(), err)
	}
	return pdf, nil
}

// Extension returns ".pdf".
func (r *PDFRenderer) Extension() string { return ".pdf" }

// New builds the renderer for format. The pdf format needs gotenbergURL.
func New(format, company, gotenbergURL string) (Renderer, error) {
	html, err := NewHTMLRenderer(company)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatHTML:
		return html, nil
	case "", FormatPDF:
		if gotenbergURL == "" {
			return nil, fmt.Errorf("render: pdf output needs a gotenberg url")
		}
		return NewPDFRenderer(html, NewClient(gotenbergURL)), nil
	default:
		return nil, fmt.Errorf("render: unknown output format %q", format)
	}
}

// FileName swaps the extension of name for the renderer's.
func FileName(r Renderer, name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name + r.Extension()
}
