package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const pageWidth = 277.0

// PDFRenderer renders tables on landscape A4 pages.
type PDFRenderer struct{}

// NewPDFRenderer constructs a PDF renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// ContentType implements Renderer.
func (r *PDFRenderer) ContentType() string { return "application/pdf" }

// Extension implements Renderer.
func (r *PDFRenderer) Extension() string { return "pdf" }

// Render draws the title and a bordered table, repeating the header on every page.
func (r *PDFRenderer) Render(table Table) ([]byte, error) {
	if len(table.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	colWidth := pageWidth / float64(len(table.Headers))

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range table.Headers {
			pdf.CellFormat(colWidth, 8, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})

	pdf.AddPage()
	if table.Title != "" {
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 10, table.Title, "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}
	header()
	for _, row := range table.Rows {
		for i := range table.Headers {
			pdf.CellFormat(colWidth, 7, cell(row, i), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
