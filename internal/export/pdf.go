package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

var pdfColumnWidths = []float64{60, 60, 40}

// WritePDF writes the report as an A4 table of check-in, check-out and duration.
func WritePDF(w io.Writer, r Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252 covers the accents and the dash
	pdf.SetTitle(ReportTitle, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(ReportTitle), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	if r.Employee != "" {
		pdf.CellFormat(0, 7, tr("Empleado: "+r.Employee), "", 1, "L", false, 0, "")
	}
	if !r.GeneratedAt.IsZero() {
		loc := r.Location
		if loc == nil {
			loc = r.GeneratedAt.Location()
		}
		pdf.CellFormat(0, 7, tr("Generado: "+r.GeneratedAt.In(loc).Format(TimeLayout)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	for i, c := range columns[:len(pdfColumnWidths)] {
		pdf.CellFormat(pdfColumnWidths[i], 8, tr(c), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range r.Rows() {
		for i := range pdfColumnWidths {
			pdf.CellFormat(pdfColumnWidths[i], 7, tr(row[i]), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write: %w", err)
	}
	return nil
}
