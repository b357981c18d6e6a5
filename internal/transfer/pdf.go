package transfer

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/rotisserie/eris"

	"github.com/listo-ph/listo/internal/model"
)

// pdfColumns are the table widths in mm for ExportHeader on A4 landscape.
var pdfColumns = []float64{14, 28, 24, 48, 70, 93}

func writePDF(w io.Writer, records []model.IncidentRecord, rows [][]string, opts ExportOptions) error {
	title := opts.Title
	if title == "" {
		title = "Crime Report Summary"
	}
	generated := opts.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	loc := opts.Location
	if loc == nil {
		loc = model.DefaultLocation
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 16)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	if opts.Period != "" {
		pdf.Cell(0, 8, tr("Period: "+opts.Period))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, "Generated: "+generated.In(loc).Format("2006-01-02 15:04"))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Total reports: %d", len(records)))
	pdf.Ln(10)

	statusCounts := map[string]int{}
	categoryCounts := map[string]int{}
	for _, r := range records {
		statusCounts[r.Status.String()]++
		categoryCounts[r.Category.Title()]++
	}
	distribution(pdf, "Status distribution", statusCounts)
	distribution(pdf, "Category distribution", categoryCounts)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range ExportHeader {
		pdf.CellFormat(pdfColumns[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 8)
	for _, row := range rows {
		for i, v := range row {
			pdf.CellFormat(pdfColumns[i], 6, tr(truncate(pdf, v, pdfColumns[i]-2)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return eris.Wrap(err, "transfer: write pdf")
	}
	return nil
}

func distribution(pdf *fpdf.Fpdf, heading string, counts map[string]int) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 8, heading)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		pdf.Cell(0, 6, fmt.Sprintf("- %s: %d", k, counts[k]))
		pdf.Ln(6)
	}
	pdf.Ln(4)
}

// truncate shortens s with an ellipsis until it fits width mm in the current font.
func truncate(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
