package transfer

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/sheet"
)

// ErrNothingToExport is returned when the record set is empty.
var ErrNothingToExport = eris.New("transfer: no reports to export")

// ExportFormat is an export encoding.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
	ExportPDF  ExportFormat = "pdf"
)

// ParseExportFormat accepts csv, xlsx and pdf; "" means csv.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return ExportCSV, nil
	case ExportCSV, ExportXLSX, ExportPDF:
		return f, nil
	}
	return "", eris.Errorf("transfer: unknown export format %q", s)
}

// FileName returns the download name for f.
func (f ExportFormat) FileName() string {
	return "FilteredReports." + string(f)
}

// ContentType returns the MIME type for f.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ExportPDF:
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// ExportHeader is the fixed column order of an export.
var ExportHeader = []string{"S. No.", "Category", "Date", "Coordinates", "Location", "Description"}

const notAvailable = "N/A"

// ExportRows renders records in ExportHeader order. Dates are YYYY-MM-DD in loc.
func ExportRows(records []model.IncidentRecord, loc *time.Location) [][]string {
	if loc == nil {
		loc = model.DefaultLocation
	}
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		date := notAvailable
		if r.HasDate() {
			date = model.DateOf(r.OccurredAt, loc).String()
		}
		coords := formatFloat(r.Coordinate.Latitude) + ", " + formatFloat(r.Coordinate.Longitude)
		location := r.Location
		if location == "" {
			location = "Unknown"
		}
		desc := r.AdditionalInfo
		if desc == "" {
			desc = notAvailable
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Category.Title(),
			date,
			coords,
			location,
			desc,
		})
	}
	return rows
}

// Export writes records to w in format f.
func Export(w io.Writer, f ExportFormat, records []model.IncidentRecord, opts ExportOptions) error {
	if len(records) == 0 {
		return ErrNothingToExport
	}
	rows := ExportRows(records, opts.Location)
	switch f {
	case ExportCSV:
		return sheet.Write(w, sheet.FormatCSV, ExportHeader, rows)
	case ExportXLSX:
		return sheet.Write(w, sheet.FormatXLSX, ExportHeader, rows)
	case ExportPDF:
		return writePDF(w, records, rows, opts)
	}
	return eris.Errorf("transfer: unknown export format %q", f)
}

// ExportOptions carries presentation details of an export.
type ExportOptions struct {
	Title    string
	Period   string
	Location *time.Location
	// GeneratedAt is printed on PDF summaries; zero means now.
	GeneratedAt time.Time
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
