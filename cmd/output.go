package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/listo-ph/listo/internal/filter"
	"github.com/listo-ph/listo/internal/model"
)

// Output formats accepted by --format.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func checkOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	}
	return eris.Errorf("unknown output format %q (want table, json or yaml)", format)
}

// encode writes v as indented JSON or YAML.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	}
	return checkOutput(format)
}

// incidentPage is the machine-readable form of one page of incidents.
type incidentPage struct {
	Records []model.IncidentRecord `json:"records" yaml:"records"`
	Page    model.PageState        `json:"page" yaml:"page"`
	Skipped []filter.Skip          `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

func formatIncidents(w io.Writer, page incidentPage, loc *time.Location) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tSTATUS\tLOCATION\tCOORDINATES")
	for _, r := range page.Records {
		date := "-"
		if r.HasDate() {
			date = model.DateOf(r.OccurredAt, loc).String()
		}
		coords := "-"
		if !r.Coordinate.IsZero() {
			coords = fmt.Sprintf("%.6f, %.6f", r.Coordinate.Latitude, r.Coordinate.Longitude)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, date, r.Category.Title(), r.Status, truncate(r.Location, 40), coords)
	}
	tw.Flush() //nolint:errcheck

	p := page.Page
	fmt.Fprintf(w, "\nPage %d of %d (%d records)\n", p.Page, p.TotalPages, p.TotalRecords)
	if n := len(page.Skipped); n > 0 {
		fmt.Fprintf(w, "%d records skipped (unparsable date)\n", n)
	}
}

// distressPage is the machine-readable form of one page of distress signals.
type distressPage struct {
	Records []model.DistressRecord `json:"records" yaml:"records"`
	Page    model.PageState        `json:"page" yaml:"page"`
}

func formatDistress(w io.Writer, page distressPage, loc *time.Location) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tBARANGAY\tTYPE\tACK\tADDRESS")
	for _, d := range page.Records {
		ts := "-"
		if !d.Timestamp.IsZero() {
			ts = d.Timestamp.In(loc).Format("2006-01-02 15:04")
		}
		ack := "no"
		if d.Acknowledged {
			ack = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, ts, d.BarangayName(), emergencyLabel(d.EmergencyType), ack, truncate(d.Address, 50))
	}
	tw.Flush() //nolint:errcheck

	p := page.Page
	fmt.Fprintf(w, "\nPage %d of %d (%d signals)\n", p.Page, p.TotalPages, p.TotalRecords)
}

func emergencyLabel(t model.EmergencyType) string {
	var parts []string
	if t.Fire {
		parts = append(parts, "fire")
	}
	if t.Crime {
		parts = append(parts, "crime")
	}
	if t.Injury {
		parts = append(parts, "injury")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
