package filter

import (
	"strings"

	"github.com/listo-ph/listo/internal/model"
)

// Search keeps records whose location, category, date of occurrence (YYYY-MM-DD) or
// additional info contain query, ignoring case. An empty query keeps everything.
func Search(records []model.IncidentRecord, query string, opts ...Option) []model.IncidentRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records
	}
	o := buildOptions(opts)

	out := make([]model.IncidentRecord, 0, len(records))
	for _, r := range records {
		if matches(r, q, o) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r model.IncidentRecord, q string, o options) bool {
	if strings.Contains(strings.ToLower(r.Location), q) ||
		strings.Contains(string(r.Category), q) ||
		strings.Contains(strings.ToLower(r.AdditionalInfo), q) {
		return true
	}
	if r.HasDate() && strings.Contains(model.DateOf(r.OccurredAt, o.loc).String(), q) {
		return true
	}
	return false
}
