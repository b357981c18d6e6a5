package filter

import (
	"github.com/listo-ph/listo/internal/model"
)

// Spec is a conjunctive set of criteria. Zero-valued fields do not restrict.
type Spec struct {
	Date       *model.CalendarDate
	Window     *model.MonthWindow
	Range      *model.DateRange
	Categories CategorySet
	Status     *model.Status
	OwnerID    string
	Query      string
}

// HasDateCriterion reports whether any date-based criterion is set.
func (s Spec) HasDateCriterion() bool {
	return s.Date != nil || s.Window != nil || s.Range != nil
}

// Period names the date criterion, or "" when there is none.
func (s Spec) Period() string {
	switch {
	case s.Date != nil:
		return s.Date.String()
	case s.Window != nil:
		return s.Window.String()
	case s.Range != nil:
		return s.Range.From.String() + " to " + s.Range.To.String()
	}
	return ""
}

// Apply returns the records satisfying every criterion in spec, in input order.
// Records without a usable date are reported in Skipped only when a date criterion is set.
func Apply(records []model.IncidentRecord, spec Spec, opts ...Option) Result {
	o := buildOptions(opts)

	out := records
	if spec.Status != nil {
		out = FilterByStatus(out, *spec.Status)
	}
	if spec.OwnerID != "" {
		out = FilterByOwner(out, spec.OwnerID)
	}
	if spec.Query != "" {
		out = Search(out, spec.Query, opts...)
	}

	if !spec.HasDateCriterion() {
		return Result{Records: FilterByCategory(out, spec.Categories)}
	}

	return filterDated(out, spec.Categories, func(r model.IncidentRecord) bool {
		day := model.DateOf(r.OccurredAt, o.loc)
		if spec.Date != nil && day != *spec.Date {
			return false
		}
		if spec.Window != nil && !spec.Window.Contains(r.OccurredAt, o.loc) {
			return false
		}
		if spec.Range != nil && !spec.Range.Contains(day) {
			return false
		}
		return true
	})
}

// FilterByStatus keeps records with the given moderation status.
func FilterByStatus(records []model.IncidentRecord, status model.Status) []model.IncidentRecord {
	out := make([]model.IncidentRecord, 0, len(records))
	for _, r := range records {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// FilterByOwner keeps records submitted by ownerID.
func FilterByOwner(records []model.IncidentRecord, ownerID string) []model.IncidentRecord {
	out := make([]model.IncidentRecord, 0, len(records))
	for _, r := range records {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out
}
