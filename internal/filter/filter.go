// Package filter derives filtered, paginated views over an incident snapshot.
//
// Every function here is pure: inputs are never mutated and output order follows input order.
// Records whose date of occurrence is missing are left out of date-based filters and reported
// in Result.Skipped rather than failing the whole filter.
package filter

import (
	"time"

	"github.com/listo-ph/listo/internal/model"
)

// DefaultLocation is the zone in which calendar days and months are observed.
var DefaultLocation = model.DefaultLocation

// Reason explains why a record was left out of a result.
type Reason string

// ReasonUnparsableDate marks a record whose date of occurrence could not be used.
const ReasonUnparsableDate Reason = "unparsable_date"

// Skip identifies a record omitted from a result.
type Skip struct {
	ID     string `json:"id"`
	Reason Reason `json:"reason"`
}

// Result is the output of a date-based filter.
type Result struct {
	Records []model.IncidentRecord `json:"records"`
	Skipped []Skip                 `json:"skipped,omitempty"`
}

// Option configures date-based filters.
type Option func(*options)

type options struct {
	loc *time.Location
}

// WithLocation sets the zone used to derive calendar days and months.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{loc: DefaultLocation}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// CategorySet restricts results to a set of normalized categories. The empty set allows all.
type CategorySet map[model.Category]struct{}

// NewCategorySet normalizes each label with model.ParseCategory.
func NewCategorySet(labels ...string) CategorySet {
	s := make(CategorySet, len(labels))
	for _, l := range labels {
		s[model.ParseCategory(l)] = struct{}{}
	}
	return s
}

// CategorySetOf builds a set from already-normalized categories.
func CategorySetOf(cats ...model.Category) CategorySet {
	s := make(CategorySet, len(cats))
	for _, c := range cats {
		s[c] = struct{}{}
	}
	return s
}

// Allows reports whether c passes the set.
func (s CategorySet) Allows(c model.Category) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[c]
	return ok
}

// FilterByCategory keeps records whose category is in set.
func FilterByCategory(records []model.IncidentRecord, set CategorySet) []model.IncidentRecord {
	out := make([]model.IncidentRecord, 0, len(records))
	for _, r := range records {
		if set.Allows(r.Category) {
			out = append(out, r)
		}
	}
	return out
}

// filterDated applies keep to every record with a usable date and reports the rest as skipped.
func filterDated(records []model.IncidentRecord, categories CategorySet, keep func(model.IncidentRecord) bool) Result {
	res := Result{Records: make([]model.IncidentRecord, 0, len(records))}
	for _, r := range records {
		if !r.HasDate() {
			res.Skipped = append(res.Skipped, Skip{ID: r.ID, Reason: ReasonUnparsableDate})
			continue
		}
		if !keep(r) || !categories.Allows(r.Category) {
			continue
		}
		res.Records = append(res.Records, r)
	}
	return res
}
