package filter

import "github.com/listo-ph/listo/internal/model"

// FilterByExactDate keeps records that occurred on day, compared by (day, month, year)
// in the configured location, and whose category is in categories.
func FilterByExactDate(records []model.IncidentRecord, day model.CalendarDate, categories CategorySet, opts ...Option) Result {
	o := buildOptions(opts)
	return filterDated(records, categories, func(r model.IncidentRecord) bool {
		return model.DateOf(r.OccurredAt, o.loc) == day
	})
}

// FilterByRange keeps records that occurred within rng, inclusive.
func FilterByRange(records []model.IncidentRecord, rng model.DateRange, categories CategorySet, opts ...Option) Result {
	o := buildOptions(opts)
	return filterDated(records, categories, func(r model.IncidentRecord) bool {
		return rng.Contains(model.DateOf(r.OccurredAt, o.loc))
	})
}
