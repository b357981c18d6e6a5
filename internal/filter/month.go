package filter

import "github.com/listo-ph/listo/internal/model"

// FilterByMonth keeps records that occurred in the calendar month of window.
// Day of month is ignored.
func FilterByMonth(records []model.IncidentRecord, window model.MonthWindow, categories CategorySet, opts ...Option) Result {
	o := buildOptions(opts)
	return filterDated(records, categories, func(r model.IncidentRecord) bool {
		return window.Contains(r.OccurredAt, o.loc)
	})
}

// NextMonth returns the month after w.
func NextMonth(w model.MonthWindow) (model.MonthWindow, error) { return w.Next() }

// PrevMonth returns the month before w.
func PrevMonth(w model.MonthWindow) (model.MonthWindow, error) { return w.Prev() }

// Navigator steps a month window forward and back, keeping the last good window when a
// step fails.
type Navigator struct {
	current model.MonthWindow
}

// NewNavigator validates start and returns a navigator positioned on it.
func NewNavigator(start model.MonthWindow) (*Navigator, error) {
	if err := start.Validate(); err != nil {
		return nil, err
	}
	return &Navigator{current: start}, nil
}

// Current returns the active window.
func (n *Navigator) Current() model.MonthWindow { return n.current }

// Forward advances one month. On error the current window is unchanged.
func (n *Navigator) Forward() (model.MonthWindow, error) {
	next, err := n.current.Next()
	if err != nil {
		return n.current, err
	}
	n.current = next
	return next, nil
}

// Back retreats one month. On error the current window is unchanged.
func (n *Navigator) Back() (model.MonthWindow, error) {
	prev, err := n.current.Prev()
	if err != nil {
		return n.current, err
	}
	n.current = prev
	return prev, nil
}
