package model

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// MonthWindow selects one calendar month of one year.
type MonthWindow struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// InvalidWindowError reports a window that cannot be navigated.
type InvalidWindowError struct {
	Window MonthWindow
	Reason string
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("model: invalid month window %d-%02d: %s", e.Window.Year, int(e.Window.Month), e.Reason)
}

const (
	minWindowYear = 1
	maxWindowYear = 9999
)

// WindowOf returns the month window containing t as observed in loc.
func WindowOf(t time.Time, loc *time.Location) MonthWindow {
	if loc != nil {
		t = t.In(loc)
	}
	return MonthWindow{Year: t.Year(), Month: t.Month()}
}

// ParseMonthWindow parses a YYYY-MM string.
func ParseMonthWindow(s string) (MonthWindow, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthWindow{}, eris.Wrapf(err, "model: parse month %q", s)
	}
	return MonthWindow{Year: t.Year(), Month: t.Month()}, nil
}

// Validate returns an *InvalidWindowError when w is malformed.
func (w MonthWindow) Validate() error {
	if w.Month < time.January || w.Month > time.December {
		return &InvalidWindowError{Window: w, Reason: "month out of range"}
	}
	if w.Year < minWindowYear || w.Year > maxWindowYear {
		return &InvalidWindowError{Window: w, Reason: "year out of range"}
	}
	return nil
}

// Next returns the following month, rolling December over to January of the next year.
func (w MonthWindow) Next() (MonthWindow, error) {
	if err := w.Validate(); err != nil {
		return MonthWindow{}, err
	}
	next := MonthWindow{Year: w.Year, Month: w.Month + 1}
	if w.Month == time.December {
		next = MonthWindow{Year: w.Year + 1, Month: time.January}
	}
	if err := next.Validate(); err != nil {
		return MonthWindow{}, err
	}
	return next, nil
}

// Prev returns the preceding month, rolling January back to December of the previous year.
func (w MonthWindow) Prev() (MonthWindow, error) {
	if err := w.Validate(); err != nil {
		return MonthWindow{}, err
	}
	prev := MonthWindow{Year: w.Year, Month: w.Month - 1}
	if w.Month == time.January {
		prev = MonthWindow{Year: w.Year - 1, Month: time.December}
	}
	if err := prev.Validate(); err != nil {
		return MonthWindow{}, err
	}
	return prev, nil
}

// Contains reports whether t falls in w as observed in loc. Day of month is ignored.
func (w MonthWindow) Contains(t time.Time, loc *time.Location) bool {
	return WindowOf(t, loc) == w
}

func (w MonthWindow) String() string {
	return fmt.Sprintf("%04d-%02d", w.Year, int(w.Month))
}
