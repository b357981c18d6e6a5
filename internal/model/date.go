package model

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// DefaultLocation is Philippine Standard Time, the zone the service observes calendar days in.
var DefaultLocation = time.FixedZone("PHT", 8*60*60)

// CalendarDate is a day on the calendar with no time-of-day component.
type CalendarDate struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// DateOf returns the calendar day of t as observed in loc.
func DateOf(t time.Time, loc *time.Location) CalendarDate {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// ParseCalendarDate parses a YYYY-MM-DD string.
func ParseCalendarDate(s string) (CalendarDate, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return CalendarDate{}, eris.Wrapf(err, "model: parse date %q", s)
	}
	return DateOf(t, time.UTC), nil
}

// Valid reports whether d names a real day (no normalization needed).
func (d CalendarDate) Valid() bool {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 || d.Year < 1 {
		return false
	}
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	return t.Day() == d.Day && t.Month() == d.Month
}

// Start returns midnight of d in loc.
func (d CalendarDate) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Before reports whether d is strictly earlier than o.
func (d CalendarDate) Before(o CalendarDate) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	From CalendarDate `json:"from"`
	To   CalendarDate `json:"to"`
}

// Contains reports whether day falls within r, inclusive on both ends.
func (r DateRange) Contains(day CalendarDate) bool {
	return !day.Before(r.From) && !r.To.Before(day)
}
