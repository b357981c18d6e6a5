package filter

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/listo-ph/listo/internal/model"
)

// Mode selects which single date policy a View applies.
type Mode int

const (
	// ModeAll applies no date policy; only categories restrict.
	ModeAll Mode = iota
	// ModeDay keeps records from one calendar day.
	ModeDay
	// ModeMonth keeps records from one calendar month.
	ModeMonth
	// ModeRange keeps records from an inclusive span of days.
	ModeRange
)

var modeNames = map[Mode]string{
	ModeAll:   "all",
	ModeDay:   "day",
	ModeMonth: "month",
	ModeRange: "range",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode accepts the mode names used on the command line and query strings.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ModeAll, nil
	case "day", "single":
		return ModeDay, nil
	case "month":
		return ModeMonth, nil
	case "range":
		return ModeRange, nil
	}
	return ModeAll, eris.Errorf("filter: unknown mode %q", s)
}

// View is the active selection of a map or report list.
type View struct {
	Mode       Mode
	Date       model.CalendarDate
	Window     model.MonthWindow
	Range      model.DateRange
	Categories CategorySet
}

// Derive applies the view's date policy and categories to records.
func (v View) Derive(records []model.IncidentRecord, opts ...Option) Result {
	switch v.Mode {
	case ModeDay:
		return FilterByExactDate(records, v.Date, v.Categories, opts...)
	case ModeMonth:
		return FilterByMonth(records, v.Window, v.Categories, opts...)
	case ModeRange:
		return FilterByRange(records, v.Range, v.Categories, opts...)
	default:
		return Result{Records: FilterByCategory(records, v.Categories)}
	}
}

// Pages returns the number of pages needed for total records.
func Pages(total, pageSize int) int {
	return model.PageCount(total, pageSize)
}
