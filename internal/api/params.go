package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/listo-ph/listo/internal/filter"
	"github.com/listo-ph/listo/internal/model"
)

// listParams are the query parameters shared by list endpoints.
type listParams struct {
	Spec     filter.Spec
	Page     int
	PageSize int
}

// parseList reads date, month, from/to, category (repeatable or comma separated), status,
// q, page and page_size.
func parseList(r *http.Request, defaultPageSize int) (listParams, error) {
	q := r.URL.Query()
	p := listParams{Page: 1, PageSize: defaultPageSize}

	if v := q.Get("date"); v != "" {
		d, err := model.ParseCalendarDate(v)
		if err != nil {
			return p, badRequest{err}
		}
		p.Spec.Date = &d
	}
	if v := q.Get("month"); v != "" {
		w, err := model.ParseMonthWindow(v)
		if err != nil {
			return p, badRequest{err}
		}
		p.Spec.Window = &w
	}
	from, to := q.Get("from"), q.Get("to")
	if from != "" || to != "" {
		if from == "" || to == "" {
			return p, badRequest{eris.New("api: from and to must be given together")}
		}
		f, err := model.ParseCalendarDate(from)
		if err != nil {
			return p, badRequest{err}
		}
		t, err := model.ParseCalendarDate(to)
		if err != nil {
			return p, badRequest{err}
		}
		if t.Before(f) {
			return p, badRequest{eris.Errorf("api: range ends %s before it starts %s", t, f)}
		}
		p.Spec.Range = &model.DateRange{From: f, To: t}
	}

	p.Spec.Categories = categories(q["category"])

	if v := q.Get("status"); v != "" {
		st, err := model.ParseStatus(v)
		if err != nil {
			return p, badRequest{err}
		}
		p.Spec.Status = &st
	}
	p.Spec.Query = q.Get("q")

	var err error
	if p.Page, err = positiveInt(q.Get("page"), 1); err != nil {
		return p, badRequest{eris.Wrap(err, "api: page")}
	}
	if p.PageSize, err = positiveInt(q.Get("page_size"), defaultPageSize); err != nil {
		return p, badRequest{eris.Wrap(err, "api: page_size")}
	}
	return p, nil
}

func categories(values []string) filter.CategorySet {
	var labels []string
	for _, v := range values {
		for _, l := range strings.Split(v, ",") {
			if l = strings.TrimSpace(l); l != "" {
				labels = append(labels, l)
			}
		}
	}
	if len(labels) == 0 {
		return nil
	}
	return filter.NewCategorySet(labels...)
}

func positiveInt(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, eris.Errorf("must be positive, got %d", n)
	}
	return n, nil
}
