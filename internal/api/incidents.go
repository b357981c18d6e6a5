package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/listo-ph/listo/internal/auth"
	"github.com/listo-ph/listo/internal/filter"
	"github.com/listo-ph/listo/internal/mapview"
	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/transfer"
)

type listResponse struct {
	Records []model.IncidentRecord `json:"records"`
	Page    model.PageState        `json:"page"`
	Skipped []filter.Skip          `json:"skipped,omitempty"`
}

func (s *Server) page(res filter.Result, p listParams) listResponse {
	return listResponse{
		Records: filter.Paginate(res.Records, p.PageSize, p.Page),
		Page:    model.NewPageState(len(res.Records), p.PageSize, p.Page),
		Skipped: res.Skipped,
	}
}

// filtered reads the snapshot of collection and applies the request's criteria.
// Crimes are public; reports and archives are admin only.
func (s *Server) filtered(r *http.Request, collection string) (filter.Result, listParams, error) {
	p, err := parseList(r, s.deps.PageSize)
	if err != nil {
		return filter.Result{}, p, err
	}
	if collection != model.CollectionCrimes {
		if err := auth.FromContext(r.Context()).Require(auth.Admin); err != nil {
			return filter.Result{}, p, err
		}
	}
	records, err := s.records(r.Context(), collection)
	if err != nil {
		return filter.Result{}, p, err
	}
	return filter.Apply(records, p.Spec, filter.WithLocation(s.deps.Location)), p, nil
}

func collectionParam(r *http.Request) string {
	if c := r.URL.Query().Get("collection"); c != "" {
		return c
	}
	return model.CollectionCrimes
}

func (s *Server) listIncidents(w http.ResponseWriter, r *http.Request) {
	res, p, err := s.filtered(r, collectionParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.page(res, p))
}

// stepMonth returns the month after or before ?month=YYYY-MM (step=next|prev).
func (s *Server) stepMonth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	win, err := model.ParseMonthWindow(q.Get("month"))
	if err != nil {
		writeError(w, badRequest{err})
		return
	}
	var next model.MonthWindow
	switch q.Get("step") {
	case "next", "":
		next, err = filter.NextMonth(win)
	case "prev":
		next, err = filter.PrevMonth(win)
	default:
		err = badRequest{eris.Errorf("api: unknown step %q", q.Get("step"))}
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"month": next.String(), "window": next})
}

func (s *Server) markers(w http.ResponseWriter, r *http.Request) {
	res, _, err := s.filtered(r, collectionParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	b, err := mapview.MarkersGeoJSON(mapview.Markers(res.Records, nil, s.deps.Location))
	if err != nil {
		writeError(w, err)
		return
	}
	writeGeoJSON(w, b)
}

func (s *Server) heatmap(w http.ResponseWriter, r *http.Request) {
	res, _, err := s.filtered(r, collectionParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	cell := mapview.DefaultCellSize
	if v := r.URL.Query().Get("cell"); v != "" {
		if cell, err = strconv.ParseFloat(v, 64); err != nil || cell <= 0 {
			writeError(w, badRequest{eris.Errorf("api: invalid cell size %q", v)})
			return
		}
	}
	b, err := mapview.BuildHeatmap(res.Records, nil, cell).GeoJSON()
	if err != nil {
		writeError(w, err)
		return
	}
	writeGeoJSON(w, b)
}

func writeGeoJSON(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// export streams the filtered crimes as CSV, XLSX or a PDF summary. Admin only.
func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	if err := auth.FromContext(r.Context()).Require(auth.Admin); err != nil {
		writeError(w, err)
		return
	}
	format, err := transfer.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, badRequest{err})
		return
	}
	res, p, err := s.filtered(r, collectionParam(r))
	if err != nil {
		writeError(w, err)
		return
	}

	opts := transfer.ExportOptions{Location: s.deps.Location, Period: p.Spec.Period()}
	var buf bytes.Buffer
	if err := transfer.Export(&buf, format, res.Records, opts); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.FileName()+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
