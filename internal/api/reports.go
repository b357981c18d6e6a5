package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/listo-ph/listo/internal/auth"
	"github.com/listo-ph/listo/internal/filter"
	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/moderation"
)

func decodeDraft(r *http.Request) (moderation.Draft, error) {
	var d moderation.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		return d, badRequest{eris.Wrap(err, "api: invalid request body")}
	}
	return d, nil
}

// listReports returns the caller's report scope: pending reports for admins, own reports
// for users, filtered and paginated like /incidents.
func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	p, err := parseList(r, s.deps.PageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := s.deps.Moderation.Reports(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.page(filter.Apply(records, p.Spec, filter.WithLocation(s.deps.Location)), p))
}

func (s *Server) submitReport(w http.ResponseWriter, r *http.Request) {
	d, err := decodeDraft(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := s.deps.Moderation.Submit(r.Context(), auth.FromContext(r.Context()), d)
	if err != nil {
		writeError(w, err)
		return
	}
	s.refresh(r.Context(), model.CollectionReports)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) editReport(w http.ResponseWriter, r *http.Request) {
	d, err := decodeDraft(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := s.deps.Moderation.Edit(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"), d)
	if err != nil {
		writeError(w, err)
		return
	}
	s.refresh(r.Context(), model.CollectionReports)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteReport(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Moderation.Delete(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	s.refresh(r.Context(), model.CollectionReports)
	w.WriteHeader(http.StatusNoContent)
}

// reviewReport handles validate, archive and penalize. Validate and archive accept an
// optional draft body that amends the report first.
func (s *Server) reviewReport(action moderation.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := auth.FromContext(r.Context())
		id := chi.URLParam(r, "id")

		var amend *moderation.Draft
		if action != moderation.ActionPenalize && r.ContentLength > 0 {
			d, err := decodeDraft(r)
			if err != nil {
				writeError(w, err)
				return
			}
			amend = &d
		}

		var err error
		switch action {
		case moderation.ActionValidate:
			err = s.deps.Moderation.Validate(r.Context(), sess, id, amend)
		case moderation.ActionArchive:
			err = s.deps.Moderation.Archive(r.Context(), sess, id, amend)
		case moderation.ActionPenalize:
			err = s.deps.Moderation.Penalize(r.Context(), sess, id)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		s.refresh(r.Context(), model.CollectionReports, model.CollectionCrimes, model.CollectionArchives)
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "action": string(action)})
	}
}

func (s *Server) recordCrime(w http.ResponseWriter, r *http.Request) {
	d, err := decodeDraft(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := s.deps.Moderation.Record(r.Context(), auth.FromContext(r.Context()), d)
	if err != nil {
		writeError(w, err)
		return
	}
	s.refresh(r.Context(), model.CollectionCrimes)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) cleanup(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Moderation.Cleanup(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	s.refresh(r.Context(), model.CollectionCrimes)
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
