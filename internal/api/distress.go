package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/listo-ph/listo/internal/auth"
	"github.com/listo-ph/listo/internal/filter"
	"github.com/listo-ph/listo/internal/model"
)

type distressResponse struct {
	Records []model.DistressRecord `json:"records"`
	Page    model.PageState        `json:"page"`
}

// listDistress returns distress calls filtered by ?barangay= and ?q=, paginated.
func (s *Server) listDistress(w http.ResponseWriter, r *http.Request) {
	p, err := parseList(r, s.deps.PageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := s.deps.Distress.List(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	records = s.deps.Distress.Filter(records, q.Get("barangay"), q.Get("q"))
	writeJSON(w, http.StatusOK, distressResponse{
		Records: filter.Paginate(records, p.PageSize, p.Page),
		Page:    model.NewPageState(len(records), p.PageSize, p.Page),
	})
}

func (s *Server) acknowledgeDistress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deps.Distress.Acknowledge(r.Context(), auth.FromContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "acknowledged"})
}
