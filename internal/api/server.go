// Package api exposes the filtering pipeline, map layers, exports, moderation and the
// distress list over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/listo-ph/listo/internal/auth"
	"github.com/listo-ph/listo/internal/distress"
	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/moderation"
	"github.com/listo-ph/listo/internal/monitoring"
	"github.com/listo-ph/listo/internal/snapshot"
	"github.com/listo-ph/listo/internal/store"
)

// Deps are the collaborators a Server is built from.
type Deps struct {
	Store      store.Store
	Moderation *moderation.Service
	Distress   *distress.Service
	Verifier   *auth.Verifier
	// Stats backs GET /stats; nil disables the route.
	Stats      *monitoring.Collector

	PageSize      int
	LookbackHours int
	Location      *time.Location
	SnapshotTTL   time.Duration
	CORSOrigins   []string
}

// Server holds one snapshot per incident collection and serves the API routes.
type Server struct {
	deps      Deps
	snapshots map[string]*snapshot.Holder
}

// New returns a Server. Zero PageSize and Location take the model defaults.
func New(deps Deps) *Server {
	if deps.PageSize < 1 {
		deps.PageSize = model.DefaultPageSize
	}
	if deps.Location == nil {
		deps.Location = model.DefaultLocation
	}
	if deps.LookbackHours < 1 {
		deps.LookbackHours = 24
	}
	s := &Server{deps: deps, snapshots: map[string]*snapshot.Holder{}}
	for _, c := range []string{model.CollectionCrimes, model.CollectionReports, model.CollectionArchives} {
		s.snapshots[c] = snapshot.New(deps.Store, c)
	}
	return s
}

// Handler returns the routed handler with logging, recovery, CORS and session middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.deps.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.withSession)

	r.Get("/health", s.health)

	r.Get("/incidents", s.listIncidents)
	r.Get("/months", s.stepMonth)
	r.Get("/map/markers", s.markers)
	r.Get("/map/heatmap", s.heatmap)
	r.Get("/export", s.export)

	r.Route("/reports", func(r chi.Router) {
		r.Get("/", s.listReports)
		r.Post("/", s.submitReport)
		r.Put("/{id}", s.editReport)
		r.Delete("/{id}", s.deleteReport)
		r.Post("/{id}/validate", s.reviewReport(moderation.ActionValidate))
		r.Post("/{id}/archive", s.reviewReport(moderation.ActionArchive))
		r.Post("/{id}/penalize", s.reviewReport(moderation.ActionPenalize))
	})
	r.Post("/crimes", s.recordCrime)
	r.Post("/cleanup", s.cleanup)

	r.Get("/distress", s.listDistress)
	r.Post("/distress/{id}/acknowledge", s.acknowledgeDistress)

	if s.deps.Stats != nil {
		r.Get("/stats", s.stats)
	}
	return r
}

// withSession resolves the bearer token once per request. A request without a token is a
// guest; a request with a bad token is rejected.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r.Header.Get("Authorization"))
		if token == "" || s.deps.Verifier == nil {
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), auth.GuestSession)))
			return
		}
		sess, err := s.deps.Verifier.Verify(token)
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.deps.Store.Ping(r.Context()); err != nil {
		zap.L().Warn("health: store ping failed", zap.Error(err))
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status})
}

// stats reports the moderation backlog and distress queue. Admin only.
func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	if err := auth.FromContext(r.Context()).Require(auth.Admin); err != nil {
		writeError(w, err)
		return
	}
	snap, err := s.deps.Stats.Collect(r.Context(), s.deps.LookbackHours)
	if err != nil {
		writeError(w, fetchError{err})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// records returns the current snapshot of collection, fetching when stale.
func (s *Server) records(ctx context.Context, collection string) ([]model.IncidentRecord, error) {
	h, ok := s.snapshots[collection]
	if !ok {
		return nil, store.CheckCollection(collection)
	}
	snap, err := h.Get(ctx, s.deps.SnapshotTTL)
	if err != nil {
		return nil, fetchError{err}
	}
	return snap.Records, nil
}

// refresh replaces the snapshots of collections after a write. Failures keep the old
// snapshot and are only logged; the next read retries.
func (s *Server) refresh(ctx context.Context, collections ...string) {
	for _, c := range collections {
		h, ok := s.snapshots[c]
		if !ok {
			continue
		}
		if _, err := h.Refresh(ctx); err != nil {
			zap.L().Warn("api: snapshot refresh after write failed", zap.String("collection", c), zap.Error(err))
		}
	}
}
