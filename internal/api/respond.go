package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/listo-ph/listo/internal/auth"
	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/moderation"
	"github.com/listo-ph/listo/internal/store"
	"github.com/listo-ph/listo/internal/transfer"
)

// badRequest marks a client error in query parameters or the request body.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

// fetchError marks a failure to read the incident store.
type fetchError struct{ err error }

func (e fetchError) Error() string { return e.err.Error() }
func (e fetchError) Unwrap() error { return e.err }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: encode response", zap.Error(err))
	}
}

// statusOf maps the error taxonomy to HTTP status codes.
func statusOf(err error) int {
	var (
		br  badRequest
		fe  fetchError
		iwe *model.InvalidWindowError
	)
	switch {
	case errors.As(err, &br), errors.As(err, &iwe),
		errors.Is(err, store.ErrUnknownCollection),
		errors.Is(err, moderation.ErrOutOfBounds),
		errors.Is(err, moderation.ErrInvalidCategory),
		errors.Is(err, model.ErrUnknownStatus):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound), errors.Is(err, transfer.ErrNothingToExport):
		return http.StatusNotFound
	case errors.Is(err, moderation.ErrNotPending):
		return http.StatusConflict
	case errors.As(err, &fe):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
