package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/activities-portal/internal/apperror"
)

// writeJSON sends data as JSON with the given status. Headers must be set
// before WriteHeader; after that the body is all we can still write.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps a service error to the status of the page that reports it.
//
//	ErrValidation           → 400
//	ErrUnauthorized         → 401
//	ErrRejected (4xx)       → the backend's status
//	ErrRejected (other)     → 502
//	ErrTransport/Malformed  → 502
func statusFor(err error) int {
	var appErr *apperror.AppError
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrRejected) && errors.As(err, &appErr):
		if appErr.Status >= 400 && appErr.Status < 500 {
			return appErr.Status
		}
		return http.StatusBadGateway
	case errors.Is(err, apperror.ErrTransport), errors.Is(err, apperror.ErrMalformed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleHealth serves GET /healthz.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
