package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tabungan/internal/core"
	applog "tabungan/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response body", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses. Unknown errors are
// reported as 500 without leaking internals to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, core.ErrVersionConflict):
		// The client raced a concurrent update; a retry will see fresh state.
		writeJSON(w, http.StatusConflict, errorResponse{Error: "concurrent update, please retry"})
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidFrequency,
		core.ErrInvalidCategory,
		core.ErrEmptyGoalName,
		core.ErrEmptyOwner,
		core.ErrEmptySource,
		core.ErrGoalCompleted,
		core.ErrTargetBelowSaved,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
