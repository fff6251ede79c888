package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", applog.FieldError, err)
	}
}

// writeRawJSON sends pre-serialized JSON, used for cached summaries.
func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeDomainError maps domain errors onto HTTP statuses: missing records
// are 404, validation failures 422, everything else 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("request failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidDate,
		core.ErrInvalidMonth,
		core.ErrInvalidAmount,
		core.ErrInvalidKind,
		core.ErrInvalidFrequency,
		core.ErrInvalidDayOfMonth,
		core.ErrInvalidInstallments,
		core.ErrEmptyDescription,
		core.ErrEmptyCategory,
		core.ErrEmptyOwner,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
