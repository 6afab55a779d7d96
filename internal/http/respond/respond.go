// Package respond writes JSON responses and maps typed ledger errors to
// HTTP status codes in one place, so handlers stay free of status logic.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tallyup/tallyup/internal/auth"
	"github.com/tallyup/tallyup/internal/errs"
)

// JSON writes v as a JSON body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Err maps the error to a status code and writes a JSON error body. Internal
// faults are not echoed to the client.
func Err(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	if kind := errs.KindOf(err); kind != errs.KindUnknown {
		body.Kind = kind.String()
	}
	if status == http.StatusInternalServerError {
		slog.Error("internal error", "error", err)
		body.Error = "internal error"
	}
	JSON(w, status, body)
}

func statusFor(err error) int {
	if errors.Is(err, auth.ErrInvalidCredentials) ||
		errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, auth.ErrMissingToken) {
		return http.StatusUnauthorized
	}
	switch errs.KindOf(err) {
	case errs.KindValidation, errs.KindCurrencyMismatch, errs.KindSplitMismatch:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindOverSettlement, errs.KindConflict, errs.KindConcurrentModification:
		return http.StatusConflict
	default:
		// KindUnbalancedLedger lands here on purpose: it signals a bug, not
		// bad input.
		return http.StatusInternalServerError
	}
}
