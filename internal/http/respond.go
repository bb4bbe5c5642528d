package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"dompet/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Deficit *int64 `json:"deficit,omitempty"`
}

// writeError maps domain errors to HTTP statuses. A budget deficit is a 409
// carrying the shortfall so the client can offer the overage / source-
// category choices.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var deficit *core.DeficitError
	if errors.As(err, &deficit) {
		writeJSON(w, http.StatusConflict, errorBody{
			Error:   deficit.Error(),
			Deficit: &deficit.Shortfall.Cents,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrWalletNotFound),
		errors.Is(err, core.ErrCategoryNotFound),
		errors.Is(err, core.ErrTransactionNotFound),
		errors.Is(err, core.ErrFuelLogNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInsufficientBudget),
		errors.Is(err, core.ErrCategoryInUse),
		errors.Is(err, core.ErrStaleSnapshot):
		status = http.StatusConflict
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrMissingDate),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrDescriptionTooLong),
		errors.Is(err, core.ErrInvalidWalletKind),
		errors.Is(err, core.ErrInvalidCategoryType),
		errors.Is(err, core.ErrInvalidTransaction),
		errors.Is(err, core.ErrInvalidOdometer):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "url", r.URL.Path, "error", err)
		writeJSON(w, status, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}
