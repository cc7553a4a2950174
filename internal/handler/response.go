package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alxtravel/travel-booking-api/internal/domain"
)

// Failure responses always carry an "error" key; success responses carry a
// "message" key plus endpoint-specific fields.
type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondError(w http.ResponseWriter, status int, message string, details any) {
	RespondJSON(w, status, errorResponse{Error: message, Details: details})
}

func RespondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		RespondError(w, http.StatusNotFound, "Not found", nil)
	case errors.Is(err, domain.ErrUnknownReference):
		RespondError(w, http.StatusBadRequest, "Unknown booking reference", nil)
	case errors.Is(err, domain.ErrDuplicatePayment):
		RespondError(w, http.StatusBadRequest, "Payment already initiated for this reference", nil)
	case errors.Is(err, domain.ErrInvalidAmount):
		RespondError(w, http.StatusBadRequest, "Amount must be greater than zero", nil)
	case errors.Is(err, domain.ErrEmailTaken):
		RespondError(w, http.StatusConflict, "Email already registered", nil)
	case errors.Is(err, domain.ErrInvalidLogin):
		RespondError(w, http.StatusUnauthorized, "Invalid email or password", nil)
	default:
		slog.Error("unhandled domain error", "error", err)
		RespondError(w, http.StatusInternalServerError, err.Error(), nil)
	}
}
