package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alxtravel/travel-booking-api/internal/domain"
	"github.com/alxtravel/travel-booking-api/internal/logging"
)

type bookingStore interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, limit, offset int) ([]domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) error
	Delete(ctx context.Context, id int64) error
}

type BookingHandler struct {
	bookings bookingStore
}

func NewBookingHandler(bookings bookingStore) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

type bookingRequest struct {
	ListingID *int64          `json:"listing_id,omitempty"`
	UserEmail string          `json:"user_email"`
	Details   string          `json:"details"`
	Amount    decimal.Decimal `json:"amount"`
}

func (r bookingRequest) validate() string {
	if r.UserEmail == "" {
		return "user_email is required"
	}
	if !r.Amount.IsPositive() {
		return "amount must be greater than zero"
	}
	return ""
}

type bookingDTO struct {
	ID        int64           `json:"id"`
	Reference string          `json:"reference"`
	ListingID *int64          `json:"listing_id,omitempty"`
	UserEmail string          `json:"user_email"`
	Details   string          `json:"details"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toBookingDTO(b *domain.Booking) bookingDTO {
	return bookingDTO{
		ID:        b.ID,
		Reference: b.Reference(),
		ListingID: b.ListingID,
		UserEmail: b.UserEmail,
		Details:   b.Details,
		Amount:    b.Amount,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	bookings, err := h.bookings.List(r.Context(), limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("booking list failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]bookingDTO, 0, len(bookings))
	for i := range bookings {
		dtos = append(dtos, toBookingDTO(&bookings[i]))
	}
	RespondJSON(w, http.StatusOK, dtos)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		RespondError(w, http.StatusNotFound, "Not found", nil)
		return
	}

	b, err := h.bookings.GetByID(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, toBookingDTO(b))
}

// Create persists a booking without touching the payment flow. Use
// POST /initiate-payment/ afterwards to start the payment.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if msg := req.validate(); msg != "" {
		RespondError(w, http.StatusBadRequest, msg, nil)
		return
	}

	b := &domain.Booking{
		ListingID: req.ListingID,
		UserEmail: req.UserEmail,
		Details:   req.Details,
		Amount:    req.Amount,
		Status:    domain.BookingStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.bookings.Create(r.Context(), b); err != nil {
		logging.FromContext(r.Context()).Error("booking creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	b.UpdatedAt = b.CreatedAt
	RespondJSON(w, http.StatusCreated, toBookingDTO(b))
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		RespondError(w, http.StatusNotFound, "Not found", nil)
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if msg := req.validate(); msg != "" {
		RespondError(w, http.StatusBadRequest, msg, nil)
		return
	}

	b, err := h.bookings.GetByID(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	b.ListingID = req.ListingID
	b.UserEmail = req.UserEmail
	b.Details = req.Details
	b.Amount = req.Amount

	if err := h.bookings.Update(r.Context(), b); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, toBookingDTO(b))
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		RespondError(w, http.StatusNotFound, "Not found", nil)
		return
	}

	if err := h.bookings.Delete(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
