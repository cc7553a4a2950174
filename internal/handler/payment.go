package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/alxtravel/travel-booking-api/internal/domain"
	"github.com/alxtravel/travel-booking-api/internal/gateway"
	"github.com/alxtravel/travel-booking-api/internal/logging"
	"github.com/alxtravel/travel-booking-api/internal/service"
)

type paymentService interface {
	CreateBookingAndPayment(ctx context.Context, req service.CreateBookingRequest) (*service.PaymentInitiation, error)
	InitiatePayment(ctx context.Context, bookingReference string, amount decimal.Decimal) (*service.PaymentInitiation, error)
	VerifyPayment(ctx context.Context, txRef string) (*service.VerifyOutcome, error)
	HandleCallback(ctx context.Context, txRef, reportedStatus string) (domain.PaymentStatus, error)
}

type PaymentHandler struct {
	payments paymentService
}

func NewPaymentHandler(payments paymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type createBookingPaymentRequest struct {
	Email          string          `json:"email"`
	BookingDetails string          `json:"booking_details"`
	Amount         decimal.Decimal `json:"amount"`
	ListingID      *int64          `json:"listing_id,omitempty"`
}

func (h *PaymentHandler) CreateBookingPayment(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req createBookingPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if req.Email == "" || req.BookingDetails == "" || !req.Amount.IsPositive() {
		RespondError(w, http.StatusBadRequest, "email, booking_details, and amount are required.", nil)
		return
	}

	initiation, err := h.payments.CreateBookingAndPayment(r.Context(), service.CreateBookingRequest{
		Email:     req.Email,
		Details:   req.BookingDetails,
		Amount:    req.Amount,
		ListingID: req.ListingID,
	})
	if err != nil {
		log.Warn("booking payment creation failed", "error", err)
		respondGatewayError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, map[string]any{
		"message":        "Booking created and payment initiated",
		"checkout_url":   initiation.CheckoutURL,
		"transaction_id": initiation.TransactionID,
	})
}

type initiatePaymentRequest struct {
	BookingReference string          `json:"booking_reference"`
	Amount           decimal.Decimal `json:"amount"`
}

func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req initiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if req.BookingReference == "" || !req.Amount.IsPositive() {
		RespondError(w, http.StatusBadRequest, "booking_reference and amount are required.", nil)
		return
	}

	initiation, err := h.payments.InitiatePayment(r.Context(), req.BookingReference, req.Amount)
	if err != nil {
		log.Warn("payment initiation failed", "error", err)
		respondGatewayError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, map[string]any{
		"message":        "Payment initiated successfully",
		"transaction_id": initiation.TransactionID,
		"checkout_url":   initiation.CheckoutURL,
	})
}

type verifyResponse struct {
	Message string          `json:"message"`
	Status  string          `json:"status"`
	Details json.RawMessage `json:"details"`
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	txRef := r.PathValue("tx_ref")

	outcome, err := h.payments.VerifyPayment(r.Context(), txRef)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			RespondError(w, http.StatusNotFound, "Payment not found", nil)
			return
		}
		log.Warn("payment verification failed", "tx_ref", txRef, "error", err)
		RespondError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	if outcome.Success {
		RespondJSON(w, http.StatusOK, verifyResponse{
			Message: "Payment verified successfully",
			Status:  string(outcome.Status),
			Details: outcome.Raw,
		})
		return
	}

	RespondJSON(w, http.StatusBadRequest, verifyResponse{
		Message: "Payment verification failed",
		Status:  string(outcome.Status),
		Details: outcome.Raw,
	})
}

type callbackRequest struct {
	TxRef  string `json:"tx_ref"`
	Status string `json:"status"`
}

func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req callbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "Missing tx_ref or status", nil)
		return
	}

	if req.TxRef == "" || req.Status == "" {
		RespondError(w, http.StatusBadRequest, "Missing tx_ref or status", nil)
		return
	}

	status, err := h.payments.HandleCallback(r.Context(), req.TxRef, req.Status)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			RespondError(w, http.StatusNotFound, "Payment not found", nil)
			return
		}
		log.Error("callback handling failed", "tx_ref", req.TxRef, "error", err)
		RespondError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	// Always 200 so the gateway does not retry delivery.
	RespondJSON(w, http.StatusOK, map[string]any{
		"message": "Payment status updated",
		"status":  string(status),
	})
}

// respondGatewayError distinguishes a provider rejection (400 with the
// provider's payload attached) from transport and persistence failures.
func respondGatewayError(w http.ResponseWriter, err error) {
	var rejected *gateway.RejectedError
	if errors.As(err, &rejected) {
		RespondError(w, http.StatusBadRequest, "Failed to initiate payment", json.RawMessage(rejected.Payload))
		return
	}
	RespondDomainError(w, err)
}
