package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alxtravel/travel-booking-api/internal/domain"
	"github.com/alxtravel/travel-booking-api/internal/gateway"
	"github.com/alxtravel/travel-booking-api/internal/logging"
)

// Chapa requires payer names on initialization; bookings only carry an
// email, so these placeholders go on the wire.
const (
	payerFirstName = "Customer"
	payerLastName  = "Name"
)

type PaymentService struct {
	bookings      bookingRepository
	payments      paymentRepository
	notifications notificationRepository
	gateway       gatewayClient
	db            *sql.DB
	currency      string
}

func NewPaymentService(
	bookings bookingRepository,
	payments paymentRepository,
	notifications notificationRepository,
	gw gatewayClient,
	db *sql.DB,
	currency string,
) *PaymentService {
	return &PaymentService{
		bookings:      bookings,
		payments:      payments,
		notifications: notifications,
		gateway:       gw,
		db:            db,
		currency:      currency,
	}
}

type CreateBookingRequest struct {
	Email     string
	Details   string
	Amount    decimal.Decimal
	ListingID *int64
}

type PaymentInitiation struct {
	TransactionID string
	CheckoutURL   string
}

// CreateBookingAndPayment runs the booking-payment saga: a provisional
// booking is persisted first, then the gateway is asked to initialize the
// payment. Success stores a PENDING payment and promotes the booking in one
// transaction; failure compensates by deleting the booking. The delete is
// best effort — a provisional booking left behind by a crash is swept by the
// reaper.
func (s *PaymentService) CreateBookingAndPayment(ctx context.Context, req CreateBookingRequest) (*PaymentInitiation, error) {
	log := logging.FromContext(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("CreateBookingAndPayment: %w", domain.ErrInvalidAmount)
	}

	booking := &domain.Booking{
		ListingID: req.ListingID,
		UserEmail: req.Email,
		Details:   req.Details,
		Amount:    req.Amount,
		Status:    domain.BookingStatusProvisional,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("CreateBookingAndPayment: %w", err)
	}

	txRef := booking.Reference()

	data, err := s.gateway.Initialize(ctx, gateway.InitializeRequest{
		Amount:    req.Amount,
		Currency:  s.currency,
		Email:     req.Email,
		FirstName: payerFirstName,
		LastName:  payerLastName,
		TxRef:     txRef,
	})
	if err != nil {
		s.compensate(ctx, booking.ID)
		return nil, fmt.Errorf("CreateBookingAndPayment: %w", err)
	}

	if err := s.storePendingPayment(ctx, booking.ID, txRef, data.TxRef, req.Amount); err != nil {
		s.compensate(ctx, booking.ID)
		return nil, fmt.Errorf("CreateBookingAndPayment: %w", err)
	}

	log.Info("booking created and payment initiated",
		"booking_id", booking.ID,
		"tx_ref", data.TxRef,
		"amount", req.Amount,
	)

	return &PaymentInitiation{TransactionID: data.TxRef, CheckoutURL: data.CheckoutURL}, nil
}

// InitiatePayment starts a payment for a booking that already exists. No
// compensation: nothing was created before the gateway call.
func (s *PaymentService) InitiatePayment(ctx context.Context, bookingReference string, amount decimal.Decimal) (*PaymentInitiation, error) {
	log := logging.FromContext(ctx)

	if !amount.IsPositive() {
		return nil, fmt.Errorf("InitiatePayment: %w", domain.ErrInvalidAmount)
	}

	bookingID, err := domain.ParseBookingReference(bookingReference)
	if err != nil {
		return nil, fmt.Errorf("InitiatePayment: %w", err)
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("InitiatePayment: %w", domain.ErrUnknownReference)
		}
		return nil, fmt.Errorf("InitiatePayment: %w", err)
	}

	data, err := s.gateway.Initialize(ctx, gateway.InitializeRequest{
		Amount:    amount,
		Currency:  s.currency,
		Email:     booking.UserEmail,
		FirstName: payerFirstName,
		LastName:  payerLastName,
		TxRef:     bookingReference,
	})
	if err != nil {
		return nil, fmt.Errorf("InitiatePayment: %w", err)
	}

	if err := s.storePendingPayment(ctx, booking.ID, bookingReference, data.TxRef, amount); err != nil {
		return nil, fmt.Errorf("InitiatePayment: %w", err)
	}

	log.Info("payment initiated", "booking_reference", bookingReference, "tx_ref", data.TxRef)

	return &PaymentInitiation{TransactionID: data.TxRef, CheckoutURL: data.CheckoutURL}, nil
}

type VerifyOutcome struct {
	Success bool
	Status  domain.PaymentStatus
	Raw     json.RawMessage
}

// VerifyPayment is the synchronous pull alternative to the webhook. The
// payment is looked up before the gateway is contacted, so an unknown tx_ref
// never produces an outbound call.
func (s *PaymentService) VerifyPayment(ctx context.Context, txRef string) (*VerifyOutcome, error) {
	payment, err := s.payments.GetByTransactionID(ctx, txRef)
	if err != nil {
		return nil, fmt.Errorf("VerifyPayment: %w", err)
	}

	result, err := s.gateway.Verify(ctx, txRef)
	if err != nil {
		return nil, fmt.Errorf("VerifyPayment: %w", err)
	}

	newStatus := domain.PaymentStatusFailed
	if result.Success {
		newStatus = domain.PaymentStatusCompleted
	}

	status, err := s.applyStatus(ctx, payment, newStatus)
	if err != nil {
		return nil, fmt.Errorf("VerifyPayment: %w", err)
	}

	return &VerifyOutcome{Success: result.Success, Status: status, Raw: result.Raw}, nil
}

// HandleCallback reconciles an asynchronous status notification from the
// gateway. It returns the payment's resulting status.
func (s *PaymentService) HandleCallback(ctx context.Context, txRef, reportedStatus string) (domain.PaymentStatus, error) {
	payment, err := s.payments.GetByTransactionID(ctx, txRef)
	if err != nil {
		return "", fmt.Errorf("HandleCallback: %w", err)
	}

	newStatus := domain.PaymentStatusFailed
	if reportedStatus == "success" {
		newStatus = domain.PaymentStatusCompleted
	}

	status, err := s.applyStatus(ctx, payment, newStatus)
	if err != nil {
		return "", fmt.Errorf("HandleCallback: %w", err)
	}
	return status, nil
}

func (s *PaymentService) storePendingPayment(ctx context.Context, bookingID int64, bookingReference, txRef string, amount decimal.Decimal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storePendingPayment: begin tx: %w", err)
	}
	defer tx.Rollback()

	payment := &domain.Payment{
		ID:               uuid.New(),
		BookingReference: bookingReference,
		TransactionID:    txRef,
		Amount:           amount,
		Status:           domain.PaymentStatusPending,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.payments.Create(ctx, tx, payment); err != nil {
		return fmt.Errorf("storePendingPayment: %w", err)
	}

	if err := s.bookings.UpdateStatus(ctx, tx, bookingID, domain.BookingStatusPending); err != nil {
		return fmt.Errorf("storePendingPayment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storePendingPayment: commit: %w", err)
	}
	return nil
}

// applyStatus moves a payment to its new status, promoting the booking and
// enqueueing the confirmation email on completion. A payment already in the
// opposite terminal state is left untouched; re-applying the same terminal
// status is a no-op either way.
func (s *PaymentService) applyStatus(ctx context.Context, payment *domain.Payment, newStatus domain.PaymentStatus) (domain.PaymentStatus, error) {
	log := logging.FromContext(ctx)

	if payment.Status.IsTerminal() && payment.Status != newStatus {
		log.Warn("conflicting status update for terminal payment, keeping current status",
			"tx_ref", payment.TransactionID,
			"current", payment.Status,
			"reported", newStatus,
		)
		return payment.Status, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("applyStatus: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.payments.UpdateStatus(ctx, tx, payment.ID, newStatus); err != nil {
		return "", fmt.Errorf("applyStatus: %w", err)
	}

	if newStatus == domain.PaymentStatusCompleted {
		if err := s.confirmBooking(ctx, tx, payment); err != nil {
			return "", fmt.Errorf("applyStatus: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("applyStatus: commit: %w", err)
	}

	log.Info("payment status updated", "tx_ref", payment.TransactionID, "status", newStatus)
	return newStatus, nil
}

func (s *PaymentService) confirmBooking(ctx context.Context, tx *sql.Tx, payment *domain.Payment) error {
	log := logging.FromContext(ctx)

	bookingID, err := domain.ParseBookingReference(payment.BookingReference)
	if err != nil {
		log.Warn("payment has unparseable booking reference, skipping confirmation",
			"booking_reference", payment.BookingReference)
		return nil
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn("booking missing for completed payment, skipping confirmation",
				"booking_reference", payment.BookingReference)
			return nil
		}
		return fmt.Errorf("confirmBooking: %w", err)
	}

	if err := s.bookings.UpdateStatus(ctx, tx, booking.ID, domain.BookingStatusConfirmed); err != nil {
		return fmt.Errorf("confirmBooking: %w", err)
	}

	job := &domain.NotificationJob{
		ID:               uuid.New(),
		Type:             domain.NotificationTypePaymentConfirmation,
		BookingReference: payment.BookingReference,
		Recipient:        booking.UserEmail,
		Amount:           payment.Amount,
		Status:           domain.NotificationStatusPending,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.notifications.Enqueue(ctx, tx, job); err != nil {
		return fmt.Errorf("confirmBooking: %w", err)
	}
	return nil
}

func (s *PaymentService) compensate(ctx context.Context, bookingID int64) {
	log := logging.FromContext(ctx)

	if err := s.bookings.Delete(ctx, bookingID); err != nil {
		// The reaper will sweep the provisional booking later.
		log.Error("booking compensation failed", "booking_id", bookingID, "error", err)
		return
	}
	log.Info("booking rolled back after failed payment initiation", "booking_id", bookingID)
}
