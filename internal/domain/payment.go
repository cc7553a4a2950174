package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

type Payment struct {
	ID               uuid.UUID
	BookingReference string
	// TransactionID equals the gateway tx_ref and is the sole key used
	// to reconcile asynchronous status updates.
	TransactionID string
	Amount        decimal.Decimal
	Status        PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
