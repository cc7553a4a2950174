package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

type NotificationType string

const NotificationTypePaymentConfirmation NotificationType = "payment_confirmation"

// NotificationJob is a durable outbox row for an outbound email. Jobs are
// unique per (type, booking reference) so redelivered webhooks cannot
// enqueue the confirmation twice.
type NotificationJob struct {
	ID               uuid.UUID
	Type             NotificationType
	BookingReference string
	Recipient        string
	Amount           decimal.Decimal
	Status           NotificationStatus
	Attempts         int
	LastAttempt      *time.Time
	CreatedAt        time.Time
}
