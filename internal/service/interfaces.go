package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/alxtravel/travel-booking-api/internal/domain"
	"github.com/alxtravel/travel-booking-api/internal/gateway"
)

type bookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status domain.BookingStatus) error
	Delete(ctx context.Context, id int64) error
	DeleteStaleProvisional(ctx context.Context, cutoff time.Time) (int64, error)
}

type paymentRepository interface {
	Create(ctx context.Context, tx *sql.Tx, p *domain.Payment) error
	GetByTransactionID(ctx context.Context, txRef string) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.PaymentStatus) error
}

type notificationRepository interface {
	Enqueue(ctx context.Context, tx *sql.Tx, job *domain.NotificationJob) error
	GetPending(ctx context.Context, limit int) ([]domain.NotificationJob, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.NotificationStatus) error
}

type idempotencyCleaner interface {
	CleanExpired(ctx context.Context) (int64, error)
}

type gatewayClient interface {
	Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeData, error)
	Verify(ctx context.Context, txRef string) (*gateway.VerifyResult, error)
}
