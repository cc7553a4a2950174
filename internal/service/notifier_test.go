package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alxtravel/travel-booking-api/internal/domain"
	"github.com/alxtravel/travel-booking-api/internal/repository"
	"github.com/alxtravel/travel-booking-api/internal/testutil"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

type recordingMailer struct {
	fail bool
	sent []sentMail
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	if m.fail {
		return assert.AnError
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func enqueueJob(t *testing.T, db *sql.DB, bookingReference, recipient string) uuid.UUID {
	t.Helper()

	repo := repository.NewNotificationRepository(db)
	job := &domain.NotificationJob{
		ID:               uuid.New(),
		Type:             domain.NotificationTypePaymentConfirmation,
		BookingReference: bookingReference,
		Recipient:        recipient,
		Amount:           decimal.NewFromInt(100),
		Status:           domain.NotificationStatusPending,
		CreatedAt:        time.Now().UTC(),
	}

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.Enqueue(context.Background(), tx, job))
	require.NoError(t, tx.Commit())
	return job.ID
}

func jobState(t *testing.T, db *sql.DB, id uuid.UUID) (domain.NotificationStatus, int) {
	t.Helper()

	var status domain.NotificationStatus
	var attempts int
	err := db.QueryRow(`SELECT status, attempts FROM notification_jobs WHERE id = $1`, id).
		Scan(&status, &attempts)
	require.NoError(t, err)
	return status, attempts
}

func TestNotifier_DispatchesPendingJobs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	jobID := enqueueJob(t, db, "BOOK-7", "a@b.com")

	m := &recordingMailer{}
	n := NewNotifier(repository.NewNotificationRepository(db), m, discardLogger(), time.Second)
	n.poll(ctx)

	require.Len(t, m.sent, 1)
	assert.Equal(t, "a@b.com", m.sent[0].to)
	assert.Contains(t, m.sent[0].body, "BOOK-7")

	status, attempts := jobState(t, db, jobID)
	assert.Equal(t, domain.NotificationStatusSent, status)
	assert.Equal(t, 1, attempts)

	// a second poll finds nothing to deliver
	n.poll(ctx)
	assert.Len(t, m.sent, 1)
}

func TestNotifier_MarksJobFailedWhenSendFails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	jobID := enqueueJob(t, db, "BOOK-8", "a@b.com")

	m := &recordingMailer{fail: true}
	n := NewNotifier(repository.NewNotificationRepository(db), m, discardLogger(), time.Second)
	n.poll(ctx)

	status, attempts := jobState(t, db, jobID)
	assert.Equal(t, domain.NotificationStatusFailed, status)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, m.sent)
}

func TestNotificationRepository_EnqueueIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)

	enqueueJob(t, db, "BOOK-9", "a@b.com")
	enqueueJob(t, db, "BOOK-9", "a@b.com")

	assert.Equal(t, 1, testutil.CountNotificationJobs(t, db, "BOOK-9"))
}
