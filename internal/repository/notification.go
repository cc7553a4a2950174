package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/alxtravel/travel-booking-api/internal/domain"
)

const notificationColumns = `id, job_type, booking_reference, recipient, amount, status,
	attempts, last_attempt, created_at`

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Enqueue inserts a job inside the caller's transaction. A job already
// enqueued for the same (type, booking_reference) is left untouched, which
// keeps redelivered webhooks from producing duplicate emails.
func (r *NotificationRepository) Enqueue(ctx context.Context, tx *sql.Tx, job *domain.NotificationJob) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO notification_jobs (id, job_type, booking_reference, recipient, amount, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (job_type, booking_reference) DO NOTHING`,
		job.ID, job.Type, job.BookingReference, job.Recipient, job.Amount,
		job.Status, job.Attempts, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Enqueue: %w", err)
	}
	return nil
}

func (r *NotificationRepository) GetPending(ctx context.Context, limit int) ([]domain.NotificationJob, error) {
	// FOR UPDATE SKIP LOCKED prevents multiple dispatchers from claiming the same job
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notification_jobs
		WHERE status = $1 ORDER BY created_at LIMIT $2 FOR UPDATE SKIP LOCKED`,
		domain.NotificationStatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("GetPending: %w", err)
	}
	defer rows.Close()

	var jobs []domain.NotificationJob
	for rows.Next() {
		j, err := scanNotificationJob(rows)
		if err != nil {
			return nil, fmt.Errorf("GetPending: scan: %w", err)
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetPending: rows: %w", err)
	}
	return jobs, nil
}

func (r *NotificationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.NotificationStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notification_jobs SET status = $1, attempts = attempts + 1, last_attempt = now()
		WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	return requireRowsAffected(res, "UpdateStatus")
}

func scanNotificationJob(s scanner) (*domain.NotificationJob, error) {
	var j domain.NotificationJob
	err := s.Scan(
		&j.ID, &j.Type, &j.BookingReference, &j.Recipient, &j.Amount,
		&j.Status, &j.Attempts, &j.LastAttempt, &j.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
