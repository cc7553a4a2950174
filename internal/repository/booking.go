package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alxtravel/travel-booking-api/internal/domain"
)

const bookingColumns = `id, listing_id, user_email, details, amount, status, created_at, updated_at`

type BookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO bookings (listing_id, user_email, details, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
		b.ListingID, b.UserEmail, b.Details, b.Amount, b.Status, b.CreatedAt,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id,
	)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return b, nil
}

func (r *BookingRepository) List(ctx context.Context, limit, offset int) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return bookings, nil
}

func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET listing_id = $1, user_email = $2, details = $3, amount = $4, updated_at = now()
		WHERE id = $5`,
		b.ListingID, b.UserEmail, b.Details, b.Amount, b.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return requireRowsAffected(res, "Update")
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status domain.BookingStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	return requireRowsAffected(res, "UpdateStatus")
}

func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return requireRowsAffected(res, "Delete")
}

// DeleteStaleProvisional removes provisional bookings older than cutoff that
// never acquired a payment. It is the durable backstop for the saga's
// best-effort compensation.
func (r *BookingRepository) DeleteStaleProvisional(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM bookings b
		WHERE b.status = $1 AND b.created_at < $2
		AND NOT EXISTS (
			SELECT 1 FROM payments p WHERE p.booking_reference = 'BOOK-' || b.id
		)`,
		domain.BookingStatusProvisional, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("DeleteStaleProvisional: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteStaleProvisional: rows affected: %w", err)
	}
	return n, nil
}

func scanBooking(s scanner) (*domain.Booking, error) {
	var b domain.Booking
	var listingID sql.NullInt64
	err := s.Scan(
		&b.ID, &listingID, &b.UserEmail, &b.Details, &b.Amount, &b.Status,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if listingID.Valid {
		b.ListingID = &listingID.Int64
	}
	return &b, nil
}
