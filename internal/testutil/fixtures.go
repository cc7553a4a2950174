package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alxtravel/travel-booking-api/internal/domain"
)

func SeedListing(t *testing.T, db *sql.DB, title, location string, pricePerNight decimal.Decimal) *domain.Listing {
	t.Helper()

	l := &domain.Listing{
		Title:         title,
		Location:      location,
		PricePerNight: pricePerNight,
		CreatedAt:     time.Now().UTC(),
	}
	err := db.QueryRow(
		`INSERT INTO listings (title, description, location, price_per_night, created_at, updated_at)
		 VALUES ($1, '', $2, $3, $4, $4) RETURNING id`,
		l.Title, l.Location, l.PricePerNight, l.CreatedAt,
	).Scan(&l.ID)
	if err != nil {
		t.Fatalf("seed listing %s: %v", title, err)
	}
	return l
}

func SeedBooking(t *testing.T, db *sql.DB, email string, amount decimal.Decimal, status domain.BookingStatus) *domain.Booking {
	t.Helper()

	b := &domain.Booking{
		UserEmail: email,
		Details:   "Room 4",
		Amount:    amount,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	err := db.QueryRow(
		`INSERT INTO bookings (user_email, details, amount, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`,
		b.UserEmail, b.Details, b.Amount, b.Status, b.CreatedAt,
	).Scan(&b.ID)
	if err != nil {
		t.Fatalf("seed booking for %s: %v", email, err)
	}
	return b
}

func SeedPayment(t *testing.T, db *sql.DB, bookingReference string, amount decimal.Decimal, status domain.PaymentStatus) *domain.Payment {
	t.Helper()

	p := &domain.Payment{
		ID:               uuid.New(),
		BookingReference: bookingReference,
		TransactionID:    bookingReference,
		Amount:           amount,
		Status:           status,
		CreatedAt:        time.Now().UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO payments (id, booking_reference, transaction_id, amount, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		p.ID, p.BookingReference, p.TransactionID, p.Amount, p.Status, p.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed payment %s: %v", bookingReference, err)
	}
	return p
}

func GetPaymentStatus(t *testing.T, db *sql.DB, txRef string) domain.PaymentStatus {
	t.Helper()

	var status domain.PaymentStatus
	err := db.QueryRow(`SELECT status FROM payments WHERE transaction_id = $1`, txRef).Scan(&status)
	if err != nil {
		t.Fatalf("get payment status %s: %v", txRef, err)
	}
	return status
}

func GetBookingStatus(t *testing.T, db *sql.DB, id int64) domain.BookingStatus {
	t.Helper()

	var status domain.BookingStatus
	err := db.QueryRow(`SELECT status FROM bookings WHERE id = $1`, id).Scan(&status)
	if err != nil {
		t.Fatalf("get booking status %d: %v", id, err)
	}
	return status
}

func CountBookings(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM bookings`).Scan(&count); err != nil {
		t.Fatalf("count bookings: %v", err)
	}
	return count
}

func CountPayments(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM payments`).Scan(&count); err != nil {
		t.Fatalf("count payments: %v", err)
	}
	return count
}

func CountNotificationJobs(t *testing.T, db *sql.DB, bookingReference string) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM notification_jobs WHERE booking_reference = $1`, bookingReference,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count notification jobs %s: %v", bookingReference, err)
	}
	return count
}
