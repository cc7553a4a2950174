package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	// BookingStatusProvisional marks a booking whose payment has not yet
	// been initiated. Provisional bookings with no payment are swept by
	// the reaper after a TTL.
	BookingStatusProvisional BookingStatus = "provisional"
	BookingStatusPending     BookingStatus = "pending"
	BookingStatusConfirmed   BookingStatus = "confirmed"
	BookingStatusCanceled    BookingStatus = "canceled"
)

type Booking struct {
	ID        int64
	ListingID *int64
	UserEmail string
	Details   string
	Amount    decimal.Decimal
	Status    BookingStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reference is the tx_ref correlating this booking to a gateway
// transaction and to a Payment row. Derived, never stored.
func (b *Booking) Reference() string {
	return BookingReference(b.ID)
}

func BookingReference(id int64) string {
	return fmt.Sprintf("BOOK-%d", id)
}

func ParseBookingReference(ref string) (int64, error) {
	raw, found := strings.CutPrefix(ref, "BOOK-")
	if !found {
		return 0, fmt.Errorf("ParseBookingReference: %q: %w", ref, ErrUnknownReference)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("ParseBookingReference: %q: %w", ref, ErrUnknownReference)
	}
	return id, nil
}
