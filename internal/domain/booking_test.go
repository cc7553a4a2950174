package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingReference(t *testing.T) {
	b := &Booking{ID: 7}
	assert.Equal(t, "BOOK-7", b.Reference())
}

func TestParseBookingReference(t *testing.T) {
	id, err := ParseBookingReference("BOOK-42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestParseBookingReference_Invalid(t *testing.T) {
	cases := []string{"", "BOOK-", "BOOK-abc", "BOOK--1", "BOOK-0", "PAY-7", "7"}
	for _, ref := range cases {
		_, err := ParseBookingReference(ref)
		assert.ErrorIs(t, err, ErrUnknownReference, "ref %q", ref)
	}
}

func TestPaymentStatusIsTerminal(t *testing.T) {
	assert.False(t, PaymentStatusPending.IsTerminal())
	assert.True(t, PaymentStatusCompleted.IsTerminal())
	assert.True(t, PaymentStatusFailed.IsTerminal())
}
