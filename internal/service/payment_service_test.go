package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alxtravel/travel-booking-api/internal/domain"
	"github.com/alxtravel/travel-booking-api/internal/gateway"
	"github.com/alxtravel/travel-booking-api/internal/repository"
	"github.com/alxtravel/travel-booking-api/internal/testutil"
)

// gatewayStub plays the provider: initialize and verify answers are
// switchable per test.
type gatewayStub struct {
	srv              *httptest.Server
	rejectInitialize atomic.Bool
	failVerify       atomic.Bool
	verifyCalls      atomic.Int64
}

func newGatewayStub(t *testing.T) *gatewayStub {
	t.Helper()

	stub := &gatewayStub{}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /transaction/initialize", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			TxRef string `json:"tx_ref"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		w.Header().Set("Content-Type", "application/json")
		if stub.rejectInitialize.Load() {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":"failed"}`))
			return
		}
		resp := map[string]any{
			"status": "success",
			"data":   map[string]string{"checkout_url": "https://pay/x", "tx_ref": payload.TxRef},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	mux.HandleFunc("GET /transaction/verify/{tx_ref}", func(w http.ResponseWriter, r *http.Request) {
		stub.verifyCalls.Add(1)

		w.Header().Set("Content-Type", "application/json")
		if stub.failVerify.Load() {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":"failed","message":"not paid"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"success","data":{"status":"success"}}`))
	})

	stub.srv = httptest.NewServer(mux)
	t.Cleanup(stub.srv.Close)
	return stub
}

func setupPaymentService(t *testing.T, db *sql.DB, stub *gatewayStub) *PaymentService {
	t.Helper()

	client := gateway.NewClient(stub.srv.URL, "test-secret", "http://app/payment/callback/")
	return NewPaymentService(
		repository.NewBookingRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewNotificationRepository(db),
		client,
		db,
		"ETB",
	)
}

func TestCreateBookingAndPayment_Success(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	stub := newGatewayStub(t)
	svc := setupPaymentService(t, db, stub)

	initiation, err := svc.CreateBookingAndPayment(ctx, CreateBookingRequest{
		Email:   "a@b.com",
		Details: "Room 4",
		Amount:  decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay/x", initiation.CheckoutURL)
	assert.NotEmpty(t, initiation.TransactionID)

	p, err := repository.NewPaymentRepository(db).GetByTransactionID(ctx, initiation.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, p.Status)
	assert.Equal(t, initiation.TransactionID, p.BookingReference)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(100)))

	bookingID, err := domain.ParseBookingReference(p.BookingReference)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPending, testutil.GetBookingStatus(t, db, bookingID))
}

func TestCreateBookingAndPayment_GatewayRejects(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	stub := newGatewayStub(t)
	svc := setupPaymentService(t, db, stub)

	stub.rejectInitialize.Store(true)

	_, err := svc.CreateBookingAndPayment(ctx, CreateBookingRequest{
		Email:   "a@b.com",
		Details: "Room 4",
		Amount:  decimal.NewFromInt(100),
	})
	require.Error(t, err)

	var rejected *gateway.RejectedError
	require.ErrorAs(t, err, &rejected)

	// compensation removed the provisional booking, and no payment was written
	assert.Equal(t, 0, testutil.CountBookings(t, db))
	assert.Equal(t, 0, testutil.CountPayments(t, db))
}

func TestCreateBookingAndPayment_TransportError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	stub := newGatewayStub(t)
	svc := setupPaymentService(t, db, stub)

	stub.srv.Close()

	_, err := svc.CreateBookingAndPayment(ctx, CreateBookingRequest{
		Email:   "a@b.com",
		Details: "Room 4",
		Amount:  decimal.NewFromInt(100),
	})
	require.Error(t, err)

	assert.Equal(t, 0, testutil.CountBookings(t, db))
	assert.Equal(t, 0, testutil.CountPayments(t, db))
}

func TestInitiatePayment_Success(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	stub := newGatewayStub(t)
	svc := setupPaymentService(t, db, stub)

	booking := testutil.SeedBooking(t, db, "a@b.com", decimal.NewFromInt(250), domain.BookingStatusProvisional)

	initiation, err := svc.InitiatePayment(ctx, booking.Reference(), decimal.NewFromInt(250))
	require.NoError(t, err)
	assert.Equal(t, booking.Reference(), initiation.TransactionID)

	p, err := repository.NewPaymentRepository(db).GetByTransactionID(ctx, booking.Reference())
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, p.Status)

	assert.Equal(t, domain.BookingStatusPending, testutil.GetBookingStatus(t, db, booking.ID))
}

func TestInitiatePayment_UnknownReference(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	stub := newGatewayStub(t)
	svc := setupPaymentService(t, db, stub)

	_, err := svc.InitiatePayment(ctx, "BOOK-9999", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, domain.ErrUnknownReference)

	_, err = svc.InitiatePayment(ctx, "garbage", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, domain.ErrUnknownReference)

	assert.Equal(t, 0, testutil.CountPayments(t, db))
}

func TestInitiatePayment_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	stub := newGatewayStub(t)
	svc := setupPaymentService(t, db, stub)

	booking := testutil.SeedBooking(t, db, "a@b.com", decimal.NewFromInt(250), domain.BookingStatusPending)

	_, err := svc.InitiatePayment(ctx, booking.Reference(), decimal.NewFromInt(250))
	require.NoError(t, err)

	_, err = svc.InitiatePayment(ctx, booking.Reference(), decimal.NewFromInt(250))
	assert.ErrorIs(t, err, domain.ErrDuplicatePayment)
	assert.Equal(t, 1, testutil.CountPayments(t, db))
}

func TestVerifyPayment_Completed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	stub := newGatewayStub(t)
	svc := setupPaymentService(t, db, stub)

	booking := testutil.SeedBooking(t, db, "a@b.com", decimal.NewFromInt(100), domain.BookingStatusPending)
	testutil.SeedPayment(t, db, booking.Reference(), decimal.NewFromInt(100), domain.PaymentStatusPending)

	outcome, err := svc.VerifyPayment(ctx, booking.Reference())
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, domain.PaymentStatusCompleted, outcome.Status)
	assert.NotEmpty(t, outcome.Raw)

	assert.Equal(t, domain.PaymentStatusCompleted, testutil.GetPaymentStatus(t, db, booking.Reference()))
	assert.Equal(t, domain.BookingStatusConfirmed, testutil.GetBookingStatus(t, db, booking.ID))
	assert.Equal(t, 1, testutil.CountNotificationJobs(t, db, booking.Reference()))
}

func TestVerifyPayment_Failed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	stub := newGatewayStub(t)
	svc := setupPaymentService(t, db, stub)

	booking := testutil.SeedBooking(t, db, "a@b.com", decimal.NewFromInt(100), domain.BookingStatusPending)
	testutil.SeedPayment(t, db, booking.Reference(), decimal.NewFromInt(100), domain.PaymentStatusPending)

	stub.failVerify.Store(true)

	outcome, err := svc.VerifyPayment(ctx, booking.Reference())
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, domain.PaymentStatusFailed, outcome.Status)

	assert.Equal(t, domain.PaymentStatusFailed, testutil.GetPaymentStatus(t, db, booking.Reference()))
	assert.Equal(t, 0, testutil.CountNotificationJobs(t, db, booking.Reference()))
}

func TestVerifyPayment_UnknownTxRefSkipsGateway(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	stub := newGatewayStub(t)
	svc := setupPaymentService(t, db, stub)

	_, err := svc.VerifyPayment(ctx, "BOOK-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualValues(t, 0, stub.verifyCalls.Load())
}

func TestHandleCallback_Success(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	stub := newGatewayStub(t)
	svc := setupPaymentService(t, db, stub)

	booking := testutil.SeedBooking(t, db, "a@b.com", decimal.NewFromInt(100), domain.BookingStatusPending)
	testutil.SeedPayment(t, db, booking.Reference(), decimal.NewFromInt(100), domain.PaymentStatusPending)

	status, err := svc.HandleCallback(ctx, booking.Reference(), "success")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, status)

	assert.Equal(t, domain.PaymentStatusCompleted, testutil.GetPaymentStatus(t, db, booking.Reference()))
	assert.Equal(t, domain.BookingStatusConfirmed, testutil.GetBookingStatus(t, db, booking.ID))
	assert.Equal(t, 1, testutil.CountNotificationJobs(t, db, booking.Reference()))

	// redelivered webhook is idempotent: status unchanged, no second job
	status, err = svc.HandleCallback(ctx, booking.Reference(), "success")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, status)
	assert.Equal(t, 1, testutil.CountNotificationJobs(t, db, booking.Reference()))
}

func TestHandleCallback_Failed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	stub := newGatewayStub(t)
	svc := setupPaymentService(t, db, stub)

	booking := testutil.SeedBooking(t, db, "a@b.com", decimal.NewFromInt(100), domain.BookingStatusPending)
	testutil.SeedPayment(t, db, booking.Reference(), decimal.NewFromInt(100), domain.PaymentStatusPending)

	status, err := svc.HandleCallback(ctx, booking.Reference(), "failed")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, status)
	assert.Equal(t, 0, testutil.CountNotificationJobs(t, db, booking.Reference()))
}

func TestHandleCallback_UnknownTxRef(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	stub := newGatewayStub(t)
	svc := setupPaymentService(t, db, stub)

	_, err := svc.HandleCallback(ctx, "BOOK-404", "success")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandleCallback_LateConflictingWebhookIgnored(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	stub := newGatewayStub(t)
	svc := setupPaymentService(t, db, stub)

	booking := testutil.SeedBooking(t, db, "a@b.com", decimal.NewFromInt(100), domain.BookingStatusPending)
	testutil.SeedPayment(t, db, booking.Reference(), decimal.NewFromInt(100), domain.PaymentStatusCompleted)

	status, err := svc.HandleCallback(ctx, booking.Reference(), "failed")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, status)
	assert.Equal(t, domain.PaymentStatusCompleted, testutil.GetPaymentStatus(t, db, booking.Reference()))
}
