package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alxtravel/travel-booking-api/internal/repository"
)

type memIdempotencyRepo struct {
	entries map[string]*repository.IdempotencyCacheEntry
}

func newMemIdempotencyRepo() *memIdempotencyRepo {
	return &memIdempotencyRepo{entries: map[string]*repository.IdempotencyCacheEntry{}}
}

func (m *memIdempotencyRepo) Get(_ context.Context, key string) (*repository.IdempotencyCacheEntry, error) {
	return m.entries[key], nil
}

func (m *memIdempotencyRepo) Set(_ context.Context, entry *repository.IdempotencyCacheEntry) error {
	m.entries[entry.Key] = entry
	return nil
}

func TestIdempotency_ReplaysCachedResponse(t *testing.T) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"Payment initiated successfully"}`))
	})
	wrapped := Idempotency(newMemIdempotencyRepo())(next)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/initiate-payment/",
			strings.NewReader(`{"booking_reference":"BOOK-7","amount":250}`))
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, 1, calls)
	assert.Empty(t, first.Header().Get("X-Idempotent-Replayed"))

	second := send()
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, 1, calls, "handler should not run again for a replayed key")
	assert.Equal(t, "true", second.Header().Get("X-Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestIdempotency_ConflictOnReusedKey(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	wrapped := Idempotency(newMemIdempotencyRepo())(next)

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/initiate-payment/", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusCreated, send(`{"booking_reference":"BOOK-7","amount":250}`).Code)

	rec := send(`{"booking_reference":"BOOK-8","amount":100}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"Idempotency key already used with a different request"}`, rec.Body.String())
}

func TestIdempotency_PassThroughWithoutKey(t *testing.T) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})
	wrapped := Idempotency(newMemIdempotencyRepo())(next)

	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/initiate-payment/", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.Equal(t, 2, calls)
}
