package service

import (
	"context"
	"log/slog"
	"time"
)

// Reaper guarantees the saga's compensation: provisional bookings that never
// acquired a payment are deleted once they exceed the configured age, even
// when the in-request delete was lost to a crash. It also purges expired
// idempotency cache entries on the same tick.
type Reaper struct {
	bookings    bookingRepository
	idempotency idempotencyCleaner
	logger      *slog.Logger
	interval    time.Duration
	reapAfter   time.Duration
}

func NewReaper(bookings bookingRepository, idempotency idempotencyCleaner, logger *slog.Logger, interval, reapAfter time.Duration) *Reaper {
	return &Reaper{
		bookings:    bookings,
		idempotency: idempotency,
		logger:      logger,
		interval:    interval,
		reapAfter:   reapAfter,
	}
}

func (r *Reaper) Start(ctx context.Context) {
	r.logger.Info("booking reaper started", "interval", r.interval, "reap_after", r.reapAfter)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("booking reaper stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-r.reapAfter)
	n, err := r.bookings.DeleteStaleProvisional(ctx, cutoff)
	if err != nil {
		r.logger.Error("failed to sweep provisional bookings", "error", err)
	} else if n > 0 {
		r.logger.Info("swept stale provisional bookings", "count", n)
	}

	n, err = r.idempotency.CleanExpired(ctx)
	if err != nil {
		r.logger.Error("failed to clean idempotency cache", "error", err)
	} else if n > 0 {
		r.logger.Info("cleaned expired idempotency entries", "count", n)
	}
}
