package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alxtravel/travel-booking-api/internal/domain"
	"github.com/alxtravel/travel-booking-api/internal/mailer"
)

// Notifier drains the notification outbox: confirmation emails are enqueued
// transactionally with the payment update and delivered here at least once.
type Notifier struct {
	jobs     notificationRepository
	mailer   mailer.Mailer
	logger   *slog.Logger
	interval time.Duration
}

func NewNotifier(jobs notificationRepository, m mailer.Mailer, logger *slog.Logger, interval time.Duration) *Notifier {
	return &Notifier{jobs: jobs, mailer: m, logger: logger, interval: interval}
}

func (n *Notifier) Start(ctx context.Context) {
	n.logger.Info("notification dispatcher started", "interval", n.interval)

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("notification dispatcher stopped")
			return
		case <-ticker.C:
			n.poll(ctx)
		}
	}
}

func (n *Notifier) poll(ctx context.Context) {
	jobs, err := n.jobs.GetPending(ctx, 10)
	if err != nil {
		n.logger.Error("failed to fetch pending notification jobs", "error", err)
		return
	}

	for _, job := range jobs {
		if err := n.dispatch(ctx, job); err != nil {
			n.logger.Error("failed to dispatch notification",
				"job_id", job.ID,
				"booking_reference", job.BookingReference,
				"error", err,
			)
		}
	}
}

func (n *Notifier) dispatch(ctx context.Context, job domain.NotificationJob) error {
	subject := "Your booking payment is confirmed"
	body := fmt.Sprintf(
		"Payment for booking %s (%s) was received. Thank you for booking with us.",
		job.BookingReference, job.Amount,
	)

	if err := n.mailer.Send(ctx, job.Recipient, subject, body); err != nil {
		if updateErr := n.jobs.UpdateStatus(ctx, job.ID, domain.NotificationStatusFailed); updateErr != nil {
			n.logger.Error("failed to mark notification job failed", "job_id", job.ID, "error", updateErr)
		}
		return fmt.Errorf("dispatch: %w", err)
	}

	if err := n.jobs.UpdateStatus(ctx, job.ID, domain.NotificationStatusSent); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}

	n.logger.Info("confirmation email sent",
		"job_id", job.ID,
		"booking_reference", job.BookingReference,
		"recipient", job.Recipient,
	)
	return nil
}
