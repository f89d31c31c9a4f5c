// Package reconciler runs the periodic background sweeps: expiring
// stale open jobs and charging overdue payment penalties. Every sweep
// is safe to re-run; per-entity failures are logged and skipped so one
// bad row never stalls the rest of the batch.
package reconciler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/corridorworks/corridor-be/internal/domain"
	"github.com/corridorworks/corridor-be/internal/escrow"
	"github.com/corridorworks/corridor-be/internal/events"
	"github.com/corridorworks/corridor-be/internal/storage"
)

// DefaultInterval is how often the sweeps run when no interval is
// configured.
const DefaultInterval = 60 * time.Second

// Reconciler owns the background sweep loop
type Reconciler struct {
	store    storage.EntityStore
	escrow   *escrow.Service
	events   events.Publisher
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
}

// New creates a reconciler sweeping at the given interval. A
// non-positive interval falls back to DefaultInterval.
func New(store storage.EntityStore, escrowSvc *escrow.Service, publisher events.Publisher, logger *slog.Logger, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reconciler{
		store:    store,
		escrow:   escrowSvc,
		events:   publisher,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// Run blocks, sweeping on every tick until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	r.logger.Info("Reconciler started", slog.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Reconciler stopped")
			return
		case <-ticker.C:
			r.SweepOnce(ctx, r.now())
		}
	}
}

// SweepOnce runs both sweeps against a single timestamp and reports how
// many jobs were expired and how many payments were penalised.
func (r *Reconciler) SweepOnce(ctx context.Context, now time.Time) (expired, penalised int) {
	expired = r.expireJobs(ctx, now)
	penalised = r.chargeOverduePayments(ctx, now)

	if expired > 0 || penalised > 0 {
		r.logger.Info("Sweep finished",
			slog.Int("jobs_expired", expired),
			slog.Int("payments_penalised", penalised),
		)
	}
	return expired, penalised
}

// expireJobs moves open jobs past their TTL to expired. The versioned
// update means a job accepted after the listing simply loses the race
// and is skipped.
func (r *Reconciler) expireJobs(ctx context.Context, now time.Time) int {
	jobs, err := r.store.ListExpiredOpenJobs(ctx, now)
	if err != nil {
		r.logger.Error("Failed to list expired jobs", slog.String("error", err.Error()))
		return 0
	}

	expired := 0
	for i := range jobs {
		job := &jobs[i]
		job.Status = domain.JobStatusExpired
		if err := r.store.UpdateJob(ctx, job); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				r.logger.Debug("Job changed under expiry sweep, skipping",
					slog.String("job_id", job.JobID),
				)
				continue
			}
			r.logger.Error("Failed to expire job",
				slog.String("job_id", job.JobID),
				slog.String("error", err.Error()),
			)
			continue
		}

		expired++
		if err := r.events.Publish(ctx, events.JobExpired, job.JobID, job); err != nil {
			r.logger.Warn("Failed to publish event",
				slog.String("event", events.JobExpired),
				slog.String("job_id", job.JobID),
				slog.String("error", err.Error()),
			)
		}
	}
	return expired
}

// chargeOverduePayments applies escrow penalties for every pending
// payment past its deadline.
func (r *Reconciler) chargeOverduePayments(ctx context.Context, now time.Time) int {
	payments, err := r.store.ListOverduePayments(ctx, now)
	if err != nil {
		r.logger.Error("Failed to list overdue payments", slog.String("error", err.Error()))
		return 0
	}

	penalised := 0
	for i := range payments {
		payment := &payments[i]
		penalty, err := r.escrow.ApplyOverduePenalty(ctx, payment, now)
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				r.logger.Debug("Payment changed under penalty sweep, skipping",
					slog.String("payment_id", payment.PaymentID),
				)
				continue
			}
			r.logger.Error("Failed to apply overdue penalty",
				slog.String("payment_id", payment.PaymentID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if penalty > 0 {
			penalised++
		}
	}
	return penalised
}
