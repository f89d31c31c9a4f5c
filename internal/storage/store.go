// Package storage provides the durable entity store shared by the
// interactive handlers and the reconciliation sweeps. Every update is a
// compare-and-swap on the record version: a transition commits only if
// the record has not changed since it was read, and losers get
// domain.ErrConflict rather than a retry.
package storage

import (
	"context"
	"time"

	"github.com/corridorworks/corridor-be/internal/domain"
)

// EntityStore is the versioned record store for User, Job, Payment and
// Dispute. Update methods compare the entity's Version against the stored
// one; on success the stored record is replaced and the passed entity's
// Version is bumped to the committed value.
type EntityStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	CreateJob(ctx context.Context, job *domain.Job) error
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
	UpdateJob(ctx context.Context, job *domain.Job) error
	// ListOpenJobs returns every job currently in the open state.
	ListOpenJobs(ctx context.Context) ([]domain.Job, error)
	// ListExpiredOpenJobs returns open jobs whose expiry has passed.
	ListExpiredOpenJobs(ctx context.Context, now time.Time) ([]domain.Job, error)

	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
	GetPaymentByJob(ctx context.Context, jobID string) (*domain.Payment, error)
	UpdatePayment(ctx context.Context, payment *domain.Payment) error
	// ListOverduePayments returns pending payments past their deadline.
	ListOverduePayments(ctx context.Context, now time.Time) ([]domain.Payment, error)

	CreateDispute(ctx context.Context, dispute *domain.Dispute) error
	GetDispute(ctx context.Context, disputeID string) (*domain.Dispute, error)
	UpdateDispute(ctx context.Context, dispute *domain.Dispute) error
	// HasPendingDispute reports whether the job already has an unresolved dispute.
	HasPendingDispute(ctx context.Context, jobID string) (bool, error)

	// CompleteJobWithPayment commits the job transition and creates the
	// escrow payment if none exists yet, as one atomic unit. The returned
	// flag reports whether the payment row was created by this call;
	// a re-entrant completion finds the existing payment and creates
	// nothing.
	CompleteJobWithPayment(ctx context.Context, job *domain.Job, payment *domain.Payment) (bool, error)
}
