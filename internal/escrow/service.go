// Package escrow drives a completed job's payment from proof upload
// through confirmation or dispute, and accrues overdue penalties for the
// reconciliation sweep.
package escrow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/corridorworks/corridor-be/internal/domain"
	"github.com/corridorworks/corridor-be/internal/events"
	"github.com/corridorworks/corridor-be/internal/reputation"
	"github.com/corridorworks/corridor-be/internal/storage"
)

// PenaltyPerHour is how many reliability points the paying client loses
// for every full hour a pending payment runs past its deadline.
const PenaltyPerHour = 5

// Service is the payment escrow state machine
type Service struct {
	store  storage.EntityStore
	events events.Publisher
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates an escrow service.
func NewService(store storage.EntityStore, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		events: publisher,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// UploadProof attaches the client's payment proof and moves the escrow
// to pending_confirmation.
func (s *Service) UploadProof(ctx context.Context, paymentID, clientID, image string) (*domain.Payment, error) {
	if image == "" {
		return nil, domain.Validationf("proof image is required")
	}

	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.ClientID != clientID {
		return nil, domain.Forbiddenf("user %s is not the paying client", clientID)
	}
	if payment.Status != domain.PaymentStatusPending {
		return nil, domain.Conflictf("payment %s is %s, proof can only be uploaded while pending", paymentID, payment.Status)
	}

	payment.ProofImage = image
	payment.Status = domain.PaymentStatusPendingConfirmation
	if err := s.store.UpdatePayment(ctx, payment); err != nil {
		return nil, err
	}

	s.publish(ctx, events.PaymentProofed, payment.PaymentID, payment)
	s.logger.Info("Payment proof uploaded",
		slog.String("payment_id", paymentID),
		slog.String("client_id", clientID),
	)

	return payment, nil
}

// Confirm is the worker acknowledging the payment. The escrow moves to
// verified and both parties' reputations are recomputed.
func (s *Service) Confirm(ctx context.Context, paymentID, workerID string) (*domain.Payment, error) {
	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.WorkerID != workerID {
		return nil, domain.Forbiddenf("user %s is not the assigned worker", workerID)
	}
	if payment.Status != domain.PaymentStatusPendingConfirmation {
		return nil, domain.Conflictf("payment %s is %s, cannot confirm", paymentID, payment.Status)
	}
	if payment.ProofImage == "" {
		return nil, domain.Conflictf("payment %s has no proof attached", paymentID)
	}

	now := s.now()
	payment.Status = domain.PaymentStatusVerified
	payment.VerifiedAt = &now
	if err := s.store.UpdatePayment(ctx, payment); err != nil {
		return nil, err
	}

	for _, userID := range []string{payment.ClientID, payment.WorkerID} {
		if err := s.recompute(ctx, userID); err != nil {
			s.logger.Error("Failed to recompute reputation after verification",
				slog.String("payment_id", paymentID),
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.publish(ctx, events.PaymentVerified, payment.PaymentID, payment)
	s.logger.Info("Payment verified",
		slog.String("payment_id", paymentID),
		slog.String("worker_id", workerID),
	)

	return payment, nil
}

// Dispute is the worker contesting the uploaded proof; the escrow parks
// in disputed for the dispute resolver.
func (s *Service) Dispute(ctx context.Context, paymentID, workerID string) (*domain.Payment, error) {
	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.WorkerID != workerID {
		return nil, domain.Forbiddenf("user %s is not the assigned worker", workerID)
	}
	if payment.Status != domain.PaymentStatusPendingConfirmation {
		return nil, domain.Conflictf("payment %s is %s, cannot dispute", paymentID, payment.Status)
	}

	payment.Status = domain.PaymentStatusDisputed
	if err := s.store.UpdatePayment(ctx, payment); err != nil {
		return nil, err
	}

	s.publish(ctx, events.PaymentDisputed, payment.PaymentID, payment)
	s.logger.Info("Payment disputed",
		slog.String("payment_id", paymentID),
		slog.String("worker_id", workerID),
	)

	return payment, nil
}

// ApplyOverduePenalty charges the paying client for every full overdue
// hour not yet charged, then advances the high-water mark. The mark is
// committed first under CAS, so a concurrent or repeated sweep can never
// charge the same hour twice. Never touches the payment status.
func (s *Service) ApplyOverduePenalty(ctx context.Context, payment *domain.Payment, now time.Time) (int, error) {
	if payment.Status != domain.PaymentStatusPending {
		return 0, nil
	}

	overdue := now.Sub(payment.DeadlineAt)
	if overdue <= 0 {
		return 0, nil
	}

	hoursOverdue := int(overdue / time.Hour)
	unchargedHours := hoursOverdue - payment.PenaltyAppliedHours
	if unchargedHours <= 0 {
		return 0, nil
	}

	payment.PenaltyAppliedHours = hoursOverdue
	if err := s.store.UpdatePayment(ctx, payment); err != nil {
		return 0, err
	}

	penalty := unchargedHours * PenaltyPerHour
	if err := s.updateUser(ctx, payment.ClientID, func(u *domain.User) {
		u.ReliabilityScore = reputation.Apply(u.ReliabilityScore, -penalty)
	}); err != nil {
		return 0, err
	}

	s.publish(ctx, events.PaymentPenalty, payment.PaymentID, map[string]interface{}{
		"client_id":      payment.ClientID,
		"penalty_points": penalty,
		"hours_overdue":  hoursOverdue,
	})
	s.logger.Info("Overdue payment penalty applied",
		slog.String("payment_id", payment.PaymentID),
		slog.String("client_id", payment.ClientID),
		slog.Int("penalty_points", penalty),
		slog.Int("hours_overdue", hoursOverdue),
	)

	return penalty, nil
}

// GetPayment fetches a payment by id.
func (s *Service) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return s.store.GetPayment(ctx, paymentID)
}

func (s *Service) recompute(ctx context.Context, userID string) error {
	return s.updateUser(ctx, userID, func(u *domain.User) {
		u.ReliabilityScore = reputation.Recompute(u.Stats, u.DisputeCount)
	})
}

func (s *Service) updateUser(ctx context.Context, userID string, mutate func(*domain.User)) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		var user *domain.User
		user, err = s.store.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		mutate(user)
		err = s.store.UpdateUser(ctx, user)
		if err == nil || !errors.Is(err, domain.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *Service) publish(ctx context.Context, eventType, entityID string, payload interface{}) {
	if err := s.events.Publish(ctx, eventType, entityID, payload); err != nil {
		s.logger.Warn("Failed to publish event",
			slog.String("event", eventType),
			slog.String("entity_id", entityID),
			slog.String("error", err.Error()),
		)
	}
}
