// Package dispute handles contested jobs: raising a dispute parks the
// job in the disputed side branch, and resolution restores the status
// snapshot taken when the dispute was raised.
package dispute

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/corridorworks/corridor-be/internal/domain"
	"github.com/corridorworks/corridor-be/internal/events"
	"github.com/corridorworks/corridor-be/internal/reputation"
	"github.com/corridorworks/corridor-be/internal/storage"
)

// ResolutionPenalty is the flat reliability hit for losing a dispute.
const ResolutionPenalty = 10

// Resolver is the dispute state machine
type Resolver struct {
	store  storage.EntityStore
	events events.Publisher
	logger *slog.Logger
	now    func() time.Time
}

// NewResolver creates a dispute resolver.
func NewResolver(store storage.EntityStore, publisher events.Publisher, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:  store,
		events: publisher,
		logger: logger,
		now:    time.Now,
	}
}

// Raise opens a dispute on an assigned or completed job. The job's CAS
// transition into disputed is the single-winner gate against concurrent
// raisers; only then is the dispute record created.
func (r *Resolver) Raise(ctx context.Context, jobID, raiserID, text, evidence string) (*domain.Dispute, error) {
	if len(text) < 10 {
		return nil, domain.Validationf("complaint text must be at least 10 characters")
	}

	job, err := r.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsParticipant(raiserID) {
		return nil, domain.Forbiddenf("user %s is not a participant of job %s", raiserID, jobID)
	}
	if job.AssignedWorker == "" {
		return nil, domain.Conflictf("job %s has no assigned worker", jobID)
	}

	// Duplicate check runs before the status check: a job already parked
	// in disputed reports the pending dispute, not a generic conflict.
	pending, err := r.store.HasPendingDispute(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, domain.ErrDuplicateDispute
	}

	if job.Status != domain.JobStatusAssigned && job.Status != domain.JobStatusCompleted {
		return nil, domain.Conflictf("job %s is %s, disputes require an assigned or completed job", jobID, job.Status)
	}

	against := job.AssignedWorker
	if raiserID == job.AssignedWorker {
		against = job.CreatedBy
	}

	previousStatus := job.Status
	job.Status = domain.JobStatusDisputed
	if err := r.store.UpdateJob(ctx, job); err != nil {
		return nil, err
	}

	now := r.now()
	dispute := &domain.Dispute{
		DisputeID:         uuid.New().String(),
		JobID:             jobID,
		RaisedBy:          raiserID,
		Against:           against,
		Text:              text,
		Severity:          domain.SeverityForText(text),
		Status:            domain.DisputeStatusPending,
		PreviousJobStatus: previousStatus,
		Evidence:          evidence,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := r.store.CreateDispute(ctx, dispute); err != nil {
		// The job is already parked in disputed; put the snapshot back
		// so it is not stranded without a dispute record.
		job.Status = previousStatus
		if restoreErr := r.store.UpdateJob(ctx, job); restoreErr != nil {
			r.logger.Error("Failed to restore job after dispute creation failure",
				slog.String("job_id", jobID),
				slog.String("error", restoreErr.Error()),
			)
		}
		return nil, err
	}

	r.publish(ctx, events.DisputeRaised, dispute.DisputeID, dispute)
	r.logger.Info("Dispute raised",
		slog.String("dispute_id", dispute.DisputeID),
		slog.String("job_id", jobID),
		slog.String("raised_by", raiserID),
		slog.String("severity", dispute.Severity),
	)

	return dispute, nil
}

// Resolve closes a pending dispute against one participant: the loser
// takes a flat reliability penalty and a dispute count increment, and the
// job returns to its snapshotted status.
func (r *Resolver) Resolve(ctx context.Context, disputeID, adminID, decisionAgainst, note string) (*domain.Dispute, error) {
	if err := r.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	dispute, err := r.store.GetDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if dispute.Status != domain.DisputeStatusPending {
		return nil, domain.Conflictf("dispute %s is already %s", disputeID, dispute.Status)
	}
	if decisionAgainst != dispute.RaisedBy && decisionAgainst != dispute.Against {
		return nil, domain.Validationf("decision must name one of the dispute participants")
	}

	dispute.Status = domain.DisputeStatusResolved
	dispute.DecisionAgainst = decisionAgainst
	dispute.AdminNote = note
	if err := r.store.UpdateDispute(ctx, dispute); err != nil {
		return nil, err
	}

	if err := r.updateUser(ctx, decisionAgainst, func(u *domain.User) {
		u.ReliabilityScore = reputation.Apply(u.ReliabilityScore, -ResolutionPenalty)
		u.DisputeCount++
		u.RiskLevel = reputation.RiskLevel(u.DisputeCount)
	}); err != nil {
		r.logger.Error("Failed to penalise losing party",
			slog.String("dispute_id", disputeID),
			slog.String("user_id", decisionAgainst),
			slog.String("error", err.Error()),
		)
	}

	r.restoreJob(ctx, dispute)

	r.publish(ctx, events.DisputeResolved, dispute.DisputeID, dispute)
	r.logger.Info("Dispute resolved",
		slog.String("dispute_id", disputeID),
		slog.String("against", decisionAgainst),
	)

	return dispute, nil
}

// Reject closes a pending dispute with no reputation side effects and
// restores the job's snapshotted status.
func (r *Resolver) Reject(ctx context.Context, disputeID, adminID, note string) (*domain.Dispute, error) {
	if err := r.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	dispute, err := r.store.GetDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if dispute.Status != domain.DisputeStatusPending {
		return nil, domain.Conflictf("dispute %s is already %s", disputeID, dispute.Status)
	}

	dispute.Status = domain.DisputeStatusRejected
	dispute.AdminNote = note
	if err := r.store.UpdateDispute(ctx, dispute); err != nil {
		return nil, err
	}

	r.restoreJob(ctx, dispute)

	r.publish(ctx, events.DisputeRejected, dispute.DisputeID, dispute)

	return dispute, nil
}

// GetDispute fetches a dispute by id.
func (r *Resolver) GetDispute(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	return r.store.GetDispute(ctx, disputeID)
}

// restoreJob puts the job back to the status snapshotted when the
// dispute was raised, defaulting to completed.
func (r *Resolver) restoreJob(ctx context.Context, dispute *domain.Dispute) {
	job, err := r.store.GetJob(ctx, dispute.JobID)
	if err != nil {
		r.logger.Error("Failed to load job for restore",
			slog.String("dispute_id", dispute.DisputeID),
			slog.String("job_id", dispute.JobID),
			slog.String("error", err.Error()),
		)
		return
	}
	if job.Status != domain.JobStatusDisputed {
		return
	}

	restored := dispute.PreviousJobStatus
	if restored == "" {
		restored = domain.JobStatusCompleted
	}
	job.Status = restored
	if err := r.store.UpdateJob(ctx, job); err != nil {
		r.logger.Error("Failed to restore job status",
			slog.String("dispute_id", dispute.DisputeID),
			slog.String("job_id", dispute.JobID),
			slog.String("error", err.Error()),
		)
	}
}

func (r *Resolver) requireAdmin(ctx context.Context, adminID string) error {
	admin, err := r.store.GetUser(ctx, adminID)
	if err != nil {
		return err
	}
	if admin.Role != domain.RoleAdmin {
		return domain.Forbiddenf("user %s is not an admin", adminID)
	}
	return nil
}

func (r *Resolver) updateUser(ctx context.Context, userID string, mutate func(*domain.User)) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		var user *domain.User
		user, err = r.store.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		mutate(user)
		err = r.store.UpdateUser(ctx, user)
		if err == nil || !errors.Is(err, domain.ErrConflict) {
			return err
		}
	}
	return err
}

func (r *Resolver) publish(ctx context.Context, eventType, entityID string, payload interface{}) {
	if err := r.events.Publish(ctx, eventType, entityID, payload); err != nil {
		r.logger.Warn("Failed to publish event",
			slog.String("event", eventType),
			slog.String("entity_id", entityID),
			slog.String("error", err.Error()),
		)
	}
}
