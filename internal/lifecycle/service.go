// Package lifecycle enforces the job state machine and its side effects.
// Every transition reads the current record, checks its precondition and
// commits through the store's compare-and-swap; a caller that loses the
// race gets domain.ErrConflict and is expected to re-fetch, not retry.
package lifecycle

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

const (
	// JobTTL is how long a posted job stays open before the expiry sweep
	// claims it.
	JobTTL = 24 * time.Hour

	// PaymentDeadline is how long the client has to upload proof before
	// overdue penalties start accruing.
	PaymentDeadline = 2 * time.Hour
)

// Service is the job lifecycle state machine
type Service struct {
	store    storage.EntityStore
	events   events.Publisher
	corridor *domain.Corridor
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a lifecycle service.
func NewService(store storage.EntityStore, publisher events.Publisher, corridor *domain.Corridor, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		events:   publisher,
		corridor: corridor,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateJobInput carries the fields a client supplies when posting a job
type CreateJobInput struct {
	Title         string
	Description   string
	SkillRequired string
	StationFrom   string
	StationTo     string
	Budget        float64
}

// Create posts a new open job for the creator. The job expires 24 hours
// after posting unless accepted first.
func (s *Service) Create(ctx context.Context, creatorID string, input CreateJobInput) (*domain.Job, error) {
	if input.Title == "" {
		return nil, domain.Validationf("title is required")
	}
	if input.Description == "" {
		return nil, domain.Validationf("description is required")
	}
	if input.SkillRequired == "" {
		return nil, domain.Validationf("skill is required")
	}
	if input.Budget <= 0 {
		return nil, domain.Validationf("budget must be greater than 0")
	}
	stationRange := domain.StationRange{From: input.StationFrom, To: input.StationTo}
	if !s.corridor.ValidRange(stationRange) {
		return nil, domain.Validationf("unknown station in range %s-%s", input.StationFrom, input.StationTo)
	}

	creator, err := s.store.GetUser(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if creator.Banned {
		return nil, domain.Forbiddenf("user %s is banned", creatorID)
	}

	now := s.now()
	job := &domain.Job{
		JobID:         uuid.New().String(),
		CreatedBy:     creatorID,
		Title:         input.Title,
		Description:   input.Description,
		SkillRequired: input.SkillRequired,
		StationRange:  stationRange,
		Budget:        input.Budget,
		Status:        domain.JobStatusOpen,
		ExpiresAt:     now.Add(JobTTL),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	s.publish(ctx, events.JobCreated, job.JobID, job)
	s.logger.Info("Job created",
		slog.String("job_id", job.JobID),
		slog.String("created_by", creatorID),
		slog.Float64("budget", job.Budget),
	)

	return job, nil
}

// Accept assigns an open job to the worker. Exactly one of any number of
// concurrent accept attempts wins; the rest get ErrConflict.
func (s *Service) Accept(ctx context.Context, jobID, workerID string) (*domain.Job, error) {
	worker, err := s.requireActiveWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.CreatedBy == workerID {
		return nil, domain.Forbiddenf("cannot accept own job")
	}
	if job.Status != domain.JobStatusOpen {
		return nil, domain.Conflictf("job %s is %s, not open", jobID, job.Status)
	}

	job.Status = domain.JobStatusAssigned
	job.AssignedWorker = worker.UserID
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, err
	}

	s.publish(ctx, events.JobAssigned, job.JobID, job)
	s.logger.Info("Job accepted",
		slog.String("job_id", jobID),
		slog.String("worker_id", workerID),
	)

	return job, nil
}

// Reject records that the worker declined the job, dropping it from that
// worker's future ranked feed. Duplicate rejections fail.
func (s *Service) Reject(ctx context.Context, jobID, workerID string) (*domain.Job, error) {
	if _, err := s.requireActiveWorker(ctx, workerID); err != nil {
		return nil, err
	}

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobStatusOpen {
		return nil, domain.Conflictf("job %s is %s, not open", jobID, job.Status)
	}
	if job.HasRejected(workerID) {
		return nil, domain.ErrAlreadyRejected
	}

	job.RejectedBy = append(job.RejectedBy, workerID)
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, err
	}

	return job, nil
}

// Complete marks an assigned job done and opens its escrow payment. The
// transition and the create-payment-if-absent are committed as one atomic
// unit; repeated completion calls never create a second payment.
func (s *Service) Complete(ctx context.Context, jobID, workerID string) (*domain.Job, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.AssignedWorker != workerID {
		return nil, domain.Forbiddenf("job %s is not assigned to worker %s", jobID, workerID)
	}
	if job.Status != domain.JobStatusAssigned && job.Status != domain.JobStatusInProgress {
		return nil, domain.Conflictf("job %s is %s, cannot complete", jobID, job.Status)
	}

	now := s.now()
	job.Status = domain.JobStatusCompleted

	payment := &domain.Payment{
		PaymentID:  uuid.New().String(),
		JobID:      job.JobID,
		ClientID:   job.CreatedBy,
		WorkerID:   workerID,
		Amount:     job.Budget,
		Status:     domain.PaymentStatusPending,
		DeadlineAt: now.Add(PaymentDeadline),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	paymentCreated, err := s.store.CompleteJobWithPayment(ctx, job, payment)
	if err != nil {
		return nil, err
	}

	if err := s.updateUser(ctx, workerID, func(u *domain.User) {
		u.Stats.CompletedJobs++
		u.ReliabilityScore = reputation.Recompute(u.Stats, u.DisputeCount)
	}); err != nil {
		s.logger.Error("Failed to update worker stats after completion",
			slog.String("job_id", jobID),
			slog.String("worker_id", workerID),
			slog.String("error", err.Error()),
		)
	}

	s.publish(ctx, events.JobCompleted, job.JobID, job)
	if paymentCreated {
		s.publish(ctx, events.PaymentCreated, payment.PaymentID, payment)
	}
	s.logger.Info("Job completed",
		slog.String("job_id", jobID),
		slog.String("worker_id", workerID),
		slog.Bool("payment_created", paymentCreated),
	)

	return job, nil
}

// Cancel moves an open or assigned job to cancelled and charges the
// cancellation to the acting participant's stats. Admin force-cancel
// follows the same edge without touching the admin's stats.
func (s *Service) Cancel(ctx context.Context, jobID, actorID, reason string) (*domain.Job, error) {
	actor, err := s.store.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin && !job.IsParticipant(actorID) {
		return nil, domain.Forbiddenf("user %s is not a participant of job %s", actorID, jobID)
	}
	if job.IsTerminal() {
		return nil, domain.Conflictf("job %s is already %s", jobID, job.Status)
	}
	if job.Status == domain.JobStatusDisputed {
		return nil, domain.Conflictf("job %s has an open dispute", jobID)
	}

	job.Status = domain.JobStatusCancelled
	job.Cancellation = &domain.Cancellation{By: actorID, Reason: reason}
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, err
	}

	if actor.Role != domain.RoleAdmin {
		if err := s.updateUser(ctx, actorID, func(u *domain.User) {
			u.Stats.CancelledJobs++
			u.ReliabilityScore = reputation.Recompute(u.Stats, u.DisputeCount)
		}); err != nil {
			s.logger.Error("Failed to update stats after cancellation",
				slog.String("job_id", jobID),
				slog.String("actor_id", actorID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.publish(ctx, events.JobCancelled, job.JobID, job)
	s.logger.Info("Job cancelled",
		slog.String("job_id", jobID),
		slog.String("actor_id", actorID),
		slog.String("reason", reason),
	)

	return job, nil
}

// Rate records one direction of the post-completion rating exchange and
// folds it into the target's reputation.
func (s *Service) Rate(ctx context.Context, jobID, raterID string, rating int, review string) (*domain.Job, error) {
	if rating < 1 || rating > 5 {
		return nil, domain.Validationf("rating must be between 1 and 5")
	}

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsParticipant(raterID) {
		return nil, domain.Forbiddenf("user %s is not a participant of job %s", raterID, jobID)
	}
	if job.Status != domain.JobStatusCompleted {
		return nil, domain.Conflictf("job %s is %s, only completed jobs can be rated", jobID, job.Status)
	}

	var targetID string
	entry := &domain.JobRating{Score: rating, Review: review}
	if raterID == job.CreatedBy {
		if job.ClientRating != nil {
			return nil, domain.Conflictf("job %s already rated by the client", jobID)
		}
		job.ClientRating = entry
		targetID = job.AssignedWorker
	} else {
		if job.WorkerRating != nil {
			return nil, domain.Conflictf("job %s already rated by the worker", jobID)
		}
		job.WorkerRating = entry
		targetID = job.CreatedBy
	}

	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, err
	}

	if err := s.updateUser(ctx, targetID, func(u *domain.User) {
		u.Stats.TotalRatings++
		u.Stats.RatingSum += rating
		u.ReliabilityScore = reputation.Recompute(u.Stats, u.DisputeCount)
	}); err != nil {
		s.logger.Error("Failed to update rating target",
			slog.String("job_id", jobID),
			slog.String("target_id", targetID),
			slog.String("error", err.Error()),
		)
	}

	s.publish(ctx, events.JobRated, job.JobID, job)

	return job, nil
}

// GetJob fetches a job by id.
func (s *Service) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.store.GetJob(ctx, jobID)
}

func (s *Service) requireActiveWorker(ctx context.Context, workerID string) (*domain.User, error) {
	worker, err := s.store.GetUser(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if worker.Role != domain.RoleWorker {
		return nil, domain.Forbiddenf("user %s is not a worker", workerID)
	}
	if worker.Banned {
		return nil, domain.Forbiddenf("user %s is banned", workerID)
	}
	return worker, nil
}

// updateUser applies a stats mutation under the CAS discipline. Stats
// increments commute, so losing a version race is safely resolved by
// re-reading and reapplying a bounded number of times.
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

// publish emits a domain event; failures are logged, never propagated.
func (s *Service) publish(ctx context.Context, eventType, entityID string, payload interface{}) {
	if err := s.events.Publish(ctx, eventType, entityID, payload); err != nil {
		s.logger.Warn("Failed to publish event",
			slog.String("event", eventType),
			slog.String("entity_id", entityID),
			slog.String("error", err.Error()),
		)
	}
}
