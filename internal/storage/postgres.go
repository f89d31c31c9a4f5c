package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/corridorworks/corridor-be/internal/domain"
	"github.com/corridorworks/corridor-be/shared/postgresql"
)

// PostgresStore is the durable EntityStore. Optimistic concurrency rides
// on a version column: every update is `... WHERE id = $1 AND version = $2`,
// so of two racing writers exactly one commits and the other sees no rows.
type PostgresStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresStore creates a store over an established Postgres client.
func NewPostgresStore(pg *postgresql.Client, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		db:     pg.GetDB(),
		logger: logger,
	}
}

const userColumns = `
	user_id, name, role, skills, station_start, station_end, expected_rate,
	availability, verification_status, reliability_score, risk_level,
	dispute_count, banned, completed_jobs, cancelled_jobs, total_ratings,
	rating_sum, version, created_at, updated_at
`

func (s *PostgresStore) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, 1, $18, $19)
	`

	user.Version = 1
	_, err := s.db.ExecContext(ctx, query,
		user.UserID, user.Name, user.Role, pq.Array(user.Skills),
		user.StationStart, user.StationEnd, user.ExpectedRate,
		user.Availability, user.VerificationStatus, user.ReliabilityScore,
		user.RiskLevel, user.DisputeCount, user.Banned,
		user.Stats.CompletedJobs, user.Stats.CancelledJobs,
		user.Stats.TotalRatings, user.Stats.RatingSum,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	var user domain.User
	var skills pq.StringArray
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.UserID, &user.Name, &user.Role, &skills,
		&user.StationStart, &user.StationEnd, &user.ExpectedRate,
		&user.Availability, &user.VerificationStatus, &user.ReliabilityScore,
		&user.RiskLevel, &user.DisputeCount, &user.Banned,
		&user.Stats.CompletedJobs, &user.Stats.CancelledJobs,
		&user.Stats.TotalRatings, &user.Stats.RatingSum,
		&user.Version, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Skills = skills
	return &user, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $1, role = $2, skills = $3, station_start = $4,
		    station_end = $5, expected_rate = $6, availability = $7,
		    verification_status = $8, reliability_score = $9, risk_level = $10,
		    dispute_count = $11, banned = $12, completed_jobs = $13,
		    cancelled_jobs = $14, total_ratings = $15, rating_sum = $16,
		    version = version + 1, updated_at = NOW()
		WHERE user_id = $17 AND version = $18
	`

	result, err := s.db.ExecContext(ctx, query,
		user.Name, user.Role, pq.Array(user.Skills), user.StationStart,
		user.StationEnd, user.ExpectedRate, user.Availability,
		user.VerificationStatus, user.ReliabilityScore, user.RiskLevel,
		user.DisputeCount, user.Banned, user.Stats.CompletedJobs,
		user.Stats.CancelledJobs, user.Stats.TotalRatings, user.Stats.RatingSum,
		user.UserID, user.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if err := s.requireRow(result, "user", user.UserID); err != nil {
		return err
	}
	user.Version++
	return nil
}

const jobColumns = `
	job_id, created_by, assigned_worker, title, description, skill_required,
	station_from, station_to, budget, status, rejected_by, cancelled_by,
	cancel_reason, client_rating, client_review, worker_rating, worker_review,
	expires_at, version, created_at, updated_at
`

func (s *PostgresStore) CreateJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, 1, $19, $20)
	`

	job.Version = 1
	args := jobInsertArgs(job)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func jobInsertArgs(job *domain.Job) []interface{} {
	var cancelledBy, cancelReason sql.NullString
	if job.Cancellation != nil {
		cancelledBy = sql.NullString{String: job.Cancellation.By, Valid: true}
		cancelReason = sql.NullString{String: job.Cancellation.Reason, Valid: true}
	}
	clientRating, clientReview := ratingColumns(job.ClientRating)
	workerRating, workerReview := ratingColumns(job.WorkerRating)

	return []interface{}{
		job.JobID, job.CreatedBy, nullable(job.AssignedWorker), job.Title,
		job.Description, job.SkillRequired, job.StationRange.From,
		job.StationRange.To, job.Budget, job.Status, pq.Array(job.RejectedBy),
		cancelledBy, cancelReason, clientRating, clientReview,
		workerRating, workerReview, job.ExpiresAt, job.CreatedAt, job.UpdatedAt,
	}
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = $1`

	job, err := s.scanJob(s.db.QueryRowxContext(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) UpdateJob(ctx context.Context, job *domain.Job) error {
	result, err := s.execJobUpdate(ctx, s.db, job)
	if err != nil {
		return err
	}
	if err := s.requireRow(result, "job", job.JobID); err != nil {
		return err
	}
	job.Version++
	return nil
}

// execJobUpdate runs the versioned job UPDATE on either the pool or a
// transaction.
func (s *PostgresStore) execJobUpdate(ctx context.Context, ex sqlx.ExecerContext, job *domain.Job) (sql.Result, error) {
	query := `
		UPDATE jobs
		SET assigned_worker = $1, status = $2, rejected_by = $3,
		    cancelled_by = $4, cancel_reason = $5, client_rating = $6,
		    client_review = $7, worker_rating = $8, worker_review = $9,
		    expires_at = $10, version = version + 1, updated_at = NOW()
		WHERE job_id = $11 AND version = $12
	`

	var cancelledBy, cancelReason sql.NullString
	if job.Cancellation != nil {
		cancelledBy = sql.NullString{String: job.Cancellation.By, Valid: true}
		cancelReason = sql.NullString{String: job.Cancellation.Reason, Valid: true}
	}
	clientRating, clientReview := ratingColumns(job.ClientRating)
	workerRating, workerReview := ratingColumns(job.WorkerRating)

	result, err := ex.ExecContext(ctx, query,
		nullable(job.AssignedWorker), job.Status, pq.Array(job.RejectedBy),
		cancelledBy, cancelReason, clientRating, clientReview,
		workerRating, workerReview, job.ExpiresAt, job.JobID, job.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}
	return result, nil
}

func (s *PostgresStore) ListOpenJobs(ctx context.Context) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = $1 ORDER BY created_at DESC`
	return s.selectJobs(ctx, query, domain.JobStatusOpen)
}

func (s *PostgresStore) ListExpiredOpenJobs(ctx context.Context, now time.Time) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = $1 AND expires_at < $2`
	return s.selectJobs(ctx, query, domain.JobStatusOpen, now)
}

func (s *PostgresStore) selectJobs(ctx context.Context, query string, args ...interface{}) ([]domain.Job, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := s.scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// rowScanner covers both *sqlx.Row and *sqlx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *PostgresStore) scanJob(row rowScanner) (*domain.Job, error) {
	var job domain.Job
	var assignedWorker, cancelledBy, cancelReason, clientReview, workerReview sql.NullString
	var clientRating, workerRating sql.NullInt64
	var rejectedBy pq.StringArray

	err := row.Scan(
		&job.JobID, &job.CreatedBy, &assignedWorker, &job.Title,
		&job.Description, &job.SkillRequired, &job.StationRange.From,
		&job.StationRange.To, &job.Budget, &job.Status, &rejectedBy,
		&cancelledBy, &cancelReason, &clientRating, &clientReview,
		&workerRating, &workerReview, &job.ExpiresAt, &job.Version,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.AssignedWorker = assignedWorker.String
	job.RejectedBy = rejectedBy
	if cancelledBy.Valid {
		job.Cancellation = &domain.Cancellation{By: cancelledBy.String, Reason: cancelReason.String}
	}
	if clientRating.Valid {
		job.ClientRating = &domain.JobRating{Score: int(clientRating.Int64), Review: clientReview.String}
	}
	if workerRating.Valid {
		job.WorkerRating = &domain.JobRating{Score: int(workerRating.Int64), Review: workerReview.String}
	}
	return &job, nil
}

const paymentColumns = `
	payment_id, job_id, client_id, worker_id, amount, status, proof_image,
	deadline_at, penalty_applied_hours, verified_at, version, created_at, updated_at
`

func (s *PostgresStore) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1`
	return s.getPayment(ctx, query, paymentID)
}

func (s *PostgresStore) GetPaymentByJob(ctx context.Context, jobID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE job_id = $1`
	return s.getPayment(ctx, query, jobID)
}

func (s *PostgresStore) getPayment(ctx context.Context, query, key string) (*domain.Payment, error) {
	var payment domain.Payment
	var proofImage sql.NullString
	var verifiedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, query, key).Scan(
		&payment.PaymentID, &payment.JobID, &payment.ClientID,
		&payment.WorkerID, &payment.Amount, &payment.Status, &proofImage,
		&payment.DeadlineAt, &payment.PenaltyAppliedHours, &verifiedAt,
		&payment.Version, &payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	payment.ProofImage = proofImage.String
	if verifiedAt.Valid {
		payment.VerifiedAt = &verifiedAt.Time
	}
	return &payment, nil
}

func (s *PostgresStore) UpdatePayment(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET status = $1, proof_image = $2, penalty_applied_hours = $3,
		    verified_at = $4, version = version + 1, updated_at = NOW()
		WHERE payment_id = $5 AND version = $6
	`

	var verifiedAt sql.NullTime
	if payment.VerifiedAt != nil {
		verifiedAt = sql.NullTime{Time: *payment.VerifiedAt, Valid: true}
	}

	result, err := s.db.ExecContext(ctx, query,
		payment.Status, nullable(payment.ProofImage),
		payment.PenaltyAppliedHours, verifiedAt,
		payment.PaymentID, payment.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if err := s.requireRow(result, "payment", payment.PaymentID); err != nil {
		return err
	}
	payment.Version++
	return nil
}

func (s *PostgresStore) ListOverduePayments(ctx context.Context, now time.Time) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE status = $1 AND deadline_at < $2`

	rows, err := s.db.QueryContext(ctx, query, domain.PaymentStatusPending, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var payment domain.Payment
		var proofImage sql.NullString
		var verifiedAt sql.NullTime
		err := rows.Scan(
			&payment.PaymentID, &payment.JobID, &payment.ClientID,
			&payment.WorkerID, &payment.Amount, &payment.Status, &proofImage,
			&payment.DeadlineAt, &payment.PenaltyAppliedHours, &verifiedAt,
			&payment.Version, &payment.CreatedAt, &payment.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payment.ProofImage = proofImage.String
		if verifiedAt.Valid {
			payment.VerifiedAt = &verifiedAt.Time
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

const disputeColumns = `
	dispute_id, job_id, raised_by, against, text, severity, status,
	previous_job_status, evidence, decision_against, admin_note, version,
	created_at, updated_at
`

func (s *PostgresStore) CreateDispute(ctx context.Context, dispute *domain.Dispute) error {
	query := `
		INSERT INTO disputes (` + disputeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $13)
	`

	dispute.Version = 1
	_, err := s.db.ExecContext(ctx, query,
		dispute.DisputeID, dispute.JobID, dispute.RaisedBy, dispute.Against,
		dispute.Text, dispute.Severity, dispute.Status,
		dispute.PreviousJobStatus, nullable(dispute.Evidence),
		nullable(dispute.DecisionAgainst), nullable(dispute.AdminNote),
		dispute.CreatedAt, dispute.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create dispute: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDispute(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE dispute_id = $1`

	var dispute domain.Dispute
	var evidence, decisionAgainst, adminNote sql.NullString
	err := s.db.QueryRowContext(ctx, query, disputeID).Scan(
		&dispute.DisputeID, &dispute.JobID, &dispute.RaisedBy,
		&dispute.Against, &dispute.Text, &dispute.Severity, &dispute.Status,
		&dispute.PreviousJobStatus, &evidence, &decisionAgainst, &adminNote,
		&dispute.Version, &dispute.CreatedAt, &dispute.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("dispute %s: %w", disputeID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get dispute: %w", err)
	}
	dispute.Evidence = evidence.String
	dispute.DecisionAgainst = decisionAgainst.String
	dispute.AdminNote = adminNote.String
	return &dispute, nil
}

func (s *PostgresStore) UpdateDispute(ctx context.Context, dispute *domain.Dispute) error {
	query := `
		UPDATE disputes
		SET status = $1, decision_against = $2, admin_note = $3,
		    version = version + 1, updated_at = NOW()
		WHERE dispute_id = $4 AND version = $5
	`

	result, err := s.db.ExecContext(ctx, query,
		dispute.Status, nullable(dispute.DecisionAgainst),
		nullable(dispute.AdminNote), dispute.DisputeID, dispute.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update dispute: %w", err)
	}
	if err := s.requireRow(result, "dispute", dispute.DisputeID); err != nil {
		return err
	}
	dispute.Version++
	return nil
}

func (s *PostgresStore) HasPendingDispute(ctx context.Context, jobID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM disputes WHERE job_id = $1 AND status = $2)`
	err := s.db.GetContext(ctx, &exists, query, jobID, domain.DisputeStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to check pending dispute: %w", err)
	}
	return exists, nil
}

// CompleteJobWithPayment commits the assigned->completed transition and
// inserts the escrow payment in one transaction. The unique index on
// payments.job_id makes re-entrant completion a no-op on the payment side.
func (s *PostgresStore) CompleteJobWithPayment(ctx context.Context, job *domain.Job, payment *domain.Payment) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := s.execJobUpdate(ctx, tx, job)
	if err != nil {
		return false, err
	}
	if err := s.requireRow(result, "job", job.JobID); err != nil {
		return false, err
	}

	insert := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11, $12)
		ON CONFLICT (job_id) DO NOTHING
	`

	payment.Version = 1
	var verifiedAt sql.NullTime
	insertResult, err := tx.ExecContext(ctx, insert,
		payment.PaymentID, payment.JobID, payment.ClientID, payment.WorkerID,
		payment.Amount, payment.Status, nullable(payment.ProofImage),
		payment.DeadlineAt, payment.PenaltyAppliedHours, verifiedAt,
		payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create payment: %w", err)
	}

	inserted, err := insertResult.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit completion: %w", err)
	}

	job.Version++
	return inserted > 0, nil
}

// requireRow converts an empty UPDATE into the conflict the CAS
// discipline promises racing writers.
func (s *PostgresStore) requireRow(result sql.Result, entity, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		s.logger.Warn("Optimistic update lost the race",
			slog.String("entity", entity),
			slog.String("id", id),
		)
		return domain.Conflictf("%s %s modified concurrently", entity, id)
	}
	return nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func ratingColumns(r *domain.JobRating) (sql.NullInt64, sql.NullString) {
	if r == nil {
		return sql.NullInt64{}, sql.NullString{}
	}
	return sql.NullInt64{Int64: int64(r.Score), Valid: true},
		sql.NullString{String: r.Review, Valid: true}
}
