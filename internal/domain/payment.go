package domain

import "time"

// Payment status constants: pending (awaiting proof from the paying
// client) -> pending_confirmation (proof uploaded, awaiting the worker)
// -> verified or disputed.
const (
	PaymentStatusPending             = "pending"
	PaymentStatusPendingConfirmation = "pending_confirmation"
	PaymentStatusVerified            = "verified"
	PaymentStatusDisputed            = "disputed"
)

// Payment is the escrow record created exactly once when a job completes
type Payment struct {
	PaymentID           string     `db:"payment_id" json:"payment_id"`
	JobID               string     `db:"job_id" json:"job_id"`
	ClientID            string     `db:"client_id" json:"client_id"`
	WorkerID            string     `db:"worker_id" json:"worker_id"`
	Amount              float64    `db:"amount" json:"amount"`
	Status              string     `db:"status" json:"status"`
	ProofImage          string     `db:"proof_image" json:"proof_image,omitempty"`
	DeadlineAt          time.Time  `db:"deadline_at" json:"deadline_at"`
	PenaltyAppliedHours int        `db:"penalty_applied_hours" json:"penalty_applied_hours"`
	VerifiedAt          *time.Time `db:"verified_at" json:"verified_at,omitempty"`
	Version             int64      `db:"version" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}
