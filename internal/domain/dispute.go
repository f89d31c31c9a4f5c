package domain

import "time"

// Dispute status constants
const (
	DisputeStatusPending  = "pending"
	DisputeStatusResolved = "resolved"
	DisputeStatusRejected = "rejected"
)

// Dispute severity, derived from complaint text length
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// SeverityForText buckets a complaint by length: >200 high, >80 medium,
// else low.
func SeverityForText(text string) string {
	switch {
	case len(text) > 200:
		return SeverityHigh
	case len(text) > 80:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Dispute is a contested job raised by one participant against the other
type Dispute struct {
	DisputeID         string    `db:"dispute_id" json:"dispute_id"`
	JobID             string    `db:"job_id" json:"job_id"`
	RaisedBy          string    `db:"raised_by" json:"raised_by"`
	Against           string    `db:"against" json:"against"`
	Text              string    `db:"text" json:"text"`
	Severity          string    `db:"severity" json:"severity"`
	Status            string    `db:"status" json:"status"`
	PreviousJobStatus string    `db:"previous_job_status" json:"previous_job_status"`
	Evidence          string    `db:"evidence" json:"evidence,omitempty"`
	DecisionAgainst   string    `db:"decision_against" json:"decision_against,omitempty"`
	AdminNote         string    `db:"admin_note" json:"admin_note,omitempty"`
	Version           int64     `db:"version" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
