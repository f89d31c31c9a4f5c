package domain

import "time"

// Job status constants. Terminal states are completed, cancelled and
// expired; disputed is a side branch that resolves back to the snapshot
// taken when the dispute was raised.
const (
	JobStatusOpen       = "open"
	JobStatusAssigned   = "assigned"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
	JobStatusDisputed   = "disputed"
	JobStatusExpired    = "expired"
)

// StationRange is an ordered pair of points on the corridor
type StationRange struct {
	From string `db:"station_from" json:"from"`
	To   string `db:"station_to" json:"to"`
}

// Cancellation records who cancelled a job and why
type Cancellation struct {
	By     string `db:"cancelled_by" json:"by"`
	Reason string `db:"cancel_reason" json:"reason"`
}

// JobRating is one direction of the post-completion rating exchange
type JobRating struct {
	Score  int    `json:"score"`
	Review string `json:"review"`
}

// Job is a short-term labour posting inside the corridor
type Job struct {
	JobID          string        `db:"job_id" json:"job_id"`
	CreatedBy      string        `db:"created_by" json:"created_by"`
	AssignedWorker string        `db:"assigned_worker" json:"assigned_worker,omitempty"`
	Title          string        `db:"title" json:"title"`
	Description    string        `db:"description" json:"description"`
	SkillRequired  string        `db:"skill_required" json:"skill_required"`
	StationRange   StationRange  `json:"station_range"`
	Budget         float64       `db:"budget" json:"budget"`
	Status         string        `db:"status" json:"status"`
	RejectedBy     []string      `db:"rejected_by" json:"rejected_by,omitempty"`
	Cancellation   *Cancellation `json:"cancellation,omitempty"`
	ClientRating   *JobRating    `json:"client_rating,omitempty"`
	WorkerRating   *JobRating    `json:"worker_rating,omitempty"`
	ExpiresAt      time.Time     `db:"expires_at" json:"expires_at"`
	Version        int64         `db:"version" json:"-"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// IsTerminal reports whether the job status admits no further edges
// outside the dispute side branch.
func (j *Job) IsTerminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusCancelled, JobStatusExpired:
		return true
	}
	return false
}

// IsParticipant reports whether the user created or is assigned to the job.
func (j *Job) IsParticipant(userID string) bool {
	return j.CreatedBy == userID || (j.AssignedWorker != "" && j.AssignedWorker == userID)
}

// HasRejected reports whether the worker already declined this job.
func (j *Job) HasRejected(workerID string) bool {
	for _, id := range j.RejectedBy {
		if id == workerID {
			return true
		}
	}
	return false
}
