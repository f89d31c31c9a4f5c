package domain

import "time"

// User roles
const (
	RoleClient = "client"
	RoleWorker = "worker"
	RoleAdmin  = "admin"
)

// Risk levels derived from dispute count
const (
	RiskNormal    = "normal"
	RiskRisky     = "risky"
	RiskDangerous = "dangerous"
)

// Availability states
const (
	AvailabilityAvailable = "available"
	AvailabilityBusy      = "busy"
	AvailabilityOffline   = "offline"
)

// Verification statuses
const (
	VerificationUnverified = "unverified"
	VerificationBasic      = "basic_verified"
	VerificationTrusted    = "trusted_verified"
)

// UserStats holds the accumulated counters the reputation engine scores from
type UserStats struct {
	CompletedJobs int `db:"completed_jobs" json:"completed_jobs"`
	CancelledJobs int `db:"cancelled_jobs" json:"cancelled_jobs"`
	TotalRatings  int `db:"total_ratings" json:"total_ratings"`
	RatingSum     int `db:"rating_sum" json:"rating_sum"`
}

// User is a participant: a client posting jobs, a worker taking them, or an admin
type User struct {
	UserID             string       `db:"user_id" json:"user_id"`
	Name               string       `db:"name" json:"name"`
	Role               string       `db:"role" json:"role"`
	Skills             []string     `db:"skills" json:"skills"`
	StationStart       string       `db:"station_start" json:"station_start"`
	StationEnd         string       `db:"station_end" json:"station_end"`
	ExpectedRate       float64      `db:"expected_rate" json:"expected_rate"`
	Availability       string       `db:"availability" json:"availability"`
	VerificationStatus string       `db:"verification_status" json:"verification_status"`
	ReliabilityScore   int          `db:"reliability_score" json:"reliability_score"`
	RiskLevel          string       `db:"risk_level" json:"risk_level"`
	DisputeCount       int          `db:"dispute_count" json:"dispute_count"`
	Banned             bool         `db:"banned" json:"banned"`
	Stats              UserStats    `json:"stats"`
	Version            int64        `db:"version" json:"-"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at" json:"updated_at"`
}

// HasSkill reports whether the user declared the skill. A user with no
// declared skills is treated as matching everything.
func (u *User) HasSkill(skill string) bool {
	if len(u.Skills) == 0 {
		return true
	}
	for _, s := range u.Skills {
		if s == skill {
			return true
		}
	}
	return false
}
