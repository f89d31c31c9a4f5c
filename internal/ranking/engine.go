// Package ranking orders open jobs for a worker. Scoring is a pure
// function over already-committed state; the constants are tuned
// heuristics preserved for behavioural parity with production traffic.
package ranking

import (
	"math"
	"sort"
	"time"

	"github.com/corridorworks/corridor-be/internal/domain"
)

// Budget compatibility tiers
const (
	BudgetGood       = "good"
	BudgetNegotiable = "negotiable"
	BudgetPoor       = "poor"
	BudgetUnknown    = "unknown"
)

// WorkerProfile is the requesting worker's snapshot, supplied by the caller
type WorkerProfile struct {
	WorkerID         string
	Skills           []string
	StationRange     domain.StationRange
	ExpectedRate     float64
	ReliabilityScore int
	RiskLevel        string
}

// ClientSnapshot is the posting client's reputation at ranking time
type ClientSnapshot struct {
	ReliabilityScore int
	RiskLevel        string
}

// RankedJob is one scored candidate in a worker's feed
type RankedJob struct {
	Job                 domain.Job `json:"job"`
	Score               int        `json:"score"`
	SuccessProbability  int        `json:"success_probability"`
	BudgetCompatibility string     `json:"budget_compatibility"`
	StationOverlap      float64    `json:"station_overlap"`
	SkillMatch          bool       `json:"skill_match"`
}

// Engine scores candidate jobs against a worker profile
type Engine struct {
	corridor *domain.Corridor
}

// NewEngine creates a ranking engine over the given corridor.
func NewEngine(corridor *domain.Corridor) *Engine {
	return &Engine{corridor: corridor}
}

// BudgetCompatibility tiers a job budget against the worker's expected
// rate: good if budget covers it, negotiable down to 70%, else poor.
// Workers with no declared rate get unknown.
func BudgetCompatibility(budget, expectedRate float64) string {
	if expectedRate <= 0 {
		return BudgetUnknown
	}
	if budget >= expectedRate {
		return BudgetGood
	}
	if budget >= expectedRate*0.7 {
		return BudgetNegotiable
	}
	return BudgetPoor
}

// EconomicStrength is a step multiplier on the budget term keyed to the
// client's reliability.
func EconomicStrength(clientScore int) float64 {
	switch {
	case clientScore >= 80:
		return 1.25
	case clientScore >= 60:
		return 1.1
	case clientScore >= 40:
		return 1.0
	case clientScore >= 25:
		return 0.85
	default:
		return 0.65
	}
}

// SuccessProbability estimates the chance the engagement completes,
// clamped to [5,95].
func SuccessProbability(clientScore int, compatibility string, stationOverlap float64, skillMatch bool) int {
	probability := 50.0

	probability += float64(clientScore-50) * 0.4

	switch compatibility {
	case BudgetGood:
		probability += 18
	case BudgetNegotiable:
		probability += 6
	case BudgetPoor:
		probability -= 22
	}

	probability += stationOverlap * 8

	if skillMatch {
		probability += 10
	} else {
		probability -= 35
	}

	if probability < 5 {
		probability = 5
	}
	if probability > 95 {
		probability = 95
	}

	return int(math.Round(probability))
}

// JobScore computes the composite ordering score for one candidate job.
func JobScore(job domain.Job, compatibility string, skillMatch bool, stationOverlap float64,
	clientScore, workerScore, successProbability int, clientRisk string, now time.Time) int {

	score := math.Min(job.Budget, 1000) * 0.5 * EconomicStrength(clientScore)

	switch compatibility {
	case BudgetGood:
		score += 120
	case BudgetNegotiable:
		score += 60
	case BudgetPoor:
		score -= 40
	}

	if skillMatch {
		score += 80
	} else {
		score -= 100
	}

	score += stationOverlap * 70

	score += float64(clientScore-50) * 1.5
	score += float64(workerScore-50) * 1.0

	score += float64(successProbability) * 0.8

	hoursOld := now.Sub(job.CreatedAt).Hours()
	score -= math.Min(hoursOld, 24) * 4

	switch clientRisk {
	case domain.RiskDangerous:
		score -= 80
	case domain.RiskRisky:
		score -= 25
	}

	return int(math.Round(score))
}

// Rank scores and orders the candidate open jobs for the worker. Jobs the
// worker created or rejected are excluded, and a dangerous-risk worker
// gets an empty feed outright. Ordering is score descending with creation
// time descending as the tiebreak, so repeated calls over the same inputs
// return the same order.
func (e *Engine) Rank(worker WorkerProfile, jobs []domain.Job, clients map[string]ClientSnapshot, now time.Time) []RankedJob {
	if worker.RiskLevel == domain.RiskDangerous {
		return nil
	}

	ranked := make([]RankedJob, 0, len(jobs))
	for _, job := range jobs {
		if job.CreatedBy == worker.WorkerID || job.HasRejected(worker.WorkerID) {
			continue
		}

		client := clients[job.CreatedBy]

		compatibility := BudgetCompatibility(job.Budget, worker.ExpectedRate)
		overlap := e.corridor.OverlapStrength(job.StationRange, worker.StationRange)
		skillMatch := matchesSkill(worker.Skills, job.SkillRequired)
		probability := SuccessProbability(client.ReliabilityScore, compatibility, overlap, skillMatch)

		ranked = append(ranked, RankedJob{
			Job:                 job,
			Score:               JobScore(job, compatibility, skillMatch, overlap, client.ReliabilityScore, worker.ReliabilityScore, probability, client.RiskLevel, now),
			SuccessProbability:  probability,
			BudgetCompatibility: compatibility,
			StationOverlap:      overlap,
			SkillMatch:          skillMatch,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Job.CreatedAt.After(ranked[j].Job.CreatedAt)
	})

	return ranked
}

func matchesSkill(skills []string, required string) bool {
	if len(skills) == 0 {
		return true
	}
	for _, s := range skills {
		if s == required {
			return true
		}
	}
	return false
}
