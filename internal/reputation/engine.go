// Package reputation scores a participant's accumulated stats into a
// clamped [0,100] reliability score. Recompute is a full recomputation,
// not an incremental delta, so calling it repeatedly for the same stats
// always yields the same value.
package reputation

import (
	"math"

	"github.com/corridorworks/corridor-be/internal/domain"
)

const (
	// Baseline is the neutral starting score for a new participant
	Baseline = 50

	// MinScore and MaxScore bound every reliability score
	MinScore = 0
	MaxScore = 100
)

// Recompute maps accumulated stats and the dispute count to a reliability
// score:
//
//	50 + completionRatio*30 + avgRating*4 - cancellationRatio*20 - disputes*2
//
// rounded to the nearest integer and clamped to [0,100].
func Recompute(stats domain.UserStats, disputeCount int) int {
	totalJobs := stats.CompletedJobs + stats.CancelledJobs

	var completionRatio, cancellationRatio float64
	if totalJobs > 0 {
		completionRatio = float64(stats.CompletedJobs) / float64(totalJobs)
		cancellationRatio = float64(stats.CancelledJobs) / float64(totalJobs)
	}

	var avgRating float64
	if stats.TotalRatings > 0 {
		avgRating = float64(stats.RatingSum) / float64(stats.TotalRatings)
	}

	score := Baseline +
		completionRatio*30 +
		avgRating*4 -
		cancellationRatio*20 -
		float64(disputeCount)*2

	return Clamp(int(math.Round(score)))
}

// Apply adds a direct delta (dispute penalties, overdue-payment
// penalties) to a stored score and clamps the result.
func Apply(current, delta int) int {
	return Clamp(current + delta)
}

// Clamp bounds a score to [0,100].
func Clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// RiskLevel buckets a participant by dispute count: >=5 dangerous,
// >=2 risky, else normal. Risk gates ranking visibility, it is not a
// score penalty.
func RiskLevel(disputeCount int) string {
	switch {
	case disputeCount >= 5:
		return domain.RiskDangerous
	case disputeCount >= 2:
		return domain.RiskRisky
	default:
		return domain.RiskNormal
	}
}
