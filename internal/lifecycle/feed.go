package lifecycle

import (
	"context"

	"github.com/corridorworks/corridor-be/internal/domain"
	"github.com/corridorworks/corridor-be/internal/ranking"
)

// FeedFilters narrows the open-job candidate set before ranking
type FeedFilters struct {
	Skill       string
	StationFrom string
	StationTo   string
}

// RankedFeed returns the open jobs a worker may take, scored and ordered
// by the ranking engine. The candidate set excludes jobs the worker
// created or rejected; a dangerous-risk worker gets an empty feed.
func (s *Service) RankedFeed(ctx context.Context, workerID string, filters FeedFilters) ([]ranking.RankedJob, error) {
	worker, err := s.requireActiveWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}

	jobs, err := s.store.ListOpenJobs(ctx)
	if err != nil {
		return nil, err
	}

	filtered := jobs[:0]
	filterRange := domain.StationRange{From: filters.StationFrom, To: filters.StationTo}
	useRange := filters.StationFrom != "" && filters.StationTo != ""
	for _, job := range jobs {
		if filters.Skill != "" && job.SkillRequired != filters.Skill {
			continue
		}
		if useRange && !s.corridor.Overlaps(job.StationRange, filterRange) {
			continue
		}
		filtered = append(filtered, job)
	}

	clients := make(map[string]ranking.ClientSnapshot)
	for _, job := range filtered {
		if _, ok := clients[job.CreatedBy]; ok {
			continue
		}
		client, err := s.store.GetUser(ctx, job.CreatedBy)
		if err != nil {
			return nil, err
		}
		clients[job.CreatedBy] = ranking.ClientSnapshot{
			ReliabilityScore: client.ReliabilityScore,
			RiskLevel:        client.RiskLevel,
		}
	}

	profile := ranking.WorkerProfile{
		WorkerID:         worker.UserID,
		Skills:           worker.Skills,
		StationRange:     domain.StationRange{From: worker.StationStart, To: worker.StationEnd},
		ExpectedRate:     worker.ExpectedRate,
		ReliabilityScore: worker.ReliabilityScore,
		RiskLevel:        worker.RiskLevel,
	}

	engine := ranking.NewEngine(s.corridor)
	return engine.Rank(profile, filtered, clients, s.now()), nil
}
