package lifecycle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corridorworks/corridor-be/internal/domain"
	"github.com/corridorworks/corridor-be/internal/events"
	"github.com/corridorworks/corridor-be/internal/storage"
)

type lifecycleFixture struct {
	store   *storage.MemoryStore
	service *Service
	now     time.Time
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	store := storage.NewMemoryStore()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	users := []*domain.User{
		{UserID: "client-1", Role: domain.RoleClient, ReliabilityScore: 50, RiskLevel: domain.RiskNormal},
		{UserID: "worker-1", Role: domain.RoleWorker, ReliabilityScore: 50, RiskLevel: domain.RiskNormal},
		{UserID: "worker-2", Role: domain.RoleWorker, ReliabilityScore: 50, RiskLevel: domain.RiskNormal},
		{UserID: "admin-1", Role: domain.RoleAdmin, ReliabilityScore: 50, RiskLevel: domain.RiskNormal},
		{UserID: "banned-1", Role: domain.RoleWorker, Banned: true, ReliabilityScore: 50, RiskLevel: domain.RiskNormal},
	}
	for _, u := range users {
		require.NoError(t, store.CreateUser(ctx, u))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewService(store, events.NoopPublisher{}, domain.NewCorridor(nil), logger).
		WithClock(func() time.Time { return now })

	return &lifecycleFixture{store: store, service: service, now: now}
}

func validInput() CreateJobInput {
	return CreateJobInput{
		Title:         "Unload cement bags",
		Description:   "Two hours of unloading at the depot",
		SkillRequired: "loading",
		StationFrom:   "Vasai",
		StationTo:     "Nalasopara",
		Budget:        600,
	}
}

func (f *lifecycleFixture) openJob(t *testing.T) *domain.Job {
	t.Helper()
	job, err := f.service.Create(context.Background(), "client-1", validInput())
	require.NoError(t, err)
	return job
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("posts an open job with a 24 hour TTL", func(t *testing.T) {
		f := newLifecycleFixture(t)

		job, err := f.service.Create(ctx, "client-1", validInput())
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusOpen, job.Status)
		assert.Equal(t, "client-1", job.CreatedBy)
		assert.Empty(t, job.AssignedWorker)
		assert.Equal(t, f.now.Add(JobTTL), job.ExpiresAt)
	})

	t.Run("validation", func(t *testing.T) {
		mutations := map[string]func(*CreateJobInput){
			"missing title":       func(in *CreateJobInput) { in.Title = "" },
			"missing description": func(in *CreateJobInput) { in.Description = "" },
			"missing skill":       func(in *CreateJobInput) { in.SkillRequired = "" },
			"zero budget":         func(in *CreateJobInput) { in.Budget = 0 },
			"negative budget":     func(in *CreateJobInput) { in.Budget = -50 },
			"unknown station":     func(in *CreateJobInput) { in.StationFrom = "Borivali" },
		}
		for name, mutate := range mutations {
			t.Run(name, func(t *testing.T) {
				f := newLifecycleFixture(t)
				input := validInput()
				mutate(&input)

				_, err := f.service.Create(ctx, "client-1", input)
				assert.ErrorIs(t, err, domain.ErrValidation)
			})
		}
	})

	t.Run("banned creator is refused", func(t *testing.T) {
		f := newLifecycleFixture(t)

		_, err := f.service.Create(ctx, "banned-1", validInput())
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestAccept(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns the open job to the worker", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := f.openJob(t)

		accepted, err := f.service.Accept(ctx, job.JobID, "worker-1")
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusAssigned, accepted.Status)
		assert.Equal(t, "worker-1", accepted.AssignedWorker)
	})

	t.Run("clients cannot accept", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := f.openJob(t)

		_, err := f.service.Accept(ctx, job.JobID, "client-1")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("banned worker is refused", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := f.openJob(t)

		_, err := f.service.Accept(ctx, job.JobID, "banned-1")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("already assigned job conflicts", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := f.openJob(t)

		_, err := f.service.Accept(ctx, job.JobID, "worker-1")
		require.NoError(t, err)

		_, err = f.service.Accept(ctx, job.JobID, "worker-2")
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("exactly one concurrent accept wins", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := f.openJob(t)

		const workers = 16
		for i := 0; i < workers; i++ {
			require.NoError(t, f.store.CreateUser(ctx, &domain.User{
				UserID:    fmt.Sprintf("racer-%d", i),
				Role:      domain.RoleWorker,
				RiskLevel: domain.RiskNormal,
			}))
		}

		var wg sync.WaitGroup
		wins := make(chan string, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(workerID string) {
				defer wg.Done()
				if _, err := f.service.Accept(ctx, job.JobID, workerID); err == nil {
					wins <- workerID
				}
			}(fmt.Sprintf("racer-%d", i))
		}
		wg.Wait()
		close(wins)

		var winners []string
		for w := range wins {
			winners = append(winners, w)
		}
		require.Len(t, winners, 1)

		got, err := f.store.GetJob(ctx, job.JobID)
		require.NoError(t, err)
		assert.Equal(t, winners[0], got.AssignedWorker)
	})
}

func TestReject(t *testing.T) {
	ctx := context.Background()

	t.Run("records the rejection", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := f.openJob(t)

		rejected, err := f.service.Reject(ctx, job.JobID, "worker-1")
		require.NoError(t, err)
		assert.True(t, rejected.HasRejected("worker-1"))
		assert.Equal(t, domain.JobStatusOpen, rejected.Status)
	})

	t.Run("duplicate rejection fails", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := f.openJob(t)

		_, err := f.service.Reject(ctx, job.JobID, "worker-1")
		require.NoError(t, err)

		_, err = f.service.Reject(ctx, job.JobID, "worker-1")
		assert.ErrorIs(t, err, domain.ErrAlreadyRejected)
	})

	t.Run("only open jobs can be rejected", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := f.openJob(t)
		_, err := f.service.Accept(ctx, job.JobID, "worker-1")
		require.NoError(t, err)

		_, err = f.service.Reject(ctx, job.JobID, "worker-2")
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("opens escrow and credits the worker", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := f.openJob(t)
		_, err := f.service.Accept(ctx, job.JobID, "worker-1")
		require.NoError(t, err)

		completed, err := f.service.Complete(ctx, job.JobID, "worker-1")
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusCompleted, completed.Status)

		payment, err := f.store.GetPaymentByJob(ctx, job.JobID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusPending, payment.Status)
		assert.Equal(t, job.Budget, payment.Amount)
		assert.Equal(t, "client-1", payment.ClientID)
		assert.Equal(t, "worker-1", payment.WorkerID)
		assert.Equal(t, f.now.Add(PaymentDeadline), payment.DeadlineAt)

		worker, err := f.store.GetUser(ctx, "worker-1")
		require.NoError(t, err)
		assert.Equal(t, 1, worker.Stats.CompletedJobs)
		assert.Equal(t, 80, worker.ReliabilityScore)
	})

	t.Run("only the assigned worker can complete", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := f.openJob(t)
		_, err := f.service.Accept(ctx, job.JobID, "worker-1")
		require.NoError(t, err)

		_, err = f.service.Complete(ctx, job.JobID, "worker-2")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("open job cannot be completed", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := f.openJob(t)

		_, err := f.service.Complete(ctx, job.JobID, "worker-1")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("repeat completion conflicts and keeps one payment", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := f.openJob(t)
		_, err := f.service.Accept(ctx, job.JobID, "worker-1")
		require.NoError(t, err)
		_, err = f.service.Complete(ctx, job.JobID, "worker-1")
		require.NoError(t, err)

		_, err = f.service.Complete(ctx, job.JobID, "worker-1")
		assert.ErrorIs(t, err, domain.ErrConflict)

		_, err = f.store.GetPaymentByJob(ctx, job.JobID)
		assert.NoError(t, err)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("participant cancellation charges their stats", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := f.openJob(t)

		cancelled, err := f.service.Cancel(ctx, job.JobID, "client-1", "found someone locally")
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusCancelled, cancelled.Status)
		require.NotNil(t, cancelled.Cancellation)
		assert.Equal(t, "client-1", cancelled.Cancellation.By)

		client, err := f.store.GetUser(ctx, "client-1")
		require.NoError(t, err)
		assert.Equal(t, 1, client.Stats.CancelledJobs)
		assert.Equal(t, 30, client.ReliabilityScore)
	})

	t.Run("admin force-cancel leaves admin stats alone", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := f.openJob(t)

		_, err := f.service.Cancel(ctx, job.JobID, "admin-1", "fraudulent posting")
		require.NoError(t, err)

		admin, err := f.store.GetUser(ctx, "admin-1")
		require.NoError(t, err)
		assert.Zero(t, admin.Stats.CancelledJobs)
		assert.Equal(t, 50, admin.ReliabilityScore)
	})

	t.Run("strangers cannot cancel", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := f.openJob(t)

		_, err := f.service.Cancel(ctx, job.JobID, "worker-2", "")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("completed job cannot be cancelled", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := f.openJob(t)
		_, err := f.service.Accept(ctx, job.JobID, "worker-1")
		require.NoError(t, err)
		_, err = f.service.Complete(ctx, job.JobID, "worker-1")
		require.NoError(t, err)

		_, err = f.service.Cancel(ctx, job.JobID, "client-1", "")
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestRate(t *testing.T) {
	ctx := context.Background()

	completedJob := func(t *testing.T, f *lifecycleFixture) *domain.Job {
		t.Helper()
		job := f.openJob(t)
		_, err := f.service.Accept(ctx, job.JobID, "worker-1")
		require.NoError(t, err)
		job, err = f.service.Complete(ctx, job.JobID, "worker-1")
		require.NoError(t, err)
		return job
	}

	t.Run("client rating lands on the worker", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := completedJob(t, f)

		rated, err := f.service.Rate(ctx, job.JobID, "client-1", 5, "showed up on time")
		require.NoError(t, err)
		require.NotNil(t, rated.ClientRating)
		assert.Equal(t, 5, rated.ClientRating.Score)
		assert.Nil(t, rated.WorkerRating)

		worker, err := f.store.GetUser(ctx, "worker-1")
		require.NoError(t, err)
		assert.Equal(t, 1, worker.Stats.TotalRatings)
		assert.Equal(t, 5, worker.Stats.RatingSum)
		assert.Equal(t, 100, worker.ReliabilityScore)
	})

	t.Run("each direction rates once", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := completedJob(t, f)

		_, err := f.service.Rate(ctx, job.JobID, "client-1", 4, "")
		require.NoError(t, err)
		_, err = f.service.Rate(ctx, job.JobID, "client-1", 5, "")
		assert.ErrorIs(t, err, domain.ErrConflict)

		_, err = f.service.Rate(ctx, job.JobID, "worker-1", 3, "")
		assert.NoError(t, err)
	})

	t.Run("rating bounds", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := completedJob(t, f)

		for _, rating := range []int{0, 6, -1} {
			_, err := f.service.Rate(ctx, job.JobID, "client-1", rating, "")
			assert.ErrorIs(t, err, domain.ErrValidation)
		}
	})

	t.Run("only completed jobs can be rated", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := f.openJob(t)

		_, err := f.service.Rate(ctx, job.JobID, "client-1", 4, "")
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("non-participants cannot rate", func(t *testing.T) {
		f := newLifecycleFixture(t)
		job := completedJob(t, f)

		_, err := f.service.Rate(ctx, job.JobID, "worker-2", 4, "")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestRecomputeReputation(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	worker, err := f.store.GetUser(ctx, "worker-1")
	require.NoError(t, err)
	worker.Stats = domain.UserStats{CompletedJobs: 4, CancelledJobs: 1, TotalRatings: 3, RatingSum: 12}
	worker.DisputeCount = 1
	require.NoError(t, f.store.UpdateUser(ctx, worker))

	score, err := f.service.RecomputeReputation(ctx, "worker-1")
	require.NoError(t, err)
	assert.Equal(t, 84, score)
}

func TestToggleBan(t *testing.T) {
	ctx := context.Background()

	t.Run("admin flips the flag both ways", func(t *testing.T) {
		f := newLifecycleFixture(t)

		user, err := f.service.ToggleBan(ctx, "admin-1", "worker-1")
		require.NoError(t, err)
		assert.True(t, user.Banned)

		user, err = f.service.ToggleBan(ctx, "admin-1", "worker-1")
		require.NoError(t, err)
		assert.False(t, user.Banned)
	})

	t.Run("non-admin is refused", func(t *testing.T) {
		f := newLifecycleFixture(t)

		_, err := f.service.ToggleBan(ctx, "client-1", "worker-1")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestSetAvailability(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	user, err := f.service.SetAvailability(ctx, "worker-1", domain.AvailabilityBusy)
	require.NoError(t, err)
	assert.Equal(t, domain.AvailabilityBusy, user.Availability)

	_, err = f.service.SetAvailability(ctx, "worker-1", "on-leave")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateVerification(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	steps := []struct {
		action string
		want   string
	}{
		{VerificationPromote, domain.VerificationBasic},
		{VerificationPromote, domain.VerificationTrusted},
		{VerificationPromote, domain.VerificationTrusted},
		{VerificationDemote, domain.VerificationBasic},
		{VerificationReset, domain.VerificationUnverified},
	}
	for _, step := range steps {
		user, err := f.service.UpdateVerification(ctx, "admin-1", "worker-1", step.action)
		require.NoError(t, err)
		assert.Equal(t, step.want, user.VerificationStatus)
	}

	_, err := f.service.UpdateVerification(ctx, "admin-1", "worker-1", "certify")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
