package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/corridorworks/corridor-be/internal/domain"
)

// MemoryStore is an in-process EntityStore with the same CAS semantics as
// the Postgres store. Used by tests and local development.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	jobs     map[string]*domain.Job
	payments map[string]*domain.Payment
	disputes map[string]*domain.Dispute
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*domain.User),
		jobs:     make(map[string]*domain.Job),
		payments: make(map[string]*domain.Payment),
		disputes: make(map[string]*domain.Dispute),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.UserID]; ok {
		return domain.Conflictf("user %s already exists", user.UserID)
	}
	user.Version = 1
	s.users[user.UserID] = user.Clone()
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return user.Clone(), nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.UserID]
	if !ok {
		return fmt.Errorf("user %s: %w", user.UserID, domain.ErrNotFound)
	}
	if current.Version != user.Version {
		return domain.Conflictf("user %s modified concurrently", user.UserID)
	}
	user.Version++
	s.users[user.UserID] = user.Clone()
	return nil
}

func (s *MemoryStore) CreateJob(ctx context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.JobID]; ok {
		return domain.Conflictf("job %s already exists", job.JobID)
	}
	job.Version = 1
	s.jobs[job.JobID] = job.Clone()
	return nil
}

func (s *MemoryStore) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	}
	return job.Clone(), nil
}

func (s *MemoryStore) UpdateJob(ctx context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateJobLocked(job)
}

func (s *MemoryStore) updateJobLocked(job *domain.Job) error {
	current, ok := s.jobs[job.JobID]
	if !ok {
		return fmt.Errorf("job %s: %w", job.JobID, domain.ErrNotFound)
	}
	if current.Version != job.Version {
		return domain.Conflictf("job %s modified concurrently", job.JobID)
	}
	job.Version++
	s.jobs[job.JobID] = job.Clone()
	return nil
}

func (s *MemoryStore) ListOpenJobs(ctx context.Context) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var jobs []domain.Job
	for _, job := range s.jobs {
		if job.Status == domain.JobStatusOpen {
			jobs = append(jobs, *job.Clone())
		}
	}
	return jobs, nil
}

func (s *MemoryStore) ListExpiredOpenJobs(ctx context.Context, now time.Time) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var jobs []domain.Job
	for _, job := range s.jobs {
		if job.Status == domain.JobStatusOpen && job.ExpiresAt.Before(now) {
			jobs = append(jobs, *job.Clone())
		}
	}
	return jobs, nil
}

func (s *MemoryStore) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, ok := s.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", paymentID, domain.ErrNotFound)
	}
	return payment.Clone(), nil
}

func (s *MemoryStore) GetPaymentByJob(ctx context.Context, jobID string) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, payment := range s.payments {
		if payment.JobID == jobID {
			return payment.Clone(), nil
		}
	}
	return nil, fmt.Errorf("payment for job %s: %w", jobID, domain.ErrNotFound)
}

func (s *MemoryStore) UpdatePayment(ctx context.Context, payment *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.payments[payment.PaymentID]
	if !ok {
		return fmt.Errorf("payment %s: %w", payment.PaymentID, domain.ErrNotFound)
	}
	if current.Version != payment.Version {
		return domain.Conflictf("payment %s modified concurrently", payment.PaymentID)
	}
	payment.Version++
	s.payments[payment.PaymentID] = payment.Clone()
	return nil
}

func (s *MemoryStore) ListOverduePayments(ctx context.Context, now time.Time) ([]domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payments []domain.Payment
	for _, payment := range s.payments {
		if payment.Status == domain.PaymentStatusPending && payment.DeadlineAt.Before(now) {
			payments = append(payments, *payment.Clone())
		}
	}
	return payments, nil
}

func (s *MemoryStore) CreateDispute(ctx context.Context, dispute *domain.Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.disputes[dispute.DisputeID]; ok {
		return domain.Conflictf("dispute %s already exists", dispute.DisputeID)
	}
	dispute.Version = 1
	s.disputes[dispute.DisputeID] = dispute.Clone()
	return nil
}

func (s *MemoryStore) GetDispute(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dispute, ok := s.disputes[disputeID]
	if !ok {
		return nil, fmt.Errorf("dispute %s: %w", disputeID, domain.ErrNotFound)
	}
	return dispute.Clone(), nil
}

func (s *MemoryStore) UpdateDispute(ctx context.Context, dispute *domain.Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.disputes[dispute.DisputeID]
	if !ok {
		return fmt.Errorf("dispute %s: %w", dispute.DisputeID, domain.ErrNotFound)
	}
	if current.Version != dispute.Version {
		return domain.Conflictf("dispute %s modified concurrently", dispute.DisputeID)
	}
	dispute.Version++
	s.disputes[dispute.DisputeID] = dispute.Clone()
	return nil
}

func (s *MemoryStore) HasPendingDispute(ctx context.Context, jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, dispute := range s.disputes {
		if dispute.JobID == jobID && dispute.Status == domain.DisputeStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) CompleteJobWithPayment(ctx context.Context, job *domain.Job, payment *domain.Payment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.updateJobLocked(job); err != nil {
		return false, err
	}

	for _, existing := range s.payments {
		if existing.JobID == job.JobID {
			return false, nil
		}
	}

	payment.Version = 1
	s.payments[payment.PaymentID] = payment.Clone()
	return true, nil
}
