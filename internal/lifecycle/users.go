package lifecycle

import (
	"context"
	"log/slog"

	"github.com/corridorworks/corridor-be/internal/domain"
	"github.com/corridorworks/corridor-be/internal/reputation"
)

// RecomputeReputation rebuilds a user's reliability score from their
// accumulated stats. On-demand entry point for admin tooling; the same
// recompute runs automatically after completions, cancellations, ratings
// and payment verification.
func (s *Service) RecomputeReputation(ctx context.Context, userID string) (int, error) {
	var score int
	err := s.updateUser(ctx, userID, func(u *domain.User) {
		u.ReliabilityScore = reputation.Recompute(u.Stats, u.DisputeCount)
		u.RiskLevel = reputation.RiskLevel(u.DisputeCount)
		score = u.ReliabilityScore
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Reputation recomputed",
		slog.String("user_id", userID),
		slog.Int("score", score),
	)
	return score, nil
}

// ToggleBan flips a user's banned flag. Admin only.
func (s *Service) ToggleBan(ctx context.Context, adminID, userID string) (*domain.User, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	var updated *domain.User
	err := s.updateUser(ctx, userID, func(u *domain.User) {
		u.Banned = !u.Banned
		updated = u
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ban toggled",
		slog.String("user_id", userID),
		slog.Bool("banned", updated.Banned),
	)
	return updated, nil
}

// Verification actions
const (
	VerificationPromote = "promote"
	VerificationDemote  = "demote"
	VerificationReset   = "reset"
)

// UpdateVerification moves a user along the verification ladder:
// unverified <-> basic_verified <-> trusted_verified, or resets.
func (s *Service) UpdateVerification(ctx context.Context, adminID, userID, action string) (*domain.User, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	switch action {
	case VerificationPromote, VerificationDemote, VerificationReset:
	default:
		return nil, domain.Validationf("unknown verification action %q", action)
	}

	var updated *domain.User
	err := s.updateUser(ctx, userID, func(u *domain.User) {
		switch action {
		case VerificationPromote:
			switch u.VerificationStatus {
			case domain.VerificationUnverified:
				u.VerificationStatus = domain.VerificationBasic
			case domain.VerificationBasic:
				u.VerificationStatus = domain.VerificationTrusted
			}
		case VerificationDemote:
			switch u.VerificationStatus {
			case domain.VerificationTrusted:
				u.VerificationStatus = domain.VerificationBasic
			case domain.VerificationBasic:
				u.VerificationStatus = domain.VerificationUnverified
			}
		case VerificationReset:
			u.VerificationStatus = domain.VerificationUnverified
		}
		updated = u
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// SetAvailability lets a user mark themselves available, busy or offline.
func (s *Service) SetAvailability(ctx context.Context, userID, availability string) (*domain.User, error) {
	switch availability {
	case domain.AvailabilityAvailable, domain.AvailabilityBusy, domain.AvailabilityOffline:
	default:
		return nil, domain.Validationf("unknown availability %q", availability)
	}

	var updated *domain.User
	err := s.updateUser(ctx, userID, func(u *domain.User) {
		u.Availability = availability
		updated = u
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) requireAdmin(ctx context.Context, adminID string) error {
	admin, err := s.store.GetUser(ctx, adminID)
	if err != nil {
		return err
	}
	if admin.Role != domain.RoleAdmin {
		return domain.Forbiddenf("user %s is not an admin", adminID)
	}
	return nil
}
