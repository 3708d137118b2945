package usage

import (
	"context"
	"fmt"
	"time"
)

// TierSource looks up a user's stored tier; "" means none.
type TierSource interface {
	GetTier(ctx context.Context, userID string) (string, error)
}

// RequestCounter counts optimization requests a user created at or after since.
type RequestCounter interface {
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// Service derives weekly limits from the stored tier and recent request history.
type Service struct {
	Tiers   TierSource
	Counter RequestCounter
	Now     func() time.Time
}

// NewService constructs a Service.
func NewService(tiers TierSource, counter RequestCounter) *Service {
	return &Service{Tiers: tiers, Counter: counter, Now: time.Now}
}

// CheckUserUsage returns the user's limits as of now.
func (s *Service) CheckUserUsage(ctx context.Context, userID string) (Limits, error) {
	raw, err := s.Tiers.GetTier(ctx, userID)
	if err != nil {
		return Limits{}, fmt.Errorf("lookup tier: %w", err)
	}
	tier := tierOrFree(raw)

	now := s.now()
	used, err := s.Counter.CountSince(ctx, userID, now.Add(-Window))
	if err != nil {
		return Limits{}, fmt.Errorf("count requests: %w", err)
	}
	limit := WeeklyLimit(tier)
	return Limits{
		Tier:         tier,
		WeeklyLimit:  limit,
		CurrentUsage: used,
		ResetDate:    NextReset(now),
		CanUseAI:     used < limit,
	}, nil
}

// Require returns a *QuotaExceededError when the user has no allowance left.
func (s *Service) Require(ctx context.Context, userID string) (Limits, error) {
	limits, err := s.CheckUserUsage(ctx, userID)
	if err != nil {
		return Limits{}, err
	}
	if !limits.CanUseAI {
		return limits, &QuotaExceededError{Limits: limits}
	}
	return limits, nil
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
