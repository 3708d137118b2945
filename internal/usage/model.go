package usage

import "time"

// Tier is a subscription level.
type Tier string

const (
	TierFree  Tier = "free"
	TierTrial Tier = "trial"
	TierPro   Tier = "pro"
)

// Limits is a user's weekly AI allowance as of one point in time. It is derived, never stored.
type Limits struct {
	Tier         Tier      `json:"tier"`
	WeeklyLimit  int       `json:"weeklyLimit"`
	CurrentUsage int       `json:"currentUsage"`
	ResetDate    time.Time `json:"resetDate"`
	CanUseAI     bool      `json:"canUseAI"`
}
