package usage

import (
	"fmt"
	"strings"
	"time"
)

// Window is the trailing period counted against the weekly limit.
const Window = 7 * 24 * time.Hour

var weeklyLimits = map[Tier]int{
	TierFree:  3,
	TierTrial: 10,
	TierPro:   30,
}

// WeeklyLimit returns the allowance for tier; unknown tiers get the free allowance.
func WeeklyLimit(tier Tier) int {
	if n, ok := weeklyLimits[tier]; ok {
		return n
	}
	return weeklyLimits[TierFree]
}

// ParseTier validates a stored or user-supplied tier name.
func ParseTier(raw string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := weeklyLimits[t]; !ok {
		return "", fmt.Errorf("unknown tier %q (want free, trial or pro)", raw)
	}
	return t, nil
}

// tierOrFree maps missing or unrecognized stored tiers to free.
func tierOrFree(raw string) Tier {
	t, err := ParseTier(raw)
	if err != nil {
		return TierFree
	}
	return t
}

// NextReset returns the first Monday 00:00 UTC strictly after now.
func NextReset(now time.Time) time.Time {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return midnight.AddDate(0, 0, days)
}
