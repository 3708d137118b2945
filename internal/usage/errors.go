package usage

import (
	"errors"
	"fmt"
	"time"
)

// ErrQuotaExceeded matches any QuotaExceededError through errors.Is.
var ErrQuotaExceeded = errors.New("weekly AI quota exceeded")

// QuotaExceededError carries the limits that caused the rejection.
type QuotaExceededError struct {
	Limits Limits
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("weekly AI limit reached: %d of %d requests used, resets at %s",
		e.Limits.CurrentUsage, e.Limits.WeeklyLimit, e.Limits.ResetDate.Format(time.RFC3339))
}

func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
