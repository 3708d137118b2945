package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"cvbuilder-backend/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

type retrying struct {
	base    Provider
	retries int
	delay   time.Duration
}

// WithRetry retries transient provider failures up to retries times with linear backoff.
func WithRetry(base Provider, retries int) Provider {
	if base == nil || retries <= 0 {
		return base
	}
	return retrying{base: base, retries: retries, delay: retryBaseDelay}
}

func (r retrying) GenerateText(ctx context.Context, promptTemplate string, payload any) (json.RawMessage, error) {
	resp, err := r.base.GenerateText(ctx, promptTemplate, payload)
	for attempt := 1; attempt <= r.retries && err != nil && ShouldRetry(err); attempt++ {
		telemetry.Warn("llm.retry", map[string]any{"attempt": attempt, "error": err})
		select {
		case <-time.After(r.delay * time.Duration(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		resp, err = r.base.GenerateText(ctx, promptTemplate, payload)
	}
	return resp, err
}

// ShouldRetry reports whether err looks transient. Context expiry is final.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == 429 || statusErr.Code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, ErrInvalidJSON) || errors.Is(err, ErrEmptyResponse) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "unexpected eof")
}
