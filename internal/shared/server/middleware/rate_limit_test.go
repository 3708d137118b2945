package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(limiter Limiter, rule RateLimitRule) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		SetUserID(c, "guest:test-guest")
		c.Next()
	})
	r.POST("/api/v1/ai/score", RateLimit("ai", rule, limiter), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRateLimitAllowsBurstThenRejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := newLimitedRouter(NewMemoryLimiter(func() time.Time { return now }), RateLimitRule{Rate: 1, Burst: 2})

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/ai/score", nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d expected 200, got %d", i+1, resp.Code)
		}
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/ai/score", nil))
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("request 3 expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After=1, got %q", resp.Header().Get("Retry-After"))
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				RetryAfterMs int `json:"retryAfterMs"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "rate_limited" || body.Error.Details.RetryAfterMs != 1000 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestMemoryLimiterRefills(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(func() time.Time { return now })
	rule := PerMinute(60, 1)

	if ok, _, _ := l.Allow(nil, "k", rule); !ok {
		t.Fatalf("first call should pass")
	}
	if ok, wait, _ := l.Allow(nil, "k", rule); ok || wait != time.Second {
		t.Fatalf("second call should wait 1s, got ok=%v wait=%s", ok, wait)
	}
	now = now.Add(time.Second)
	if ok, _, _ := l.Allow(nil, "k", rule); !ok {
		t.Fatalf("call after refill should pass")
	}
}

func TestZeroRuleDisablesLimit(t *testing.T) {
	l := NewMemoryLimiter(nil)
	for i := 0; i < 5; i++ {
		if ok, _, _ := l.Allow(nil, "k", RateLimitRule{}); !ok {
			t.Fatalf("expected unlimited rule to pass")
		}
	}
}
