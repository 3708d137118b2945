package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cvbuilder-backend/internal/shared/server/respond"
	"cvbuilder-backend/internal/shared/telemetry"
)

// Pinger is satisfied by *sqlx.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	DB      Pinger
	Timeout time.Duration
}

// NewService constructs a new health service. db may be nil.
func NewService(db Pinger) *Service {
	return &Service{DB: db, Timeout: 2 * time.Second}
}

// Status reports liveness and, when a database is configured, its reachability.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	out := map[string]any{"ok": true}
	if s.DB == nil {
		return out, true
	}
	pingCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		telemetry.Warn("health.db_unreachable", map[string]any{"error": err})
		out["ok"] = false
		out["db"] = "down"
		return out, false
	}
	out["db"] = "up"
	return out, true
}

// Handle serves GET /health.
func (s *Service) Handle(c *gin.Context) {
	body, ok := s.Status(c.Request.Context())
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	respond.JSON(c, status, body)
}
