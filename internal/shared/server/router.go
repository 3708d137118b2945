package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cvbuilder-backend/internal/shared/metrics"
	"cvbuilder-backend/internal/shared/server/middleware"
	"cvbuilder-backend/internal/shared/server/respond"
)

// Registrar attaches a feature's routes to the authenticated /api/v1 group.
type Registrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries everything NewRouter wires; features arrive pre-built.
type RouterDeps struct {
	Verifier    middleware.Verifier
	CORSOrigins []string
	Release     bool
	Health      func(c *gin.Context)
	Modules     []Registrar
}

// Public prefixes skip identity checks.
var publicPrefixes = []string{
	"/api/v1/health",
	"/api/v1/auth/google/",
	"/metrics",
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		metrics.GinMiddleware(),
		middleware.CORS(deps.CORSOrigins),
		middleware.Auth(deps.Verifier, publicPrefixes...),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	health := deps.Health
	if health == nil {
		health = func(c *gin.Context) {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
		}
	}
	api.GET("/health", health)
	for _, m := range deps.Modules {
		if m != nil {
			m.RegisterRoutes(api)
		}
	}
	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
