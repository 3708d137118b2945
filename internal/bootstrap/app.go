package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	googleauth "cvbuilder-backend/internal/auth"
	"cvbuilder-backend/internal/cvs"
	"cvbuilder-backend/internal/llm"
	"cvbuilder-backend/internal/llm/gemini"
	"cvbuilder-backend/internal/llm/openai"
	"cvbuilder-backend/internal/optimization"
	"cvbuilder-backend/internal/services/health"
	sharedauth "cvbuilder-backend/internal/shared/auth"
	"cvbuilder-backend/internal/shared/config"
	"cvbuilder-backend/internal/shared/server"
	"cvbuilder-backend/internal/shared/server/middleware"
	"cvbuilder-backend/internal/shared/storage/db"
	"cvbuilder-backend/internal/shared/telemetry"
	"cvbuilder-backend/internal/usage"
	"cvbuilder-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config              config.Config
	Router              *gin.Engine
	DB                  *sqlx.DB
	Redis               *redis.Client
	Signer              *sharedauth.Signer
	UsersService        *users.Service
	CVService           *cvs.Service
	UsageService        *usage.Service
	OptimizationService *optimization.Service
}

// Build opens storage, wires services and constructs the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	database, err := OpenDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, DB: database}

	provider, err := buildProvider(ctx, cfg.AI)
	if err != nil {
		app.Close()
		return nil, err
	}
	limiter, err := app.buildLimiter(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Signer = sharedauth.NewSigner(cfg.JWTSecret, cfg.JWTTTL)
	app.UsersService = users.NewService(users.NewSQLRepo(database))
	app.CVService = cvs.NewService(database)

	optRepo := optimization.NewSQLRepo(database)
	app.UsageService = usage.NewService(app.UsersService, optRepo)
	app.OptimizationService = optimization.NewService(optRepo, app.UsageService, app.CVService, llm.WithRetry(provider, cfg.AI.Retries), cfg.AI.PromptVersion)
	app.OptimizationService.Timeout = cfg.AI.Timeout

	aiLimit := middleware.RateLimit("ai", middleware.PerMinute(cfg.AI.RatePerMinute, cfg.AI.RateBurst), limiter)
	googleAuth := googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		app.Signer,
		app.UsersService,
	)

	app.Router = server.NewRouter(server.RouterDeps{
		Verifier:    app.Signer,
		CORSOrigins: cfg.CORSOrigins(),
		Release:     cfg.IsProduction(),
		Health:      health.NewService(database).Handle,
		Modules: []server.Registrar{
			googleAuth,
			users.NewHandler(app.UsersService, app.UsageService),
			usage.NewHandler(app.UsageService),
			cvs.NewHandler(app.CVService),
			optimization.NewHandler(app.OptimizationService, aiLimit),
		},
	})
	return app, nil
}

// Close releases the database and redis connections.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

// OpenDB connects to Postgres when DATABASE_URL is set. Dev-like environments fall
// back to a migrated SQLite file.
func OpenDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		return db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	}
	if !cfg.IsDevLike() {
		return nil, errors.New("DATABASE_URL is required outside dev")
	}
	telemetry.Warn("bootstrap.sqlite_fallback", map[string]any{"path": cfg.SQLitePath})
	database, err := db.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, database); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func (a *App) buildLimiter(ctx context.Context) (middleware.Limiter, error) {
	if strings.TrimSpace(a.Config.RedisURL) == "" {
		return middleware.NewMemoryLimiter(nil), nil
	}
	opts, err := redis.ParseURL(a.Config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	a.Redis = client
	return middleware.NewRedisLimiter(client), nil
}

func buildProvider(ctx context.Context, cfg config.AIConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return openai.New(openai.Config{
			Name:    "openai",
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: orDefault(cfg.BaseURL, openai.BaseURLOpenAI),
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	case "openrouter":
		return openai.New(openai.Config{
			Name:    "openrouter",
			APIKey:  cfg.OpenRouterAPIKey,
			BaseURL: orDefault(cfg.BaseURL, openai.BaseURLOpenRouter),
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
			Title:   "cvbuilder",
		})
	case "gemini":
		return gemini.New(ctx, gemini.Config{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	default:
		telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"provider": cfg.Provider})
		return llm.PlaceholderClient{}, nil
	}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
