package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port              string        `mapstructure:"port"`
	Env               string        `mapstructure:"env"`
	DatabaseURL       string        `mapstructure:"database_url"`
	SQLitePath        string        `mapstructure:"sqlite_path"`
	CORSAllowOrigins  string        `mapstructure:"cors_allow_origins"`
	JWTSecret         string        `mapstructure:"jwt_secret"`
	JWTTTL            time.Duration `mapstructure:"jwt_ttl"`
	GoogleClientID    string        `mapstructure:"google_client_id"`
	GoogleSecret      string        `mapstructure:"google_client_secret"`
	GoogleRedirectURL string        `mapstructure:"google_redirect_url"`
	UIRedirectURL     string        `mapstructure:"ui_redirect_url"`
	RedisURL          string        `mapstructure:"redis_url"`
	AI                AIConfig      `mapstructure:"ai"`
	Log               LogConfig     `mapstructure:"log"`
}

// AIConfig selects and tunes the text-generation provider.
type AIConfig struct {
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	BaseURL          string        `mapstructure:"base_url"`
	OpenAIAPIKey     string        `mapstructure:"openai_api_key"`
	OpenRouterAPIKey string        `mapstructure:"openrouter_api_key"`
	GeminiAPIKey     string        `mapstructure:"gemini_api_key"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Retries          int           `mapstructure:"retries"`
	PromptVersion    string        `mapstructure:"prompt_version"`
	RatePerMinute    float64       `mapstructure:"rate_per_minute"`
	RateBurst        int           `mapstructure:"rate_burst"`
}

// LogConfig mirrors telemetry.Config.
type LogConfig struct {
	Level string `mapstructure:"level"`
	Dev   bool   `mapstructure:"dev"`
	File  string `mapstructure:"file"`
}

// Load reads configuration from .env files and environment variables with defaults.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience; real env wins.
	_ = godotenv.Load(existing(".env", "cmd/.env")...)

	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.AI.Provider = normalizeProvider(cfg.AI.Provider)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// CORSOrigins splits the configured origin list.
func (c Config) CORSOrigins() []string {
	return splitAndTrim(c.CORSAllowOrigins)
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// IsDevLike reports whether local fallbacks are allowed.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("env", "dev")
	v.SetDefault("sqlite_path", "./data/cvbuilder.db")
	v.SetDefault("cors_allow_origins", "http://localhost:5173")
	v.SetDefault("jwt_ttl", 24*time.Hour)
	v.SetDefault("ai.provider", "placeholder")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.retries", 1)
	v.SetDefault("ai.prompt_version", "v1")
	v.SetDefault("ai.rate_per_minute", 6.0)
	v.SetDefault("ai.rate_burst", 3)
	v.SetDefault("log.level", "info")
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"port":                  "PORT",
		"env":                   "ENV",
		"database_url":          "DATABASE_URL",
		"sqlite_path":           "SQLITE_PATH",
		"cors_allow_origins":    "CORS_ALLOW_ORIGINS",
		"jwt_secret":            "JWT_SECRET",
		"jwt_ttl":               "JWT_TTL",
		"google_client_id":      "GOOGLE_CLIENT_ID",
		"google_client_secret":  "GOOGLE_CLIENT_SECRET",
		"google_redirect_url":   "GOOGLE_REDIRECT_URL",
		"ui_redirect_url":       "UI_REDIRECT_URL",
		"redis_url":             "REDIS_URL",
		"ai.provider":           "LLM_PROVIDER",
		"ai.model":              "LLM_MODEL",
		"ai.base_url":           "LLM_BASE_URL",
		"ai.openai_api_key":     "OPENAI_API_KEY",
		"ai.openrouter_api_key": "OPENROUTER_API_KEY",
		"ai.gemini_api_key":     "GEMINI_API_KEY",
		"ai.timeout":            "AI_TIMEOUT",
		"ai.retries":            "AI_RETRIES",
		"ai.prompt_version":     "PROMPT_VERSION",
		"ai.rate_per_minute":    "AI_RATE_PER_MINUTE",
		"ai.rate_burst":         "AI_RATE_BURST",
		"log.level":             "LOG_LEVEL",
		"log.dev":               "LOG_DEV",
		"log.file":              "LOG_FILE",
	}
	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}
	return nil
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if cfg.AI.Timeout <= 0 {
		return errors.New("AI_TIMEOUT must be positive")
	}
	if cfg.AI.Retries < 0 {
		return errors.New("AI_RETRIES must not be negative")
	}
	if cfg.IsProduction() {
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required in production")
		}
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			return errors.New("JWT_SECRET is required in production")
		}
	}
	return nil
}

func existing(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if _, err := godotenv.Read(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "openrouter":
		return "openrouter"
	case "gemini", "google":
		return "gemini"
	default:
		return "placeholder"
	}
}
