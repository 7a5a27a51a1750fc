package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Data source selections.
const (
	SourceRemote  = "remote"
	SourceOffline = "offline"
)

// Preview store selections.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel    slog.Level
	Port        string `env:"PORT" envDefault:"8080"`

	Source         string        `env:"SOURCE" envDefault:"offline"`
	APIBaseURL     string        `env:"API_BASE_URL"`
	AuthToken      string        `env:"AUTH_TOKEN"`
	DefaultModel   string        `env:"DEFAULT_MODEL" envDefault:"default"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"90s"`

	PreviewStore string `env:"PREVIEW_STORE" envDefault:"memory"`
	RedisURL     string `env:"REDIS_URL" envDefault:"localhost:6379"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"wuxia-preview.db"`

	AuthRedirectDelay time.Duration `env:"AUTH_REDIRECT_DELAY" envDefault:"2s"`
	TipInterval       time.Duration `env:"TIP_INTERVAL" envDefault:"4s"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)
	cfg.Source = strings.ToLower(strings.TrimSpace(cfg.Source))
	cfg.PreviewStore = strings.ToLower(strings.TrimSpace(cfg.PreviewStore))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the combinations Load cannot express with defaults alone.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceRemote:
		if c.APIBaseURL == "" {
			return fmt.Errorf("API_BASE_URL is required when SOURCE=%s", SourceRemote)
		}
	case SourceOffline:
	default:
		return fmt.Errorf("unknown SOURCE %q", c.Source)
	}

	switch c.PreviewStore {
	case StoreMemory, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("unknown PREVIEW_STORE %q", c.PreviewStore)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
