package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Tennis Explorer source
	SourceBaseURL string        `envconfig:"SOURCE_BASE_URL" default:"https://www.tennisexplorer.com"`
	SourceTimeout time.Duration `envconfig:"SOURCE_TIMEOUT" default:"30s"`
	RequestDelay  time.Duration `envconfig:"REQUEST_DELAY" default:"300ms"`

	// Ingestion limits
	MaxPlayersPerTour   int `envconfig:"MAX_PLAYERS_PER_TOUR" default:"500"`
	MaxMatchesPerPlayer int `envconfig:"MAX_MATCHES_PER_PLAYER" default:"30"`
	MatchWindowMonths   int `envconfig:"MATCH_WINDOW_MONTHS" default:"6"`
	FetchConcurrency    int `envconfig:"FETCH_CONCURRENCY" default:"4"`

	// Snapshot output
	SnapshotPath     string `envconfig:"SNAPSHOT_PATH" default:"tennis_data.db"`
	CompressSnapshot bool   `envconfig:"COMPRESS_SNAPSHOT" default:"true"`

	// Redis (optional run-overlap guard; empty addr disables it)
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:""`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	RunLockTTL    time.Duration `envconfig:"RUN_LOCK_TTL" default:"2h"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Scheduler (cron spec evaluated in UTC)
	EnableScheduler bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	RefreshCron     string `envconfig:"REFRESH_CRON" default:"0 6 * * *"`
	RunOnStart      bool   `envconfig:"RUN_ON_START" default:"false"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from a .env file if present
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.SourceBaseURL == "" {
		return fmt.Errorf("SOURCE_BASE_URL is required")
	}
	if c.SnapshotPath == "" {
		return fmt.Errorf("SNAPSHOT_PATH is required")
	}
	if c.MaxPlayersPerTour <= 0 {
		return fmt.Errorf("MAX_PLAYERS_PER_TOUR must be positive")
	}
	if c.MatchWindowMonths <= 0 {
		return fmt.Errorf("MATCH_WINDOW_MONTHS must be positive")
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY must be positive")
	}
	return nil
}

// RunLockEnabled reports whether the Redis overlap guard is configured.
func (c *Config) RunLockEnabled() bool {
	return c.RedisAddr != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or exits on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
