package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://www.tennisexplorer.com", cfg.SourceBaseURL)
	assert.Equal(t, 30*time.Second, cfg.SourceTimeout)
	assert.Equal(t, 500, cfg.MaxPlayersPerTour)
	assert.Equal(t, 6, cfg.MatchWindowMonths)
	assert.Equal(t, "tennis_data.db", cfg.SnapshotPath)
	assert.True(t, cfg.CompressSnapshot)
	assert.Equal(t, "0 6 * * *", cfg.RefreshCron)
	assert.False(t, cfg.RunLockEnabled(), "The run lock is off unless a Redis address is set")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SOURCE_BASE_URL", "http://localhost:8080")
	t.Setenv("MAX_PLAYERS_PER_TOUR", "50")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("COMPRESS_SNAPSHOT", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.SourceBaseURL)
	assert.Equal(t, 50, cfg.MaxPlayersPerTour)
	assert.True(t, cfg.RunLockEnabled())
	assert.False(t, cfg.CompressSnapshot)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.SourceBaseURL = "" }},
		{"empty snapshot path", func(c *Config) { c.SnapshotPath = "" }},
		{"zero players per tour", func(c *Config) { c.MaxPlayersPerTour = 0 }},
		{"zero window", func(c *Config) { c.MatchWindowMonths = 0 }},
		{"zero concurrency", func(c *Config) { c.FetchConcurrency = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	cfg := &Config{AppEnv: "development"}
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.AppEnv = "production"
	assert.True(t, cfg.IsProduction())
}
