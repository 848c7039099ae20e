package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.95, cfg.Resolution.ExactThreshold)
	assert.Equal(t, 0.8, cfg.Resolution.FuzzyThreshold)
	assert.Equal(t, 0.65, cfg.Resolution.EmbeddingThreshold)
	assert.Equal(t, 0.6, cfg.Resolution.DisambiguationThreshold)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.True(t, cfg.Resolution.EnableBrandCompletion)
	assert.False(t, cfg.Resolution.EnableAIDisambiguation)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
database:
  driver: postgres
  postgres:
    dsn: postgres://localhost/switches
resolution:
  fuzzy_threshold: 0.85
  max_workers: 8
  fragment_timeout: 5s
observability:
  log_level: warn
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 0.85, cfg.Resolution.FuzzyThreshold)
	assert.Equal(t, 8, cfg.Resolution.MaxWorkers)
	assert.Equal(t, 5*time.Second, cfg.Resolution.FragmentTimeout)
	assert.Equal(t, "warn", cfg.Observability.LogLevel)

	// Untouched settings keep their defaults.
	assert.Equal(t, 0.95, cfg.Resolution.ExactThreshold)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Port, cfg.Server.Port)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://db/switches")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("OPENROUTER_API_KEY", "secret")
	t.Setenv("ENABLE_AI_DISAMBIGUATION", "true")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://db/switches", cfg.Database.Postgres.DSN)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, "secret", cfg.Embedding.APIKey)
	assert.Equal(t, "secret", cfg.Generation.APIKey)
	assert.True(t, cfg.Resolution.EnableAIDisambiguation)
	assert.Equal(t, "error", cfg.Observability.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad database driver", func(c *Config) { c.Database.Driver = "sqlite" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }},
		{"bad cache driver", func(c *Config) { c.Cache.Driver = "memcached" }},
		{"threshold above one", func(c *Config) { c.Resolution.FuzzyThreshold = 1.5 }},
		{"negative threshold", func(c *Config) { c.Resolution.ExactThreshold = -0.1 }},
		{"zero workers", func(c *Config) { c.Resolution.MaxWorkers = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
