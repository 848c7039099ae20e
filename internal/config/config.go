// Package config provides unified configuration loading for the resolution engine.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the resolution engine.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Cache         CacheConfig         `yaml:"cache"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Generation    GenerationConfig    `yaml:"generation"`
	Resolution    ResolutionConfig    `yaml:"resolution"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// DatabaseConfig holds catalog database settings.
type DatabaseConfig struct {
	Driver      string         `yaml:"driver"`       // postgres or memory
	FixturePath string         `yaml:"fixture_path"` // seeds the memory driver
	Postgres    PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// EmbeddingConfig holds embedding service settings.
type EmbeddingConfig struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	Dimension int           `yaml:"dimension"`
	Timeout   time.Duration `yaml:"timeout"`
}

// GenerationConfig holds text-generation service settings.
type GenerationConfig struct {
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	Model      string        `yaml:"model"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// ResolutionConfig holds matching pipeline settings.
type ResolutionConfig struct {
	ExactThreshold          float64       `yaml:"exact_threshold"`
	FuzzyThreshold          float64       `yaml:"fuzzy_threshold"`
	EmbeddingThreshold      float64       `yaml:"embedding_threshold"`
	DisambiguationThreshold float64       `yaml:"disambiguation_threshold"`
	EnableAIDisambiguation  bool          `yaml:"enable_ai_disambiguation"`
	EnableBrandCompletion   bool          `yaml:"enable_brand_completion"`
	MaxWorkers              int           `yaml:"max_workers"`
	FragmentTimeout         time.Duration `yaml:"fragment_timeout"`
	BreakerCooldown         time.Duration `yaml:"breaker_cooldown"`
	CacheResults            bool          `yaml:"cache_results"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8086,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     30 * time.Second,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   25 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "memory",
			Postgres: PostgresConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
		},
		Embedding: EmbeddingConfig{
			BaseURL:   "https://openrouter.ai/api/v1",
			Model:     "qwen/qwen3-embedding-8b",
			Dimension: 768,
			Timeout:   30 * time.Second,
		},
		Generation: GenerationConfig{
			BaseURL:    "https://openrouter.ai/api/v1",
			Model:      "x-ai/grok-4.1-fast:free",
			Timeout:    30 * time.Second,
			MaxRetries: 2,
		},
		Resolution: ResolutionConfig{
			ExactThreshold:          0.95,
			FuzzyThreshold:          0.8,
			EmbeddingThreshold:      0.65,
			DisambiguationThreshold: 0.6,
			EnableAIDisambiguation:  false,
			EnableBrandCompletion:   true,
			MaxWorkers:              5,
			FragmentTimeout:         10 * time.Second,
			BreakerCooldown:         time.Minute,
			CacheResults:            true,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "debug",
			LogFormat: "json",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "postgres" && c.Database.Driver != "memory" {
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}

	if c.Database.Driver == "postgres" && c.Database.Postgres.DSN == "" {
		return fmt.Errorf("postgres driver requires a dsn")
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	for name, v := range map[string]float64{
		"exact_threshold":          c.Resolution.ExactThreshold,
		"fuzzy_threshold":          c.Resolution.FuzzyThreshold,
		"embedding_threshold":      c.Resolution.EmbeddingThreshold,
		"disambiguation_threshold": c.Resolution.DisambiguationThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, v)
		}
	}

	if c.Resolution.MaxWorkers < 1 {
		return fmt.Errorf("max_workers must be at least 1")
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.Driver = "postgres"
		cfg.Database.Postgres.DSN = v
	}

	if v := os.Getenv("CATALOG_FIXTURE"); v != "" {
		cfg.Database.FixturePath = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
		cfg.Generation.APIKey = v
	}

	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}

	if v := os.Getenv("GENERATION_MODEL"); v != "" {
		cfg.Generation.Model = v
	}

	if v := os.Getenv("ENABLE_AI_DISAMBIGUATION"); v == "true" {
		cfg.Resolution.EnableAIDisambiguation = true
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
