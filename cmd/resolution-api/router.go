// Package main provides the API router setup.
package main

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/switchsage/resolution-engine/internal/cache"
	"github.com/switchsage/resolution-engine/internal/catalog"
	"github.com/switchsage/resolution-engine/internal/config"
	"github.com/switchsage/resolution-engine/internal/embedding"
	"github.com/switchsage/resolution-engine/internal/llm"
	"github.com/switchsage/resolution-engine/internal/observability"
	"github.com/switchsage/resolution-engine/internal/resolution"
)

// NewRouter wires the catalog, cache, and external clients into the HTTP
// routes. The returned cleanup closes owned connections.
func NewRouter(logger *observability.Logger, cfg *config.Config) (http.Handler, func(), error) {
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	store, sqlDB, err := openStore(cfg)
	if err != nil {
		return nil, cleanup, err
	}
	if sqlDB != nil {
		closers = append(closers, func() { sqlDB.Close() })
	}

	cacheClient, err := openCache(cfg)
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, func() { cacheClient.Close() })

	var embedder embedding.Embedder
	if cfg.Embedding.APIKey != "" {
		embedder, err = embedding.NewClient(embedding.Config{
			APIKey:    cfg.Embedding.APIKey,
			BaseURL:   cfg.Embedding.BaseURL,
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
			Timeout:   cfg.Embedding.Timeout,
		})
		if err != nil {
			return nil, cleanup, fmt.Errorf("embedding client: %w", err)
		}
	} else {
		logger.Warn().Msg("No embedding API key configured, embedding strategy disabled")
	}

	var generator llm.Generator
	if cfg.Generation.APIKey != "" {
		generator, err = llm.NewClient(llm.Config{
			APIKey:     cfg.Generation.APIKey,
			BaseURL:    cfg.Generation.BaseURL,
			Model:      cfg.Generation.Model,
			Timeout:    cfg.Generation.Timeout,
			MaxRetries: cfg.Generation.MaxRetries,
		})
		if err != nil {
			return nil, cleanup, fmt.Errorf("generation client: %w", err)
		}
	} else {
		logger.Warn().Msg("No generation API key configured, AI normalization and disambiguation disabled")
	}

	var respCache *resolution.ResponseCache
	if cfg.Resolution.CacheResults {
		respCache = resolution.NewResponseCache(logger, cacheClient, cfg.Cache.TTL)
	}

	service := resolution.NewService(logger, store, embedder, generator, respCache, resolution.ServiceOptions{
		Thresholds: resolution.Thresholds{
			Exact:          cfg.Resolution.ExactThreshold,
			Fuzzy:          cfg.Resolution.FuzzyThreshold,
			Embedding:      cfg.Resolution.EmbeddingThreshold,
			Disambiguation: cfg.Resolution.DisambiguationThreshold,
		},
		EnableBrandCompletion:  cfg.Resolution.EnableBrandCompletion,
		EnableAIDisambiguation: cfg.Resolution.EnableAIDisambiguation,
		MaxWorkers:             cfg.Resolution.MaxWorkers,
		FragmentTimeout:        cfg.Resolution.FragmentTimeout,
		BreakerCooldown:        cfg.Resolution.BreakerCooldown,
	})

	h := NewHandler(logger, service, store)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"resolution-engine"}`))
	})

	r.Get("/ready", h.Ready)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/resolve", h.Resolve)
		r.Post("/specifications", h.Specifications)
		r.Post("/conflicts", h.Conflicts)
		r.Get("/switches", h.SearchSwitches)
		r.Get("/switches/names", h.ListNames)
	})

	return r, cleanup, nil
}

func openStore(cfg *config.Config) (catalog.Store, *sql.DB, error) {
	if cfg.Database.Driver == "postgres" {
		store, db, err := catalog.OpenPostgres(catalog.PostgresConfig{
			DSN:             cfg.Database.Postgres.DSN,
			MaxOpenConns:    cfg.Database.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Database.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open catalog: %w", err)
		}
		return store, db, nil
	}
	if cfg.Database.FixturePath != "" {
		store, err := catalog.NewMemoryStoreFromFixture(cfg.Database.FixturePath)
		if err != nil {
			return nil, nil, fmt.Errorf("seed catalog: %w", err)
		}
		return store, nil, nil
	}
	return catalog.NewMemoryStore(), nil, nil
}

func openCache(cfg *config.Config) (cache.Client, error) {
	if cfg.Cache.Driver == "redis" {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return client, nil
	}
	return cache.NewMemoryClient(cfg.Cache.MaxEntries), nil
}
