package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/tradmap"
	"github.com/poiesic/tradmap/ai"
	"github.com/poiesic/tradmap/ai/cache"
	"github.com/poiesic/tradmap/ai/openai"
	"github.com/poiesic/tradmap/config"
	"github.com/poiesic/tradmap/engine"
	"github.com/poiesic/tradmap/storage"
	"github.com/poiesic/tradmap/storage/badger"
	"github.com/poiesic/tradmap/storage/postgres"
)

// runtime holds everything a command opened and must close.
type runtime struct {
	cfg       *config.Config
	store     *badger.Store
	mappings  storage.MappingRepository
	knowledge storage.KnowledgeRepository
	provider  ai.AIProvider
	embedder  ai.Embedder
	engine    *engine.Engine
	service   *tradmap.Service
	health    func(context.Context) error

	closers []func() error
}

// loadConfig reads the .env file, the config file and the global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadDotEnv(c.String("env-file")); err != nil {
		return nil, err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if db := c.String("db"); db != "" {
		cfg.Storage.Path = db
	}
	return cfg, nil
}

// openStorage opens the badger store and, when configured, Postgres for
// mappings and the knowledge base.
func openStorage(ctx context.Context, cfg *config.Config) (*runtime, error) {
	rt := &runtime{cfg: cfg}

	store, err := badger.OpenStore(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	rt.store = store
	rt.closers = append(rt.closers, store.Close)
	rt.mappings = store.Mappings
	rt.knowledge = store.Knowledge

	if cfg.Storage.Backend == config.BackendPostgres {
		pg, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		rt.closers = append(rt.closers, pg.Close)
		rt.mappings = pg
		rt.knowledge = pg
		rt.health = pg.Ping
	}
	return rt, nil
}

// openRuntime opens storage, the AI provider, the engine and the service.
func openRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	rt, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := rt.openEmbedder(ctx); err != nil {
		rt.Close()
		return nil, err
	}

	engineOpts, err := cfg.EngineOptions()
	if err != nil {
		rt.Close()
		return nil, err
	}
	engineOpts = append(engineOpts, engine.WithHistory(rt.mappings))
	if cfg.AI.Narrate {
		if narrator := rt.provider.Narrator(); narrator != nil {
			engineOpts = append(engineOpts, engine.WithNarrator(narrator))
		}
	}

	rt.engine, err = engine.New(rt.embedder, rt.store.Corpus, engineOpts...)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	rt.service, err = tradmap.NewService(rt.engine,
		tradmap.WithMappings(rt.mappings),
		tradmap.WithKnowledge(rt.knowledge, rt.embedder),
		tradmap.WithRetryPolicy(cfg.RetryPolicy()),
		tradmap.WithBatchPoolSize(cfg.Server.BatchWorkers),
	)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// openEmbedder creates the provider and wraps its embedder in the configured cache.
func (rt *runtime) openEmbedder(ctx context.Context) error {
	aiConfig := rt.cfg.AIConfig()
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}
	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	rt.provider = provider
	rt.closers = append(rt.closers, provider.Close)
	rt.embedder = provider.Embedder()

	switch rt.cfg.Cache.Backend {
	case config.CacheMemory:
		store, err := cache.NewMemoryStore(rt.cfg.Cache.MaxEntries)
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, store.Close)
		rt.embedder = cache.NewCachingEmbedder(rt.embedder, store, aiConfig.EmbeddingModel)
	case config.CacheRedis:
		store, err := cache.NewRedisStore(ctx, rt.cfg.Cache.RedisAddr, rt.cfg.Cache.Prefix, rt.cfg.Cache.TTL.Std())
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		rt.closers = append(rt.closers, store.Close)
		rt.embedder = cache.NewCachingEmbedder(rt.embedder, store, aiConfig.EmbeddingModel)
	}
	return nil
}

// Close releases resources in reverse order of opening.
func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	if len(errs) > 0 {
		slog.Warn("error closing resources", "err", errors.Join(errs...))
	}
	return errors.Join(errs...)
}
