// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads tradmap settings from a TOML file, a .env file and
// TRADMAP_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/tradmap/ai"
	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/engine"
	"github.com/poiesic/tradmap/retry"
)

var (
	// ErrInvalidConfig is returned when a loaded configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Storage backends.
const (
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
)

// Embedding cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Trace exporters.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

type StorageConfig struct {
	// Backend for mappings and knowledge. The corpus always lives in badger.
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

type AIConfig struct {
	EmbeddingHost  string `toml:"embedding_host"`
	NarratorHost   string `toml:"narrator_host"`
	EmbeddingModel string `toml:"embedding_model"`
	NarratorModel  string `toml:"narrator_model"`
	APIToken       string `toml:"api_token"`
	Dimensions     int    `toml:"dimensions"`
	Narrate        bool   `toml:"narrate"`
}

type EngineConfig struct {
	Weights        engine.Weights `toml:"weights"`
	CandidateLimit int            `toml:"candidate_limit"`
	MinSimilarity  float64        `toml:"min_similarity"`
	EmbedTimeout   Duration       `toml:"embed_timeout"`
	QueryTimeout   Duration       `toml:"query_timeout"`
}

type RetryConfig struct {
	MaxAttempts int      `toml:"max_attempts"`
	BaseDelay   Duration `toml:"base_delay"`
	MaxDelay    Duration `toml:"max_delay"`
}

type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
	BatchWorkers   int      `toml:"batch_workers"`
}

type CacheConfig struct {
	Backend    string   `toml:"backend"`
	MaxEntries int      `toml:"max_entries"`
	RedisAddr  string   `toml:"redis_addr"`
	Prefix     string   `toml:"prefix"`
	TTL        Duration `toml:"ttl"`
}

type PostgresConfig struct {
	URL string `toml:"url"`
}

type TelemetryConfig struct {
	Exporter    string `toml:"exporter"`
	Endpoint    string `toml:"endpoint"`
	ServiceName string `toml:"service_name"`
}

// Config is the complete tradmap configuration.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	AI        AIConfig        `toml:"ai"`
	Engine    EngineConfig    `toml:"engine"`
	Retry     RetryConfig     `toml:"retry"`
	Server    ServerConfig    `toml:"server"`
	Cache     CacheConfig     `toml:"cache"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Telemetry TelemetryConfig `toml:"telemetry"`

	// Synonyms maps a system name to term -> synonyms.
	Synonyms map[string]map[string][]string `toml:"synonyms"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	policy := retry.DefaultPolicy()
	return &Config{
		Storage: StorageConfig{Backend: BackendBadger, Path: "tradmap.db"},
		AI: AIConfig{
			EmbeddingHost:  aiDefaults.EmbeddingHost,
			NarratorHost:   aiDefaults.NarratorHost,
			EmbeddingModel: aiDefaults.EmbeddingModel,
			NarratorModel:  aiDefaults.NarratorModel,
			APIToken:       aiDefaults.APIToken,
			Dimensions:     aiDefaults.Dimensions,
		},
		Engine: EngineConfig{
			Weights:        engine.DefaultWeights(),
			CandidateLimit: engine.DefaultCandidateLimit,
			EmbedTimeout:   Duration(30 * time.Second),
			QueryTimeout:   Duration(10 * time.Second),
		},
		Retry: RetryConfig{
			MaxAttempts: policy.MaxAttempts,
			BaseDelay:   Duration(policy.BaseDelay),
			MaxDelay:    Duration(policy.MaxDelay),
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			BatchWorkers:   4,
		},
		Cache: CacheConfig{
			Backend:    CacheMemory,
			MaxEntries: 10000,
			RedisAddr:  "localhost:6379",
			Prefix:     "tradmap:embedding:",
			TTL:        Duration(24 * time.Hour),
		},
		Telemetry: TelemetryConfig{
			Exporter:    ExporterNone,
			ServiceName: "tradmap",
		},
		Synonyms: map[string]map[string][]string{},
	}
}

// Load reads the TOML file at path over the defaults, then applies the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values no component can use.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendBadger:
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("%w: postgres backend needs postgres.url", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("%w: storage.path is required", ErrInvalidConfig)
	}
	switch c.Cache.Backend {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.Cache.Backend)
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("%w: cache.max_entries must not be negative", ErrInvalidConfig)
	}
	switch c.Telemetry.Exporter {
	case ExporterNone, ExporterStdout, ExporterOTLP:
	default:
		return fmt.Errorf("%w: unknown trace exporter %q", ErrInvalidConfig, c.Telemetry.Exporter)
	}
	if err := c.Engine.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Engine.CandidateLimit <= 0 {
		return fmt.Errorf("%w: engine.candidate_limit must be positive", ErrInvalidConfig)
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("%w: retry.max_attempts must be positive", ErrInvalidConfig)
	}
	if _, err := c.SynonymTable(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// AIConfig converts the ai section into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithNarratorHost(c.AI.NarratorHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithNarratorModel(c.AI.NarratorModel),
		ai.WithAPIToken(c.AI.APIToken),
		ai.WithDimensions(c.AI.Dimensions),
	)
}

// RetryPolicy converts the retry section into a retry.Policy.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   c.Retry.BaseDelay.Std(),
		MaxDelay:    c.Retry.MaxDelay.Std(),
	}
}

// SynonymTable resolves the synonyms section. System names are case-insensitive.
func (c *Config) SynonymTable() (engine.SynonymTable, error) {
	table := make(engine.SynonymTable, len(c.Synonyms))
	for name, terms := range c.Synonyms {
		system, err := core.ParseSystem(name)
		if err != nil {
			return nil, fmt.Errorf("synonyms.%s: %w", name, err)
		}
		if table[system] == nil {
			table[system] = make(map[string][]string, len(terms))
		}
		for term, synonyms := range terms {
			table[system][term] = append(table[system][term], synonyms...)
		}
	}
	return table, nil
}

// EngineOptions returns the engine options described by the configuration.
func (c *Config) EngineOptions() ([]engine.Option, error) {
	synonyms, err := c.SynonymTable()
	if err != nil {
		return nil, err
	}
	return []engine.Option{
		engine.WithWeights(c.Engine.Weights),
		engine.WithCandidateLimit(c.Engine.CandidateLimit),
		engine.WithMinSimilarity(c.Engine.MinSimilarity),
		engine.WithDimensions(c.AI.Dimensions),
		engine.WithEmbedTimeout(c.Engine.EmbedTimeout.Std()),
		engine.WithQueryTimeout(c.Engine.QueryTimeout.Std()),
		engine.WithSynonyms(synonyms),
	}, nil
}

// splitList parses a comma separated environment value.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
