package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TRADMAP_"

// LoadDotEnv loads variables from the given .env files (default ".env") into
// the process environment. Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from TRADMAP_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"STORAGE_BACKEND":    &c.Storage.Backend,
		"STORAGE_PATH":       &c.Storage.Path,
		"EMBEDDING_HOST":     &c.AI.EmbeddingHost,
		"NARRATOR_HOST":      &c.AI.NarratorHost,
		"EMBEDDING_MODEL":    &c.AI.EmbeddingModel,
		"NARRATOR_MODEL":     &c.AI.NarratorModel,
		"API_TOKEN":          &c.AI.APIToken,
		"SERVER_ADDR":        &c.Server.Addr,
		"CACHE_BACKEND":      &c.Cache.Backend,
		"REDIS_ADDR":         &c.Cache.RedisAddr,
		"POSTGRES_URL":       &c.Postgres.URL,
		"TRACE_EXPORTER":     &c.Telemetry.Exporter,
		"TRACE_ENDPOINT":     &c.Telemetry.Endpoint,
		"TRACE_SERVICE_NAME": &c.Telemetry.ServiceName,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"DIMENSIONS":         &c.AI.Dimensions,
		"CANDIDATE_LIMIT":    &c.Engine.CandidateLimit,
		"RETRY_MAX_ATTEMPTS": &c.Retry.MaxAttempts,
		"BATCH_WORKERS":      &c.Server.BatchWorkers,
	}
	for name, dst := range ints {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s: %w", ErrInvalidConfig, EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	durations := map[string]*Duration{
		"EMBED_TIMEOUT": &c.Engine.EmbedTimeout,
		"QUERY_TIMEOUT": &c.Engine.QueryTimeout,
	}
	for name, dst := range durations {
		if v, ok := lookup(EnvPrefix + name); ok {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("%w: %s%s: %w", ErrInvalidConfig, EnvPrefix, name, err)
			}
		}
	}

	if v, ok := lookup(EnvPrefix + "NARRATE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sNARRATE: %w", ErrInvalidConfig, EnvPrefix, err)
		}
		c.AI.Narrate = b
	}
	if v, ok := lookup(EnvPrefix + "MIN_SIMILARITY"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %sMIN_SIMILARITY: %w", ErrInvalidConfig, EnvPrefix, err)
		}
		c.Engine.MinSimilarity = f
	}
	if v, ok := lookup(EnvPrefix + "ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	return nil
}
