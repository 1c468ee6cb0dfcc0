package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
[storage]
backend = "badger"
path = "/var/lib/tradmap"

[ai]
embedding_host = "http://embed:8000/v1"
embedding_model = "bge-small"
dimensions = 384
narrate = true

[engine]
candidate_limit = 12
min_similarity = 0.2
embed_timeout = "5s"

[engine.weights]
exact_match = 1.0
partial_match = 0.5
semantic_similarity = 0.9
context_match = 0.4
historical_match = 0.3

[retry]
max_attempts = 5
base_delay = "100ms"

[cache]
backend = "redis"
ttl = "1h"

[synonyms.ayurveda]
jwara = ["fever", "pyrexia"]

[synonyms.Siddha]
suram = ["fever"]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeFile(t, "tradmap.toml", sampleTOML))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/tradmap", cfg.Storage.Path)
	assert.Equal(t, "bge-small", cfg.AI.EmbeddingModel)
	assert.Equal(t, 384, cfg.AI.Dimensions)
	assert.True(t, cfg.AI.Narrate)
	assert.Equal(t, 12, cfg.Engine.CandidateLimit)
	assert.Equal(t, 5*time.Second, cfg.Engine.EmbedTimeout.Std())
	assert.Equal(t, 10*time.Second, cfg.Engine.QueryTimeout.Std(), "unset keys keep defaults")
	assert.Equal(t, engine.Weights{
		ExactMatch:         1.0,
		PartialMatch:       0.5,
		SemanticSimilarity: 0.9,
		ContextMatch:       0.4,
		HistoricalMatch:    0.3,
	}, cfg.Engine.Weights)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.TTL.Std())

	policy := cfg.RetryPolicy()
	assert.Equal(t, 5, policy.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, policy.BaseDelay)
	assert.Equal(t, 2*time.Second, policy.MaxDelay)

	aiConfig := cfg.AIConfig()
	assert.Equal(t, "bge-small", aiConfig.EmbeddingModel)
	assert.Equal(t, 384, aiConfig.Dimensions)

	opts, err := cfg.EngineOptions()
	require.NoError(t, err)
	assert.NotEmpty(t, opts)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendBadger, cfg.Storage.Backend)
	assert.Equal(t, engine.DefaultWeights(), cfg.Engine.Weights)
	assert.Equal(t, engine.DefaultCandidateLimit, cfg.Engine.CandidateLimit)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("bad toml", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.toml", "[storage\npath ="))
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.toml", "[engine]\nembed_timeout = \"soon\"\n"))
		assert.Error(t, err)
	})
}

func TestSynonymTable(t *testing.T) {
	cfg, err := Load(writeFile(t, "tradmap.toml", sampleTOML))
	require.NoError(t, err)

	table, err := cfg.SynonymTable()
	require.NoError(t, err)
	assert.Equal(t, []string{"fever", "pyrexia"}, table[core.SystemAyurveda]["jwara"])
	assert.Equal(t, []string{"fever"}, table[core.SystemSiddha]["suram"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "sqlite" }},
		{"postgres without url", func(c *Config) { c.Storage.Backend = BackendPostgres }},
		{"empty path", func(c *Config) { c.Storage.Path = "" }},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"negative cache size", func(c *Config) { c.Cache.MaxEntries = -1 }},
		{"unknown exporter", func(c *Config) { c.Telemetry.Exporter = "zipkin" }},
		{"negative weight", func(c *Config) { c.Engine.Weights.ExactMatch = -1 }},
		{"zero candidate limit", func(c *Config) { c.Engine.CandidateLimit = 0 }},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"unknown synonym system", func(c *Config) {
			c.Synonyms["Homeopathy"] = map[string][]string{"x": {"y"}}
		}},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TRADMAP_STORAGE_PATH":    "/tmp/env.db",
		"TRADMAP_DIMENSIONS":      "768",
		"TRADMAP_EMBED_TIMEOUT":   "2s",
		"TRADMAP_NARRATE":         "true",
		"TRADMAP_MIN_SIMILARITY":  "0.35",
		"TRADMAP_ALLOWED_ORIGINS": "https://a.example, https://b.example,",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "/tmp/env.db", cfg.Storage.Path)
	assert.Equal(t, 768, cfg.AI.Dimensions)
	assert.Equal(t, 2*time.Second, cfg.Engine.EmbedTimeout.Std())
	assert.True(t, cfg.AI.Narrate)
	assert.InDelta(t, 0.35, cfg.Engine.MinSimilarity, 1e-9)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)

	for key, value := range map[string]string{
		"TRADMAP_DIMENSIONS":     "many",
		"TRADMAP_QUERY_TIMEOUT":  "-1s",
		"TRADMAP_NARRATE":        "perhaps",
		"TRADMAP_MIN_SIMILARITY": "high",
	} {
		bad := func(k string) (string, bool) {
			if k == key {
				return value, true
			}
			return "", false
		}
		assert.ErrorIs(t, Default().ApplyEnv(bad), ErrInvalidConfig, key)
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "TRADMAP_DOTENV_TEST_VALUE"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := writeFile(t, ".env", key+"=from-dotenv\n")
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv(key))

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Std())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("ten")))
}
