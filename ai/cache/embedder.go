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


package cache

import (
	"context"
	"log/slog"

	"github.com/poiesic/tradmap/ai"
	"github.com/poiesic/tradmap/core"
)

// Store holds embedding vectors by key.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the cached vector and true, or false on a miss.
	Get(ctx context.Context, key string) ([]float32, bool, error)

	// Set stores a vector under key.
	Set(ctx context.Context, key string, vector []float32) error
}

// CachingEmbedder decorates an ai.Embedder with a vector cache.
// Store failures are logged and fall through to the wrapped embedder.
type CachingEmbedder struct {
	next   ai.Embedder
	store  Store
	model  string
	logger *slog.Logger
}

var _ ai.Embedder = (*CachingEmbedder)(nil)

// NewCachingEmbedder wraps next. Model is mixed into cache keys so vectors from
// different embedding models never collide.
func NewCachingEmbedder(next ai.Embedder, store Store, model string) *CachingEmbedder {
	return &CachingEmbedder{
		next:   next,
		store:  store,
		model:  model,
		logger: slog.Default().With("component", "embedding-cache"),
	}
}

// Key returns the cache key for text under the configured model.
func (c *CachingEmbedder) Key(text string) string {
	return "emb:" + core.IDFromContent(c.model+"\x00"+text).String()
}

// EmbedText returns the cached vector for text or embeds and caches it.
func (c *CachingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := c.Key(text)
	if vec, ok := c.lookup(ctx, key); ok {
		return vec, nil
	}

	vec, err := c.next.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, vec)
	return vec, nil
}

// EmbedTexts serves cached vectors and embeds the misses in one batch.
func (c *CachingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var (
		missing    []string
		missingIdx []int
	)
	for i, text := range texts {
		keys[i] = c.Key(text)
		if vec, ok := c.lookup(ctx, keys[i]); ok {
			results[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return results, nil
	}

	vecs, err := c.next.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range vecs {
		if j >= len(missingIdx) {
			break
		}
		i := missingIdx[j]
		results[i] = vec
		c.save(ctx, keys[i], vec)
	}
	return results, nil
}

func (c *CachingEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	vec, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache lookup failed", "key", key, "err", err)
		return nil, false
	}
	if !ok || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

func (c *CachingEmbedder) save(ctx context.Context, key string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	if err := c.store.Set(ctx, key, vec); err != nil {
		c.logger.Warn("cache store failed", "key", key, "err", err)
	}
}
