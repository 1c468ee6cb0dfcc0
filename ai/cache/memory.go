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
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
)

// unboundedEntries is the capacity used when no bound is configured.
const unboundedEntries = 1 << 40

// MemoryStore is an in-process Store backed by a ristretto cache. Every vector
// costs 1, so maxEntries bounds the number of cached vectors; 0 means unbounded.
// Eviction follows ristretto's TinyLFU admission and sampled LFU policy.
type MemoryStore struct {
	cache *ristretto.Cache[string, []float32]
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(maxEntries int) (*MemoryStore, error) {
	if maxEntries < 0 {
		return nil, fmt.Errorf("maxEntries must not be negative, got %d", maxEntries)
	}
	maxCost := int64(maxEntries)
	counters := 10 * maxCost
	if maxEntries == 0 {
		maxCost = unboundedEntries
		counters = 1_000_000
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []float32]{
		NumCounters:        counters,
		MaxCost:            maxCost,
		BufferItems:        64,
		Metrics:            true,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &MemoryStore{cache: c}, nil
}

// Get returns a copy of the cached vector.
func (m *MemoryStore) Get(_ context.Context, key string) ([]float32, bool, error) {
	vec, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]float32(nil), vec...), true, nil
}

// Set stores a copy of vector. The write is applied before Set returns; the
// admission policy may still drop it when the cache is full.
func (m *MemoryStore) Set(_ context.Context, key string, vector []float32) error {
	m.cache.Set(key, append([]float32(nil), vector...), 1)
	m.cache.Wait()
	return nil
}

// Len returns the number of cached vectors.
func (m *MemoryStore) Len() int {
	return int(m.cache.Metrics.KeysAdded() - m.cache.Metrics.KeysEvicted())
}

// Close stops the cache's background goroutines.
func (m *MemoryStore) Close() error {
	m.cache.Close()
	return nil
}
