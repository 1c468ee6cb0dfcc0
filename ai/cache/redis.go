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
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/poiesic/tradmap/storage"
)

// RedisStore is a Store backed by Redis. Vectors are stored with mus encoding.
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to addr and verifies the connection.
// A ttl of 0 keeps entries until Redis evicts them.
func NewRedisStore(ctx context.Context, addr, prefix string, ttl time.Duration) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}, nil
}

// Get fetches and decodes a vector. A missing key is a miss, not an error.
func (r *RedisStore) Get(ctx context.Context, key string) ([]float32, bool, error) {
	raw, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	vec, err := storage.UnmarshalVector(raw)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Set encodes and stores a vector.
func (r *RedisStore) Set(ctx context.Context, key string, vector []float32) error {
	return r.rdb.Set(ctx, r.prefix+key, storage.MarshalVector(vector), r.ttl).Err()
}

// Close closes the Redis client.
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
