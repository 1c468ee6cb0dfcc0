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


package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/storage"
)

// MappingRepository implements storage.MappingRepository using BadgerDB.
//
// Besides the primary record it maintains three indexes: per user by creation
// time, global by creation time, and validated mappings per (system, term).
type MappingRepository struct {
	backend *Backend
}

var _ storage.MappingRepository = (*MappingRepository)(nil)

// NewMappingRepository creates a new MappingRepository.
func NewMappingRepository(backend *Backend) (*MappingRepository, error) {
	if backend == nil {
		return nil, errors.New("badger: backend is required")
	}
	return &MappingRepository{backend: backend}, nil
}

// Close releases resources. MappingRepository has no resources to release.
func (r *MappingRepository) Close() error {
	return nil
}

// SaveMapping stores a new mapping result and its indexes.
func (r *MappingRepository) SaveMapping(ctx context.Context, result *core.MappingResult) error {
	if result == nil || result.ID == "" {
		return fmt.Errorf("%w: mapping ID is required", storage.ErrInvalidQuery)
	}
	if err := core.ValidateStatus(result.Metadata.Status); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeMappingKey(result.ID)
		existing, err := readMapping(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: mapping %s", storage.ErrDuplicateKey, result.ID)
		}

		if result.Metadata.CreatedAt.IsZero() {
			result.Metadata.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
		}
		if result.Metadata.UpdatedAt.IsZero() {
			result.Metadata.UpdatedAt = result.Metadata.CreatedAt
		}

		if err := tx.Set(key, storage.MarshalMapping(result)); err != nil {
			return err
		}
		if err := writeIndexes(tx, result); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetMapping retrieves a mapping by ID.
func (r *MappingRepository) GetMapping(ctx context.Context, id string) (*core.MappingResult, error) {
	var result *core.MappingResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readMapping(tx, makeMappingKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListMappingsByUser returns the user's mappings, newest first.
func (r *MappingRepository) ListMappingsByUser(ctx context.Context, userID string, limit int) ([]*core.MappingResult, error) {
	return r.listNewestFirst(ctx, makeUserPrefix(userID), limit)
}

// ListMappings returns all mappings, newest first.
func (r *MappingRepository) ListMappings(ctx context.Context, limit int) ([]*core.MappingResult, error) {
	return r.listNewestFirst(ctx, []byte(mappingTimePrefix), limit)
}

func (r *MappingRepository) listNewestFirst(ctx context.Context, prefix []byte, limit int) ([]*core.MappingResult, error) {
	var results []*core.MappingResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Use reverse iterator to get most recent mappings first
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(prefixEnd(prefix)); iter.Valid(); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			key := iter.Item().Key()
			id := string(key[len(prefix)+8:])
			result, err := readMapping(tx, makeMappingKey(id))
			if err != nil {
				return err
			}
			if result != nil {
				results = append(results, result)
			}
		}
		return nil
	}, false)
	return results, err
}

// UpdateMappingStatus changes the workflow status of a mapping.
func (r *MappingRepository) UpdateMappingStatus(ctx context.Context, id string, status core.Status, validatedBy string) (*core.MappingResult, error) {
	if err := core.ValidateStatus(status); err != nil {
		return nil, err
	}

	var result *core.MappingResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeMappingKey(id)
		var err error
		result, err = readMapping(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}

		histKey := makeHistoryKey(result.Concept.System, result.NormalizedTerm, result.Entry.Code, result.ID)
		switch {
		case status == core.StatusValidated && result.Metadata.Status != core.StatusValidated:
			if err := tx.Set(histKey, nil); err != nil {
				return err
			}
		case status != core.StatusValidated && result.Metadata.Status == core.StatusValidated:
			if err := tx.Delete(histKey); err != nil {
				return err
			}
		}

		result.Metadata.Status = status
		result.Metadata.ValidatedBy = validatedBy
		result.Metadata.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
		if err := tx.Set(key, storage.MarshalMapping(result)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ValidatedCodes counts validated mappings per code for a (system, term) pair.
func (r *MappingRepository) ValidatedCodes(ctx context.Context, system core.System, normalizedTerm string) (map[string]int, error) {
	counts := make(map[string]int)
	prefix := makeHistoryPrefix(system, normalizedTerm)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			counts[historyCode(iter.Item().Key(), prefix)]++
		}
		return nil
	}, false)
	return counts, err
}

func writeIndexes(tx *badger.Txn, result *core.MappingResult) error {
	created := result.Metadata.CreatedAt
	if err := tx.Set(makeUserKey(result.Metadata.UserID, created, result.ID), nil); err != nil {
		return err
	}
	if err := tx.Set(makeTimeKey(created, result.ID), nil); err != nil {
		return err
	}
	if result.Metadata.Status == core.StatusValidated {
		histKey := makeHistoryKey(result.Concept.System, result.NormalizedTerm, result.Entry.Code, result.ID)
		if err := tx.Set(histKey, nil); err != nil {
			return err
		}
	}
	return nil
}

// readMapping reads a mapping from the transaction. Returns nil if absent.
func readMapping(tx *badger.Txn, key []byte) (*core.MappingResult, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var result *core.MappingResult
	err = item.Value(func(val []byte) error {
		var err error
		result, err = storage.UnmarshalMapping(val)
		return err
	})
	return result, err
}
