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
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/storage"
)

// KnowledgeRepository implements storage.KnowledgeRepository using BadgerDB.
type KnowledgeRepository struct {
	backend *Backend
}

var _ storage.KnowledgeRepository = (*KnowledgeRepository)(nil)

// NewKnowledgeRepository creates a new KnowledgeRepository.
func NewKnowledgeRepository(backend *Backend) (*KnowledgeRepository, error) {
	if backend == nil {
		return nil, errors.New("badger: backend is required")
	}
	return &KnowledgeRepository{backend: backend}, nil
}

// Close releases resources. KnowledgeRepository has no resources to release.
func (r *KnowledgeRepository) Close() error {
	return nil
}

// SaveConcepts inserts or replaces knowledge entries.
func (r *KnowledgeRepository) SaveConcepts(ctx context.Context, entries ...*core.KnowledgeEntry) ([]*core.KnowledgeEntry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, entry := range entries {
			if err := core.ValidateConcept(&entry.Concept); err != nil {
				return err
			}
			if entry.Concept.ID == "" {
				entry.Concept.ID = core.KnowledgeID(entry.Concept)
			}

			key := makeKnowledgeKey(entry.Concept.ID)
			old, err := readKnowledge(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				entry.InsertedAt = old.InsertedAt
			} else {
				entry.InsertedAt = now
			}
			entry.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalKnowledge(entry)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	return entries, err
}

// GetConcept retrieves a knowledge entry by concept ID.
func (r *KnowledgeRepository) GetConcept(ctx context.Context, id string) (*core.KnowledgeEntry, error) {
	var result *core.KnowledgeEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readKnowledge(tx, makeKnowledgeKey(id))
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

// ListConcepts returns all entries, optionally restricted to one system.
func (r *KnowledgeRepository) ListConcepts(ctx context.Context, system core.System) ([]*core.KnowledgeEntry, error) {
	var results []*core.KnowledgeEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(ctx, tx, []byte(knowledgePrefix), func(_, val []byte) error {
			entry, err := storage.UnmarshalKnowledge(val)
			if err != nil {
				return err
			}
			if system == "" || entry.Concept.System == system {
				results = append(results, entry)
			}
			return nil
		})
	}, false)
	return results, err
}

// readKnowledge reads a knowledge entry from the transaction. Returns nil if absent.
func readKnowledge(tx *badger.Txn, key []byte) (*core.KnowledgeEntry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.KnowledgeEntry
	err = item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalKnowledge(val)
		return err
	})
	return entry, err
}
