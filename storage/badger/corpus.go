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
	"math"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/storage"
)

// CorpusRepository implements storage.CorpusRepository using BadgerDB.
type CorpusRepository struct {
	backend *Backend
}

var _ storage.CorpusRepository = (*CorpusRepository)(nil)

// NewCorpusRepository creates a new CorpusRepository.
func NewCorpusRepository(backend *Backend) (*CorpusRepository, error) {
	if backend == nil {
		return nil, errors.New("badger: backend is required")
	}
	return &CorpusRepository{
		backend: backend,
	}, nil
}

// Close releases resources. CorpusRepository has no resources to release.
func (r *CorpusRepository) Close() error {
	return nil
}

// AddEntries adds one or more classification entries to the corpus.
func (r *CorpusRepository) AddEntries(ctx context.Context, entries ...*core.ClassificationEntry) ([]*core.ClassificationEntry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, entry := range entries {
			if err := core.ValidateEntry(entry); err != nil {
				return err
			}

			key := makeEntryKey(entry.Code)
			existing, err := readEntry(tx, key)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("%w: entry %s", storage.ErrDuplicateKey, entry.Code)
			}

			entry.InsertedAt = now
			entry.UpdatedAt = now
			if err := tx.Set(key, storage.MarshalEntry(entry)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return entries, err
}

// UpdateEntries replaces existing entries.
func (r *CorpusRepository) UpdateEntries(ctx context.Context, entries ...*core.ClassificationEntry) ([]*core.ClassificationEntry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, entry := range entries {
			if err := core.ValidateEntry(entry); err != nil {
				return err
			}

			key := makeEntryKey(entry.Code)
			old, err := readEntry(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return fmt.Errorf("%w: entry %s", storage.ErrNotFound, entry.Code)
			}

			entry.InsertedAt = old.InsertedAt
			entry.UpdatedAt = now
			if err := tx.Set(key, storage.MarshalEntry(entry)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return entries, err
}

// DeleteEntries removes entries by code.
func (r *CorpusRepository) DeleteEntries(ctx context.Context, codes ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, code := range codes {
			key := makeEntryKey(code)
			entry, err := readEntry(tx, key)
			if err != nil {
				return err
			}
			if entry == nil {
				return fmt.Errorf("%w: entry %s", storage.ErrNotFound, code)
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetEntry retrieves a single entry by code.
func (r *CorpusRepository) GetEntry(ctx context.Context, code string) (*core.ClassificationEntry, error) {
	var result *core.ClassificationEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readEntry(tx, makeEntryKey(code))
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

// GetEntries retrieves multiple entries by code.
func (r *CorpusRepository) GetEntries(ctx context.Context, codes ...string) ([]*core.ClassificationEntry, error) {
	var result []*core.ClassificationEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, code := range codes {
			entry, err := readEntry(tx, makeEntryKey(code))
			if err != nil {
				return err
			}
			if entry != nil {
				result = append(result, entry)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListEntries returns up to limit entries with a code greater than afterCode.
func (r *CorpusRepository) ListEntries(ctx context.Context, afterCode string, limit int) ([]*core.ClassificationEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var results []*core.ClassificationEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		start := makeEntryKey(afterCode)
		for iter.Seek(start); iter.Valid() && len(results) < limit; iter.Next() {
			item := iter.Item()
			if afterCode != "" && string(item.Key()) == string(start) {
				continue
			}
			var entry *core.ClassificationEntry
			if err := item.Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalEntry(val)
				return err
			}); err != nil {
				return err
			}
			results = append(results, entry)
		}
		return nil
	}, false)
	return results, err
}

// AllEntries returns every entry ordered by code.
func (r *CorpusRepository) AllEntries(ctx context.Context) ([]*core.ClassificationEntry, error) {
	var results []*core.ClassificationEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(ctx, tx, []byte(entryPrefix), func(_, val []byte) error {
			entry, err := storage.UnmarshalEntry(val)
			if err != nil {
				return err
			}
			results = append(results, entry)
			return nil
		})
	}, false)
	return results, err
}

// Count returns the number of entries in the corpus.
func (r *CorpusRepository) Count(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Query scans the corpus and returns the entries most similar to vector.
// Entries without vectors and non-finite similarities are skipped.
func (r *CorpusRepository) Query(ctx context.Context, vector []float32, limit int) ([]core.Candidate, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var results []core.Candidate
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(ctx, tx, []byte(entryPrefix), func(_, val []byte) error {
			entry, err := storage.UnmarshalEntry(val)
			if err != nil {
				return err
			}
			if len(entry.Vector) == 0 {
				return nil
			}
			similarity := storage.CosineSimilarity(vector, entry.Vector)
			if math.IsNaN(similarity) || math.IsInf(similarity, 0) {
				return nil
			}
			results = append(results, core.Candidate{Entry: *entry, Similarity: similarity})
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b core.Candidate) int {
		if a.Similarity > b.Similarity {
			return -1
		}
		if a.Similarity < b.Similarity {
			return 1
		}
		return strings.Compare(a.Entry.Code, b.Entry.Code)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// readEntry reads an entry from the transaction. Returns nil if absent.
func readEntry(tx *badger.Txn, key []byte) (*core.ClassificationEntry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.ClassificationEntry
	err = item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalEntry(val)
		return err
	})
	return entry, err
}
