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


package indexing

import (
	"context"
	"strings"

	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/engine"
	"github.com/poiesic/tradmap/storage"
)

// DefaultBatchSize is the default number of entries fetched and embedded together.
const DefaultBatchSize = 64

// EntryIterator pages through the corpus in code order.
type EntryIterator struct {
	corpus    storage.CorpusRepository
	batchSize int
}

// NewEntryIterator creates a new entry iterator.
// batchSize: number of entries to fetch in each batch (must be > 0)
func NewEntryIterator(corpus storage.CorpusRepository, batchSize int) *EntryIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &EntryIterator{corpus: corpus, batchSize: batchSize}
}

// ForEach calls fn with consecutive batches of entries until the corpus is
// exhausted or fn fails. Context cancellation is checked between batches.
func (it *EntryIterator) ForEach(ctx context.Context, fn func([]*core.ClassificationEntry) error) error {
	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := it.corpus.ListEntries(ctx, after, it.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := fn(batch); err != nil {
			return err
		}

		if len(batch) < it.batchSize {
			return nil
		}
		after = batch[len(batch)-1].Code
	}
}

// EntryText is the text embedded for a classification entry: its title,
// inclusion terms and description, each normalized and joined by "; ".
func EntryText(entry *core.ClassificationEntry) string {
	parts := make([]string, 0, len(entry.InclusionTerms)+2)
	add := func(s string) {
		if n := engine.NormalizeText(s); n != "" {
			parts = append(parts, n)
		}
	}
	add(entry.Title)
	for _, term := range entry.InclusionTerms {
		add(term)
	}
	add(entry.Description)
	return strings.Join(parts, "; ")
}
