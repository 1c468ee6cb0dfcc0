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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/tradmap/ai"
	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/storage"
)

var (
	// ErrCorpusRequired is returned when a corpus repository is not provided.
	ErrCorpusRequired = errors.New("corpus repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)

// Config holds configuration for an indexing run.
type Config struct {
	// BatchSize is the number of entries embedded per provider call
	BatchSize int

	// Workers is the number of batches embedded concurrently
	Workers int

	// ReportInterval is how often to report progress (number of entries)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for an embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		Workers:        2,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Indexer embeds every entry of a corpus.
type Indexer struct {
	corpus    storage.CorpusRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *EntryIterator
	logger    *slog.Logger
}

// NewIndexer creates a new indexer.
// progress: where to write progress output (typically os.Stderr)
func NewIndexer(corpus storage.CorpusRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Indexer, error) {
	if corpus == nil {
		return nil, ErrCorpusRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Indexer{
		corpus:    corpus,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(corpus, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewEntryIterator(corpus, config.BatchSize),
		logger:    slog.Default().With("component", "indexer"),
	}, nil
}

// Run embeds every corpus entry and returns the number of entries updated.
// The first failing batch stops the run; batches already written stay indexed.
func (ix *Indexer) Run(ctx context.Context) (int, error) {
	total, err := ix.corpus.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(ix.progress, "No entries found in corpus (0 entries)\n")
		return 0, nil
	}

	fmt.Fprintf(ix.progress, "Starting indexing of %d entries (batch size: %d, workers: %d)\n",
		total, ix.iterator.batchSize, max(ix.config.Workers, 1))

	pool, err := ants.NewPool(max(ix.config.Workers, 1))
	if err != nil {
		return 0, err
	}
	defer pool.Release()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tracker := NewProgressTracker(ix.progress, total, ix.config.ReportInterval)
	tracker.Start()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	iterErr := ix.iterator.ForEach(runCtx, func(entries []*core.ClassificationEntry) error {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := ix.processor.Process(runCtx, entries); err != nil {
				ix.logger.Error("error indexing batch", "first", entries[0].Code, "size", len(entries), "err", err)
				fail(fmt.Errorf("failed to process batch starting at %s: %w", entries[0].Code, err))
				return
			}
			tracker.Increment(len(entries))
		})
		if submitErr != nil {
			wg.Done()
			return submitErr
		}
		return nil
	})
	wg.Wait()

	mu.Lock()
	err = firstErr
	mu.Unlock()
	if err == nil && iterErr != nil {
		err = iterErr
	}
	processed := tracker.Current()
	if err != nil {
		return processed, err
	}

	tracker.Finish()
	elapsed := tracker.Elapsed()
	fmt.Fprintf(ix.progress, "Indexing complete. Processed %d entries in %v\n",
		processed, elapsed.Round(time.Millisecond))
	return processed, nil
}
