package indexing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/tradmap/ai"
	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/retry"
	"github.com/poiesic/tradmap/storage"
)

// ErrEmbeddingCount is returned when the embedder answers with the wrong number of vectors.
var ErrEmbeddingCount = errors.New("embedding count mismatch")

// BatchProcessor embeds batches of classification entries.
type BatchProcessor struct {
	corpus         storage.CorpusRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(corpus storage.CorpusRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		corpus:         corpus,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of entries and updates them in the corpus.
// Vectors are normalized after embedding to ensure compatibility with cosine similarity.
func (bp *BatchProcessor) Process(ctx context.Context, entries []*core.ClassificationEntry) error {
	if len(entries) == 0 {
		return nil
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = EntryText(entry)
	}

	var embeddings [][]float32
	err := retry.WithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(entries) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCount, len(entries), len(embeddings))
	}

	for i := range entries {
		entries[i].Vector = NormalizeVector(embeddings[i])
	}

	if _, err := bp.corpus.UpdateEntries(ctx, entries...); err != nil {
		return fmt.Errorf("failed to update entries: %w", err)
	}
	return nil
}
