package indexing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/tradmap/ai/mock"
	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/storage"
	"github.com/poiesic/tradmap/storage/badger"
)

func setupCorpus(t *testing.T, n int) storage.CorpusRepository {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	entries := make([]*core.ClassificationEntry, n)
	for i := range entries {
		entries[i] = &core.ClassificationEntry{
			Code:           fmt.Sprintf("XA%02d", i),
			Title:          fmt.Sprintf("Condition %d", i),
			InclusionTerms: []string{fmt.Sprintf("synonym %d", i)},
		}
	}
	if n > 0 {
		_, err = store.Corpus.AddEntries(context.Background(), entries...)
		require.NoError(t, err)
	}
	return store.Corpus
}

func testConfig() *Config {
	return &Config{
		BatchSize:      3,
		Workers:        2,
		ReportInterval: 3,
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
	}
}

func TestNewIndexer_RequiresDependencies(t *testing.T) {
	_, err := NewIndexer(nil, mock.NewMockEmbedder(), nil, nil)
	assert.ErrorIs(t, err, ErrCorpusRequired)

	_, err = NewIndexer(setupCorpus(t, 0), nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestIndexer_Run(t *testing.T) {
	ctx := context.Background()
	corpus := setupCorpus(t, 10)
	embedder := mock.NewMockEmbedder().WithDimensions(8)

	var buf bytes.Buffer
	ix, err := NewIndexer(corpus, embedder, testConfig(), &buf)
	require.NoError(t, err)

	n, err := ix.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	entries, err := corpus.AllEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 10)
	for _, entry := range entries {
		require.Len(t, entry.Vector, 8, "entry %s should have a vector", entry.Code)

		var magnitude float64
		for _, v := range entry.Vector {
			magnitude += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, magnitude, 0.001, "vector should be normalized")

		want := NormalizeVector(mock.DeterministicVector(EntryText(entry), 8))
		assert.InDeltaSlice(t, want, entry.Vector, 1e-6)
	}

	assert.Contains(t, buf.String(), "10/10")
	assert.Contains(t, buf.String(), "Indexing complete")
}

func TestIndexer_EmptyCorpus(t *testing.T) {
	var buf bytes.Buffer
	ix, err := NewIndexer(setupCorpus(t, 0), mock.NewMockEmbedder(), nil, &buf)
	require.NoError(t, err)

	n, err := ix.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Contains(t, buf.String(), "No entries found")
}

func TestIndexer_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	embedder := mock.NewMockEmbedder().WithDimensions(4)
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("temporarily unavailable")
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.DeterministicVector(text, 4)
		}
		return out, nil
	}

	config := testConfig()
	config.Workers = 1
	ix, err := NewIndexer(setupCorpus(t, 4), embedder, config, nil)
	require.NoError(t, err)

	n, err := ix.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, int32(3), calls.Load(), "two batches plus one retry")
}

func TestIndexer_PersistentFailure(t *testing.T) {
	providerErr := errors.New("provider down")
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, providerErr
	}

	ix, err := NewIndexer(setupCorpus(t, 5), embedder, testConfig(), nil)
	require.NoError(t, err)

	n, err := ix.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, providerErr)
	assert.Equal(t, 0, n)
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	corpus := setupCorpus(t, 2)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}

	entries, err := corpus.AllEntries(context.Background())
	require.NoError(t, err)

	err = NewBatchProcessor(corpus, embedder, 1, time.Millisecond).Process(context.Background(), entries)
	assert.ErrorIs(t, err, ErrEmbeddingCount)
}

func TestEntryIterator_Pages(t *testing.T) {
	corpus := setupCorpus(t, 5)

	var sizes []int
	var codes []string
	err := NewEntryIterator(corpus, 2).ForEach(context.Background(), func(entries []*core.ClassificationEntry) error {
		sizes = append(sizes, len(entries))
		for _, e := range entries {
			codes = append(codes, e.Code)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Equal(t, []string{"XA00", "XA01", "XA02", "XA03", "XA04"}, codes)
}

func TestEntryIterator_StopsOnError(t *testing.T) {
	corpus := setupCorpus(t, 5)
	stop := errors.New("stop")

	calls := 0
	err := NewEntryIterator(corpus, 2).ForEach(context.Background(), func([]*core.ClassificationEntry) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestEntryIterator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewEntryIterator(setupCorpus(t, 3), 2).ForEach(ctx, func([]*core.ClassificationEntry) error {
		t.Fatal("fn should not be called")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEntryText(t *testing.T) {
	entry := &core.ClassificationEntry{
		Code:           "MG26",
		Title:          "Fever of unknown origin",
		InclusionTerms: []string{"Fever", "Jwara", " "},
		Description:    "Pyrexia, cause not found.",
	}
	assert.Equal(t, "fever of unknown origin; fever; jwara; pyrexia cause not found", EntryText(entry))
	assert.Equal(t, "malaria", EntryText(&core.ClassificationEntry{Code: "1F40", Title: "Malaria"}))
}
