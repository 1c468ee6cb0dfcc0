package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCorpusBasics(t *testing.T) {
	ctx := context.Background()
	corpus := newTestStore(t).Corpus

	added, err := corpus.AddEntries(ctx,
		&core.ClassificationEntry{Code: "MG26", Title: "Fever of other or unknown origin", Vector: []float32{1, 0}},
		&core.ClassificationEntry{Code: "1F40", Title: "Malaria", ParentCode: "1F4", Vector: []float32{0, 1}},
	)
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.False(t, added[0].InsertedAt.IsZero())
	assert.Equal(t, added[0].InsertedAt, added[0].UpdatedAt)

	got, err := corpus.GetEntry(ctx, "1F40")
	require.NoError(t, err)
	assert.Equal(t, "Malaria", got.Title)
	assert.Equal(t, "1F4", got.ParentCode)
	assert.Equal(t, []float32{0, 1}, got.Vector)

	_, err = corpus.GetEntry(ctx, "XX00")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	count, err := corpus.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	all, err := corpus.AllEntries(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "1F40", all[0].Code)
	assert.Equal(t, "MG26", all[1].Code)
}

func TestCorpusAddEntries_Duplicate(t *testing.T) {
	ctx := context.Background()
	corpus := newTestStore(t).Corpus

	_, err := corpus.AddEntries(ctx, &core.ClassificationEntry{Code: "MG26", Title: "Fever"})
	require.NoError(t, err)

	_, err = corpus.AddEntries(ctx, &core.ClassificationEntry{Code: "MG26", Title: "Fever again"})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestCorpusAddEntries_Invalid(t *testing.T) {
	_, err := newTestStore(t).Corpus.AddEntries(context.Background(), &core.ClassificationEntry{Title: "No code"})
	assert.ErrorIs(t, err, core.ErrEmptyCode)
}

func TestCorpusUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	corpus := newTestStore(t).Corpus

	added, err := corpus.AddEntries(ctx, &core.ClassificationEntry{Code: "MG26", Title: "Fever"})
	require.NoError(t, err)
	inserted := added[0].InsertedAt

	_, err = corpus.UpdateEntries(ctx, &core.ClassificationEntry{Code: "MG26", Title: "Fever", Vector: []float32{1}})
	require.NoError(t, err)

	got, err := corpus.GetEntry(ctx, "MG26")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, got.Vector)
	assert.True(t, got.InsertedAt.Equal(inserted))

	_, err = corpus.UpdateEntries(ctx, &core.ClassificationEntry{Code: "XX00", Title: "Missing"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, corpus.DeleteEntries(ctx, "MG26"))
	_, err = corpus.GetEntry(ctx, "MG26")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, corpus.DeleteEntries(ctx, "MG26"), storage.ErrNotFound)
}

func TestCorpusGetEntries_SkipsMissing(t *testing.T) {
	ctx := context.Background()
	corpus := newTestStore(t).Corpus

	_, err := corpus.AddEntries(ctx, &core.ClassificationEntry{Code: "MG26", Title: "Fever"})
	require.NoError(t, err)

	got, err := corpus.GetEntries(ctx, "MG26", "XX00")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "MG26", got[0].Code)
}

func TestCorpusListEntries_Pages(t *testing.T) {
	ctx := context.Background()
	corpus := newTestStore(t).Corpus

	for _, code := range []string{"A1", "B2", "C3", "D4", "E5"} {
		_, err := corpus.AddEntries(ctx, &core.ClassificationEntry{Code: code, Title: code})
		require.NoError(t, err)
	}

	var codes []string
	after := ""
	for {
		page, err := corpus.ListEntries(ctx, after, 2)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		for _, e := range page {
			codes = append(codes, e.Code)
		}
		after = page[len(page)-1].Code
	}
	assert.Equal(t, []string{"A1", "B2", "C3", "D4", "E5"}, codes)

	_, err := corpus.ListEntries(ctx, "", 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestCorpusQuery(t *testing.T) {
	ctx := context.Background()
	corpus := newTestStore(t).Corpus

	_, err := corpus.AddEntries(ctx,
		&core.ClassificationEntry{Code: "C", Title: "close", Vector: []float32{0.9, 0.1}},
		&core.ClassificationEntry{Code: "E", Title: "exact", Vector: []float32{1, 0}},
		&core.ClassificationEntry{Code: "F", Title: "far", Vector: []float32{0, 1}},
		&core.ClassificationEntry{Code: "N", Title: "no vector"},
		&core.ClassificationEntry{Code: "A", Title: "exact twin", Vector: []float32{2, 0}},
	)
	require.NoError(t, err)

	results, err := corpus.Query(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Equal similarity ties break by ascending code
	assert.Equal(t, "A", results[0].Entry.Code)
	assert.Equal(t, "E", results[1].Entry.Code)
	assert.Equal(t, "C", results[2].Entry.Code)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)

	all, err := corpus.Query(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, all, 4, "entry without vector is skipped")

	_, err = corpus.Query(ctx, nil, 3)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestCorpusQuery_Empty(t *testing.T) {
	results, err := newTestStore(t).Corpus.Query(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
