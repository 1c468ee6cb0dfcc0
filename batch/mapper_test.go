package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/tradmap/ai/mock"
	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/engine"
	"github.com/poiesic/tradmap/storage/badger"
)

type fixedCorpus []core.Candidate

func (c fixedCorpus) Query(context.Context, []float32, int) ([]core.Candidate, error) {
	return append([]core.Candidate(nil), c...), nil
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	corpus := fixedCorpus{
		{Entry: core.ClassificationEntry{Code: "MG26", Title: "Fever of unknown origin", InclusionTerms: []string{"jwara"}}, Similarity: 0.7},
		{Entry: core.ClassificationEntry{Code: "CA23", Title: "Asthma", InclusionTerms: []string{"tamaka swasa"}}, Similarity: 0.6},
	}
	var n atomic.Int64
	e, err := engine.New(mock.NewMockEmbedder().WithDimensions(8), corpus,
		engine.WithIDGenerator(func() string { return fmt.Sprintf("m-%d", n.Add(1)) }),
	)
	require.NoError(t, err)
	return e
}

type countingMapper struct {
	calls atomic.Int32
	err   error
}

func (c *countingMapper) MapConcept(ctx context.Context, concept core.Concept, _ map[string]any) (*core.MappingResult, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &core.MappingResult{ID: concept.Term, Concept: concept, Metadata: core.MappingMetadata{Status: core.StatusPending}}, nil
}

func TestNewMapper_RequiresMapper(t *testing.T) {
	_, err := NewMapper(nil)
	assert.ErrorIs(t, err, ErrMapperRequired)
}

func TestMapAll_Order(t *testing.T) {
	m, err := NewMapper(newEngine(t), WithPoolSize(3))
	require.NoError(t, err)

	requests := []Request{
		{Concept: core.Concept{System: core.SystemAyurveda, Term: "Jwara"}},
		{Concept: core.Concept{System: core.SystemAyurveda, Term: "Tamaka swasa"}},
		{Concept: core.Concept{System: core.SystemAyurveda, Term: ""}},
		{Concept: core.Concept{System: core.SystemUnani, Term: "Humma"}},
	}

	outcomes, err := m.MapAll(context.Background(), requests)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidConcept)
	require.Len(t, outcomes, 4)

	for i, o := range outcomes {
		assert.Equal(t, i, o.Index)
	}
	assert.Equal(t, "MG26", outcomes[0].Result.Entry.Code)
	assert.Equal(t, "CA23", outcomes[1].Result.Entry.Code)
	assert.Nil(t, outcomes[2].Result)
	assert.ErrorIs(t, outcomes[2].Err, engine.ErrInvalidConcept)
	assert.NoError(t, outcomes[3].Err)
	assert.Equal(t, "Humma", outcomes[3].Result.Concept.Term)
}

func TestMapAll_Saves(t *testing.T) {
	ctx := context.Background()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	m, err := NewMapper(newEngine(t), WithRepository(store.Mappings), WithPoolSize(2))
	require.NoError(t, err)

	requests := make([]Request, 6)
	for i := range requests {
		requests[i] = Request{
			Concept: core.Concept{System: core.SystemAyurveda, Term: "Jwara"},
			Context: map[string]any{"userId": "dr-rao"},
		}
	}

	outcomes, err := m.MapAll(ctx, requests)
	require.NoError(t, err)
	require.Len(t, outcomes, 6)

	saved, err := store.Mappings.ListMappingsByUser(ctx, "dr-rao", 0)
	require.NoError(t, err)
	assert.Len(t, saved, 6)

	for _, o := range outcomes {
		got, err := store.Mappings.GetMapping(ctx, o.Result.ID)
		require.NoError(t, err)
		assert.Equal(t, "MG26", got.Entry.Code)
	}
}

func TestMapAll_SaveFailureKeepsResult(t *testing.T) {
	ctx := context.Background()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	mapper := &countingMapper{}
	m, err := NewMapper(mapper, WithRepository(store.Mappings), WithPoolSize(1))
	require.NoError(t, err)

	// Same term twice gives the same ID from countingMapper, so the second save collides.
	outcomes, err := m.MapAll(ctx, []Request{
		{Concept: core.Concept{System: core.SystemYoga, Term: "Kampa"}},
		{Concept: core.Concept{System: core.SystemYoga, Term: "Kampa"}},
	})
	require.Error(t, err)

	failures := 0
	for _, o := range outcomes {
		require.NotNil(t, o.Result)
		if o.Err != nil {
			failures++
		}
	}
	assert.Equal(t, 1, failures)
}

func TestMapAll_Empty(t *testing.T) {
	mapper := &countingMapper{}
	m, err := NewMapper(mapper)
	require.NoError(t, err)

	outcomes, err := m.MapAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	assert.Equal(t, int32(0), mapper.calls.Load())
}

func TestMapAll_AllFail(t *testing.T) {
	boom := errors.New("boom")
	mapper := &countingMapper{err: boom}
	m, err := NewMapper(mapper, WithPoolSize(4))
	require.NoError(t, err)

	requests := make([]Request, 10)
	for i := range requests {
		requests[i] = Request{Concept: core.Concept{System: core.SystemSiddha, Term: "Suram"}}
	}

	outcomes, err := m.MapAll(context.Background(), requests)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, outcomes, 10)
	assert.Equal(t, int32(10), mapper.calls.Load())
	for _, o := range outcomes {
		assert.ErrorIs(t, o.Err, boom)
	}
}
