package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/storage"
)

func TestKnowledgeBasics(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Knowledge

	saved, err := repo.SaveConcepts(ctx,
		&core.KnowledgeEntry{Concept: core.Concept{System: core.SystemAyurveda, Term: "Jwara", Description: "fever"}},
		&core.KnowledgeEntry{Concept: core.Concept{ID: "sid-1", System: core.SystemSiddha, Term: "Suram"}},
	)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, core.KnowledgeID(saved[0].Concept), saved[0].Concept.ID)
	assert.Equal(t, "sid-1", saved[1].Concept.ID)

	got, err := repo.GetConcept(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "Suram", got.Concept.Term)

	_, err = repo.GetConcept(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	all, err := repo.ListConcepts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	siddha, err := repo.ListConcepts(ctx, core.SystemSiddha)
	require.NoError(t, err)
	require.Len(t, siddha, 1)
	assert.Equal(t, "Suram", siddha[0].Concept.Term)
}

func TestKnowledgeSave_ReplaceKeepsInsertedAt(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Knowledge

	first, err := repo.SaveConcepts(ctx, &core.KnowledgeEntry{Concept: core.Concept{ID: "k", System: core.SystemUnani, Term: "Humma"}})
	require.NoError(t, err)
	inserted := first[0].InsertedAt

	_, err = repo.SaveConcepts(ctx, &core.KnowledgeEntry{Concept: core.Concept{ID: "k", System: core.SystemUnani, Term: "Humma", Description: "fever"}})
	require.NoError(t, err)

	got, err := repo.GetConcept(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "fever", got.Concept.Description)
	assert.True(t, got.InsertedAt.Equal(inserted))
}

func TestKnowledgeSave_Invalid(t *testing.T) {
	_, err := newTestStore(t).Knowledge.SaveConcepts(context.Background(),
		&core.KnowledgeEntry{Concept: core.Concept{System: "Homeopathy", Term: "x"}})
	assert.ErrorIs(t, err, core.ErrInvalidSystem)
}
