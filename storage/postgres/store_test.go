package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/storage"
)

// connectTestStore connects to the database named by TRADMAP_POSTGRES_URL.
// Tests are skipped when it is unset.
func connectTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TRADMAP_POSTGRES_URL")
	if url == "" {
		t.Skip("TRADMAP_POSTGRES_URL not set")
	}
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	store, err := Connect(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_MappingLifecycle(t *testing.T) {
	ctx := context.Background()
	store := connectTestStore(t)

	user := "user-" + uuid.NewString()
	term := "jwara-" + uuid.NewString()
	base := time.Now().UTC().Truncate(time.Microsecond)

	ids := []string{uuid.NewString(), uuid.NewString()}
	for i, id := range ids {
		created := base.Add(time.Duration(i) * time.Second)
		require.NoError(t, store.SaveMapping(ctx, &core.MappingResult{
			ID:              id,
			Concept:         core.Concept{System: core.SystemAyurveda, Term: "Jwara"},
			NormalizedTerm:  term,
			Entry:           core.ClassificationEntry{Code: "MG26", Title: "Fever"},
			ConfidenceScore: 0.9,
			Metadata:        core.MappingMetadata{CreatedAt: created, UpdatedAt: created, UserID: user, Status: core.StatusPending},
		}))
	}

	err := store.SaveMapping(ctx, &core.MappingResult{ID: ids[0], Metadata: core.MappingMetadata{Status: core.StatusPending}})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	listed, err := store.ListMappingsByUser(ctx, user, 0)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, ids[1], listed[0].ID)

	updated, err := store.UpdateMappingStatus(ctx, ids[0], core.StatusValidated, "dr-rao")
	require.NoError(t, err)
	assert.Equal(t, core.StatusValidated, updated.Metadata.Status)

	counts, err := store.ValidatedCodes(ctx, core.SystemAyurveda, term)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"MG26": 1}, counts)

	_, err = store.GetMapping(ctx, uuid.NewString())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_Knowledge(t *testing.T) {
	ctx := context.Background()
	store := connectTestStore(t)

	id := uuid.NewString()
	saved, err := store.SaveConcepts(ctx, &core.KnowledgeEntry{
		Concept: core.Concept{ID: id, System: core.SystemUnani, Term: "Humma"},
		Vector:  []float32{1, 0},
	})
	require.NoError(t, err)
	assert.False(t, saved[0].InsertedAt.IsZero())

	got, err := store.GetConcept(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Humma", got.Concept.Term)
	assert.Equal(t, []float32{1, 0}, got.Vector)

	unani, err := store.ListConcepts(ctx, core.SystemUnani)
	require.NoError(t, err)
	assert.NotEmpty(t, unani)
}
