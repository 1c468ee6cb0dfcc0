package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/storage"
)

func testMapping(id, user, code string, created time.Time) *core.MappingResult {
	return &core.MappingResult{
		ID:              id,
		Concept:         core.Concept{System: core.SystemAyurveda, Term: "Jwara"},
		NormalizedTerm:  "jwara",
		Entry:           core.ClassificationEntry{Code: code, Title: "title " + code},
		ConfidenceScore: 0.8,
		Metadata: core.MappingMetadata{
			CreatedAt: created,
			UpdatedAt: created,
			UserID:    user,
			Status:    core.StatusPending,
		},
	}
}

func TestMappingSaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Mappings
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveMapping(ctx, testMapping("m1", "u1", "MG26", created)))

	got, err := repo.GetMapping(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "MG26", got.Entry.Code)
	assert.Equal(t, "u1", got.Metadata.UserID)
	assert.True(t, got.Metadata.CreatedAt.Equal(created))

	_, err = repo.GetMapping(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = repo.SaveMapping(ctx, testMapping("m1", "u1", "MG26", created))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestMappingSave_Invalid(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Mappings

	assert.ErrorIs(t, repo.SaveMapping(ctx, &core.MappingResult{}), storage.ErrInvalidQuery)

	m := testMapping("m1", "u1", "MG26", time.Now())
	m.Metadata.Status = "approved"
	assert.ErrorIs(t, repo.SaveMapping(ctx, m), core.ErrInvalidStatus)
}

func TestListMappingsByUser_NewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Mappings
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.SaveMapping(ctx, testMapping(fmt.Sprintf("a%d", i), "alice", "MG26", base.Add(time.Duration(i)*time.Minute))))
	}
	require.NoError(t, repo.SaveMapping(ctx, testMapping("b0", "bob", "MG26", base.Add(time.Hour))))
	// A user whose name extends another user's name must not leak into its results
	require.NoError(t, repo.SaveMapping(ctx, testMapping("c0", "alice2", "MG26", base.Add(2*time.Hour))))

	results, err := repo.ListMappingsByUser(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("a%d", 4-i), r.ID)
	}

	limited, err := repo.ListMappingsByUser(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "a4", limited[0].ID)
	assert.Equal(t, "a3", limited[1].ID)

	none, err := repo.ListMappingsByUser(ctx, "carol", 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := repo.ListMappings(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 7)
	assert.Equal(t, "c0", all[0].ID)
	assert.Equal(t, "b0", all[1].ID)
}

func TestUpdateMappingStatus_FeedsHistory(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Mappings
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveMapping(ctx, testMapping("m1", "u1", "MG26", created)))
	require.NoError(t, repo.SaveMapping(ctx, testMapping("m2", "u2", "MG26", created.Add(time.Second))))
	require.NoError(t, repo.SaveMapping(ctx, testMapping("m3", "u1", "1F40", created.Add(2*time.Second))))

	counts, err := repo.ValidatedCodes(ctx, core.SystemAyurveda, "jwara")
	require.NoError(t, err)
	assert.Empty(t, counts, "pending mappings are not history")

	for _, id := range []string{"m1", "m2", "m3"} {
		updated, err := repo.UpdateMappingStatus(ctx, id, core.StatusValidated, "dr-rao")
		require.NoError(t, err)
		assert.Equal(t, core.StatusValidated, updated.Metadata.Status)
		assert.Equal(t, "dr-rao", updated.Metadata.ValidatedBy)
		assert.True(t, updated.Metadata.UpdatedAt.After(updated.Metadata.CreatedAt))
	}

	counts, err = repo.ValidatedCodes(ctx, core.SystemAyurveda, "jwara")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"MG26": 2, "1F40": 1}, counts)

	other, err := repo.ValidatedCodes(ctx, core.SystemSiddha, "jwara")
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = repo.UpdateMappingStatus(ctx, "m2", core.StatusRejected, "dr-rao")
	require.NoError(t, err)
	counts, err = repo.ValidatedCodes(ctx, core.SystemAyurveda, "jwara")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"MG26": 1, "1F40": 1}, counts)

	stored, err := repo.GetMapping(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, core.StatusRejected, stored.Metadata.Status)
}

func TestUpdateMappingStatus_Errors(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Mappings

	_, err := repo.UpdateMappingStatus(ctx, "missing", core.StatusValidated, "x")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = repo.UpdateMappingStatus(ctx, "missing", "approved", "x")
	assert.ErrorIs(t, err, core.ErrInvalidStatus)
}
