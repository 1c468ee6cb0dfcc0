package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/tradmap/ai/mock"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]float32, bool, error) {
	return nil, false, errors.New("store down")
}

func (failingStore) Set(context.Context, string, []float32) error {
	return errors.New("store down")
}

func TestCachingEmbedder_EmbedText(t *testing.T) {
	ctx := context.Background()
	inner := mock.NewMockEmbedder().WithDimensions(4)
	store := newMemoryStore(t, 0)
	c := NewCachingEmbedder(inner, store, "model-a")

	v1, err := c.EmbedText(ctx, "jwara")
	require.NoError(t, err)
	v2, err := c.EmbedText(ctx, "jwara")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, inner.CallCount(), "second call is served from cache")
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, mock.DeterministicVector("jwara", 4), v1)
}

func TestCachingEmbedder_KeyIncludesModel(t *testing.T) {
	store := newMemoryStore(t, 0)
	a := NewCachingEmbedder(mock.NewMockEmbedder(), store, "model-a")
	b := NewCachingEmbedder(mock.NewMockEmbedder(), store, "model-b")
	assert.NotEqual(t, a.Key("jwara"), b.Key("jwara"))
	assert.Equal(t, a.Key("jwara"), a.Key("jwara"))
}

func TestCachingEmbedder_EmbedTexts(t *testing.T) {
	ctx := context.Background()
	inner := mock.NewMockEmbedder().WithDimensions(4)
	c := NewCachingEmbedder(inner, newMemoryStore(t, 0), "m")

	_, err := c.EmbedText(ctx, "b")
	require.NoError(t, err)
	inner.Reset()
	inner.WithDimensions(4)

	vecs, err := c.EmbedTexts(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, mock.DeterministicVector("a", 4), vecs[0])
	assert.Equal(t, mock.DeterministicVector("b", 4), vecs[1])
	assert.Equal(t, mock.DeterministicVector("c", 4), vecs[2])
	assert.Equal(t, []string{"a", "c"}, inner.Texts(), "only misses reach the provider")
}

func TestCachingEmbedder_StoreFailureFallsThrough(t *testing.T) {
	inner := mock.NewMockEmbedder().WithDimensions(4)
	c := NewCachingEmbedder(inner, failingStore{}, "m")

	v, err := c.EmbedText(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, mock.DeterministicVector("x", 4), v)
}

func TestCachingEmbedder_ProviderErrorNotCached(t *testing.T) {
	boom := errors.New("provider down")
	inner := mock.NewMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		return nil, boom
	})
	store := newMemoryStore(t, 0)
	c := NewCachingEmbedder(inner, store, "m")

	_, err := c.EmbedText(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.Len())
}

func newMemoryStore(t *testing.T, maxEntries int) *MemoryStore {
	t.Helper()
	s, err := NewMemoryStore(maxEntries)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMemoryStore_Bounded(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(t, 2)
	for i, key := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Set(ctx, key, []float32{float32(i)}))
	}
	assert.LessOrEqual(t, s.Len(), 2)

	present := 0
	for _, key := range []string{"a", "b", "c", "d"} {
		if _, ok, err := s.Get(ctx, key); ok {
			require.NoError(t, err)
			present++
		}
	}
	assert.LessOrEqual(t, present, 2)
}

func TestMemoryStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(t, 0)
	require.NoError(t, s.Set(ctx, "k", []float32{1}))
	require.NoError(t, s.Set(ctx, "k", []float32{2}))

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{2}, got)
	assert.Equal(t, 1, s.Len())
}

func TestNewMemoryStore_RejectsNegative(t *testing.T) {
	_, err := NewMemoryStore(-1)
	assert.Error(t, err)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(t, 0)
	vec := []float32{1, 2}
	require.NoError(t, s.Set(ctx, "k", vec))
	vec[0] = 99

	got, _, _ := s.Get(ctx, "k")
	assert.Equal(t, []float32{1, 2}, got)
	got[1] = 42
	again, _, _ := s.Get(ctx, "k")
	assert.Equal(t, []float32{1, 2}, again)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TRADMAP_REDIS_ADDR")
	if addr == "" {
		t.Skip("TRADMAP_REDIS_ADDR not set")
	}
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	s, err := NewRedisStore(ctx, addr, "tradmap-test:", time.Minute)
	require.NoError(t, err)
	defer s.Close()

	key := "k-" + time.Now().Format(time.RFC3339Nano)
	_, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, key, []float32{0.5, 0.25}))
	v, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float32{0.5, 0.25}, v)
}
