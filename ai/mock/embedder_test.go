package mock

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/poiesic/tradmap/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder()
	ctx := context.Background()

	v1, err := m.EmbedText(ctx, "jwara")
	require.NoError(t, err)
	v2, err := m.EmbedText(ctx, "jwara")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, DefaultDimensions)
	assert.Equal(t, 2, m.CallCount())
	assert.Equal(t, []string{"jwara", "jwara"}, m.Texts())

	var sum float64
	for _, x := range v1 {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestMockEmbedder_CustomBehavior(t *testing.T) {
	boom := errors.New("provider down")
	m := NewMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		return nil, boom
	})

	_, err := m.EmbedText(context.Background(), "x")
	assert.ErrorIs(t, err, boom)

	_, err = m.EmbedTexts(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, boom)

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
	v, err := m.WithDimensions(8).EmbedText(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, v, 8)
}

func TestMockEmbedder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockEmbedder().EmbedText(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockEmbedder_Concurrent(t *testing.T) {
	m := NewMockEmbedder()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.EmbedText(context.Background(), "x")
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, m.CallCount())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	require.NotNil(t, p.Embedder())
	require.NotNil(t, p.Narrator())

	text, err := p.Narrator().Narrate(context.Background(), ai.NarrationRequest{Explanation: "exact match"})
	require.NoError(t, err)
	assert.Equal(t, "Narrated: exact match", text)
	assert.Equal(t, 1, p.(*MockProvider).GetMockNarrator().CallCount())

	bare := NewMockProviderWithServices(NewMockEmbedder(), nil)
	assert.Nil(t, bare.Narrator())
	assert.NoError(t, bare.Close())
}
