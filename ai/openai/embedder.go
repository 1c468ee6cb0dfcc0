package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/tradmap/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	// ErrVectorCount is returned when the provider answers with a different number of vectors than texts.
	ErrVectorCount = errors.New("embedding provider returned wrong number of vectors")

	// ErrDimensionMismatch is returned when a vector does not have the configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
// When the config sets Dimensions every returned vector is checked against it.
type Embedder struct {
	embedder   embeddings.Embedder
	model      string
	dimensions int
	logger     *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.APIToken),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("embedding client for %s: %w", config.EmbeddingModel, err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("embedder for %s: %w", config.EmbeddingModel, err)
	}

	return &Embedder{
		embedder:   embedder,
		model:      config.EmbeddingModel,
		dimensions: config.Dimensions,
		logger:     slog.Default().With("component", "openai-embedder", "model", config.EmbeddingModel),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText embeds one normalized term or corpus entry text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts in one provider call, one vector per text in order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, fmt.Errorf("model %s: %w", e.model, err)
	}
	if err := e.check(vectors, len(texts)); err != nil {
		e.logger.Warn("rejected embedding response", "err", err)
		return nil, err
	}
	return vectors, nil
}

func (e *Embedder) check(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("%w: model %s returned %d vectors for %d texts", ErrVectorCount, e.model, len(vectors), want)
	}
	if e.dimensions == 0 {
		return nil
	}
	for i, vec := range vectors {
		if len(vec) != e.dimensions {
			return fmt.Errorf("%w: model %s returned %d values for text %d, want %d",
				ErrDimensionMismatch, e.model, len(vec), i, e.dimensions)
		}
	}
	return nil
}
