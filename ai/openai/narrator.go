
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/tradmap/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrEmptyNarration is returned when the model produced no usable text.
var ErrEmptyNarration = errors.New("narrator returned no text")

const narratorSystemPrompt = `You explain mappings between traditional medicine terms and ICD-11 codes to clinicians.
You are given a deterministic explanation of why a code was chosen. Rewrite it as two or three plain sentences.
Do not change the code, the title, or the confidence. Do not invent evidence that is not in the explanation.
Output only the rewritten explanation, with no preamble.`

// Narrator implements ai.Narrator using OpenAI-compatible chat APIs.
type Narrator struct {
	client llms.Model
	logger *slog.Logger
}

// newNarrator is an internal constructor that returns the concrete type.
func newNarrator(config *ai.Config) (*Narrator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.NarratorHost),
		openai.WithToken(config.APIToken),
		openai.WithModel(config.NarratorModel),
	)
	if err != nil {
		return nil, err
	}

	return &Narrator{
		client: client,
		logger: slog.Default().With("component", "openai-narrator"),
	}, nil
}

// NewNarrator creates a new narrator using the provided configuration.
//
// Returns ai.Narrator interface to enforce abstraction.
func NewNarrator(config *ai.Config) (ai.Narrator, error) {
	return newNarrator(config)
}

// Narrate asks the chat model to elaborate the deterministic explanation.
func (n *Narrator) Narrate(ctx context.Context, req ai.NarrationRequest) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(narratorSystemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(buildNarrationPrompt(req))},
		},
	}

	response, err := n.client.GenerateContent(ctx, content, llms.WithTemperature(0.2))
	if err != nil {
		n.logger.Error("failed to generate narration", "code", req.Code, "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		n.logger.Debug("no choices returned from model")
		return "", ErrEmptyNarration
	}

	text := cleanResponse(response.Choices[0].Content)
	if text == "" {
		return "", ErrEmptyNarration
	}
	return text, nil
}

func buildNarrationPrompt(req ai.NarrationRequest) string {
	return fmt.Sprintf("System: %s\nTerm: %s\nICD-11: %s (%s)\nConfidence: %.2f\nExplanation: %s",
		req.System, scrubString(req.Term), req.Code, req.Title, req.Confidence, req.Explanation)
}
