package openai

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/tradmap/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestScrubString(t *testing.T) {
	assert.Equal(t, "Jwara fever", scrubString(`  "Jwara" (fever) `))
	assert.Equal(t, "", scrubString("  "))
}

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"```text\nfenced\n```", "fenced"},
		{"```\nfenced\n```", "fenced"},
		{`"quoted"`, "quoted"},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanResponse(tt.in))
	}
}

func TestBuildNarrationPrompt(t *testing.T) {
	got := buildNarrationPrompt(ai.NarrationRequest{
		System:      "Ayurveda",
		Term:        "Jwara",
		Code:        "MG26",
		Title:       "Fever of other or unknown origin",
		Confidence:  0.912,
		Explanation: "exact match",
	})
	assert.Contains(t, got, "ICD-11: MG26 (Fever of other or unknown origin)")
	assert.Contains(t, got, "Confidence: 0.91")
	assert.Contains(t, got, "Term: Jwara")
}

type fakeModel struct {
	llms.Model
	response *llms.ContentResponse
	err      error
}

func (f *fakeModel) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	return f.response, f.err
}

func TestNarrator_Narrate(t *testing.T) {
	req := ai.NarrationRequest{Code: "MG26", Title: "Fever", Explanation: "exact match"}

	t.Run("returns cleaned text", func(t *testing.T) {
		n := &Narrator{
			client: &fakeModel{response: &llms.ContentResponse{
				Choices: []*llms.ContentChoice{{Content: "```\nThe term names fever.\n```"}},
			}},
			logger: slog.Default(),
		}
		got, err := n.Narrate(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "The term names fever.", got)
	})

	t.Run("no choices", func(t *testing.T) {
		n := &Narrator{client: &fakeModel{response: &llms.ContentResponse{}}, logger: slog.Default()}
		_, err := n.Narrate(context.Background(), req)
		assert.ErrorIs(t, err, ErrEmptyNarration)
	})

	t.Run("blank choice", func(t *testing.T) {
		n := &Narrator{
			client: &fakeModel{response: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "  "}}}},
			logger: slog.Default(),
		}
		_, err := n.Narrate(context.Background(), req)
		assert.ErrorIs(t, err, ErrEmptyNarration)
	})

	t.Run("model error", func(t *testing.T) {
		boom := errors.New("boom")
		n := &Narrator{client: &fakeModel{err: boom}, logger: slog.Default()}
		_, err := n.Narrate(context.Background(), req)
		assert.ErrorIs(t, err, boom)
	})
}
