// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Narrator elaborates a deterministic mapping explanation into clinician-facing prose.
// Implementations must be thread-safe for concurrent use.
type Narrator interface {
	// Narrate receives the deterministic explanation and the facts it was built
	// from and returns an elaborated explanation. It never influences scores.
	Narrate(ctx context.Context, req NarrationRequest) (string, error)
}

// NarrationRequest carries the facts a Narrator may use.
type NarrationRequest struct {
	System      string
	Term        string
	Code        string
	Title       string
	Confidence  float64
	Explanation string
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Narrator returns the explanation narration service.
	Narrator() Narrator

	// Close releases resources held by the provider and its services.
	Close() error
}
