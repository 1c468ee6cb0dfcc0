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


// Package ai provides abstractions for the AI services used by tradmap.
//
// Two capabilities are modelled:
//
//   - Embedder: Generates vector embeddings from text
//   - Narrator: Elaborates a deterministic explanation into prose
//
// Both are injected into the mapping engine; scores never depend on them
// beyond the embedding vector itself.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs via langchaingo
//   - ai/mock: Test doubles for unit testing without external dependencies
//   - ai/cache: An Embedder decorator that caches vectors in memory or Redis
//
// Public constructors (openai.NewProvider, openai.NewEmbedder) return interface
// types. Mock constructors return concrete types so tests can inject behavior
// and inspect call counts.
//
//	provider, err := openai.NewProvider(ai.NewConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "jwara")
package ai
