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


package mock

import (
	"context"
	"sync"

	"github.com/poiesic/tradmap/ai"
)

// MockNarrator is a test double for ai.Narrator.
// By default it echoes the deterministic explanation with a fixed prefix.
type MockNarrator struct {
	// NarrateFunc is called by Narrate if set.
	NarrateFunc func(ctx context.Context, req ai.NarrationRequest) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockNarrator creates a mock narrator with default behavior.
func NewMockNarrator() *MockNarrator {
	return &MockNarrator{}
}

// WithNarrateFunc sets NarrateFunc and returns the narrator for chaining.
func (m *MockNarrator) WithNarrateFunc(fn func(ctx context.Context, req ai.NarrationRequest) (string, error)) *MockNarrator {
	m.NarrateFunc = fn
	return m
}

// Narrate returns the injected result or "Narrated: <explanation>".
func (m *MockNarrator) Narrate(ctx context.Context, req ai.NarrationRequest) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.NarrateFunc != nil {
		return m.NarrateFunc(ctx, req)
	}
	return "Narrated: " + req.Explanation, nil
}

// CallCount returns the number of Narrate calls.
func (m *MockNarrator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
