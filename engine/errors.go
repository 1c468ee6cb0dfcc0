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


package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/poiesic/tradmap/core"
)

var (
	// ErrInvalidConcept is returned when the concept is malformed or its term is empty.
	// It is the same value as core.ErrInvalidConcept.
	ErrInvalidConcept = core.ErrInvalidConcept

	// ErrEmbeddingProvider is returned when the embedding provider fails or answers
	// with an unusable vector.
	ErrEmbeddingProvider = errors.New("embedding provider failure")

	// ErrCorpusQuery is returned when the terminology corpus cannot be queried.
	ErrCorpusQuery = errors.New("corpus query failure")

	// ErrNoCandidates is returned when the corpus yields no usable candidate.
	ErrNoCandidates = errors.New("no mapping found")

	// ErrCancelled is returned when the caller abandons the request.
	ErrCancelled = errors.New("mapping cancelled")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrCorpusRequired is returned when a corpus index is not provided.
	ErrCorpusRequired = errors.New("corpus index required")

	// ErrInvalidOption is returned when an engine option has an unusable value.
	ErrInvalidOption = errors.New("invalid engine option")

	// ErrInvalidWeights is returned when a ranking weight is negative or not finite.
	ErrInvalidWeights = errors.New("invalid ranking weights")
)

// Stage names a pipeline stage for diagnostics.
type Stage string

const (
	StageNormalize Stage = "normalize"
	StageEmbed     Stage = "embed"
	StageRetrieve  Stage = "retrieve"
	StageRank      Stage = "rank"
	StageExplain   Stage = "explain"
)

// MappingError wraps a stage failure and keeps the stage that produced it.
type MappingError struct {
	Stage Stage
	Err   error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("mapping failed at %s stage: %v", e.Stage, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage that produced err, or "" if err is not a MappingError.
func StageOf(err error) Stage {
	var me *MappingError
	if errors.As(err, &me) {
		return me.Stage
	}
	return ""
}

// IsTransient reports whether err is a provider, corpus or cancellation failure
// that a caller may retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrEmbeddingProvider) ||
		errors.Is(err, ErrCorpusQuery) ||
		errors.Is(err, ErrCancelled)
}

// stageError builds the MappingError for a failed stage. A caller that cancelled
// its context always gets ErrCancelled, even if the provider reported something
// else. Deadlines are timeouts and keep the stage sentinel.
func stageError(ctx context.Context, stage Stage, sentinel, err error) error {
	if cerr := ctx.Err(); errors.Is(cerr, context.Canceled) {
		return &MappingError{Stage: stage, Err: fmt.Errorf("%w: %w", ErrCancelled, cerr)}
	}
	if sentinel == nil || errors.Is(err, sentinel) {
		return &MappingError{Stage: stage, Err: err}
	}
	return &MappingError{Stage: stage, Err: fmt.Errorf("%w: %w", sentinel, err)}
}

// cancelled returns ErrCancelled for stage if the caller has cancelled ctx.
func cancelled(ctx context.Context, stage Stage) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return &MappingError{Stage: stage, Err: fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())}
	}
	return nil
}
