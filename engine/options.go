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
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/tradmap/ai"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultCandidateLimit is the number of candidates retrieved per request.
	DefaultCandidateLimit = 20

	// MaxAlternatives is the number of runner-up entries kept in a result.
	MaxAlternatives = 3
)

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithHistory sets the lookup used for the historical match criterion.
// Without one the criterion contributes zero.
func WithHistory(history HistoryProvider) Option {
	return func(e *Engine) error {
		e.history = history
		return nil
	}
}

// WithSynonyms sets the per-system synonym table used by the normalizer.
func WithSynonyms(synonyms SynonymTable) Option {
	return func(e *Engine) error {
		e.synonyms = synonyms
		return nil
	}
}

// WithWeights overrides the ranking weights.
func WithWeights(weights Weights) Option {
	return func(e *Engine) error {
		if err := weights.Validate(); err != nil {
			return err
		}
		e.weights = weights
		return nil
	}
}

// WithCandidateLimit sets how many candidates are retrieved.
// Default is DefaultCandidateLimit.
func WithCandidateLimit(limit int) Option {
	return func(e *Engine) error {
		if limit <= 0 {
			return fmt.Errorf("%w: candidate limit must be positive, got %d", ErrInvalidOption, limit)
		}
		e.candidateLimit = limit
		return nil
	}
}

// WithMinSimilarity drops candidates whose raw similarity is below threshold.
// Default is 0.
func WithMinSimilarity(threshold float64) Option {
	return func(e *Engine) error {
		if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
			return fmt.Errorf("%w: minimum similarity must be finite", ErrInvalidOption)
		}
		e.minSimilarity = threshold
		return nil
	}
}

// WithDimensions makes the embed stage reject vectors of any other length.
// Zero disables the check.
func WithDimensions(dimensions int) Option {
	return func(e *Engine) error {
		if dimensions < 0 {
			return fmt.Errorf("%w: dimensions must not be negative, got %d", ErrInvalidOption, dimensions)
		}
		e.dimensions = dimensions
		return nil
	}
}

// WithEmbedTimeout bounds each embedding provider call.
// Zero means the caller's context is the only bound.
func WithEmbedTimeout(d time.Duration) Option {
	return func(e *Engine) error {
		if d < 0 {
			return fmt.Errorf("%w: embed timeout must not be negative", ErrInvalidOption)
		}
		e.embedTimeout = d
		return nil
	}
}

// WithQueryTimeout bounds each corpus query.
func WithQueryTimeout(d time.Duration) Option {
	return func(e *Engine) error {
		if d < 0 {
			return fmt.Errorf("%w: query timeout must not be negative", ErrInvalidOption)
		}
		e.queryTimeout = d
		return nil
	}
}

// WithNarrator wraps the explainer around a narrator that elaborates the best
// match's reasoning. Scores are computed before narration and never change.
func WithNarrator(narrator ai.Narrator) Option {
	return func(e *Engine) error {
		e.narrator = narrator
		return nil
	}
}

// WithClock sets the time source used for result timestamps.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) error {
		if clock == nil {
			clock = time.Now
		}
		e.clock = clock
		return nil
	}
}

// WithIDGenerator sets the generator for result identifiers.
// Default is a random UUID.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) error {
		if newID == nil {
			newID = uuid.NewString
		}
		e.newID = newID
		return nil
	}
}

// WithTracer sets the tracer used for stage spans.
// Default is the global tracer provider's tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) error {
		if tracer != nil {
			e.tracer = tracer
		}
		return nil
	}
}
