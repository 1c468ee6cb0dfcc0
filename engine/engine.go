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
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/tradmap/ai"
	"github.com/poiesic/tradmap/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HistoryProvider looks up prior validated mappings for the historical criterion.
type HistoryProvider interface {
	// ValidatedCodes counts validated mappings per code for a (system, normalized term) pair.
	ValidatedCodes(ctx context.Context, system core.System, normalizedTerm string) (map[string]int, error)
}

// Engine maps traditional medicine concepts to classification entries through the
// normalize, embed, retrieve, rank and explain stages. After construction it holds
// no mutable state, so one Engine serves concurrent requests without locking.
type Engine struct {
	embedder   ai.Embedder
	corpus     CorpusIndex
	history    HistoryProvider
	narrator   ai.Narrator
	normalizer *Normalizer
	ranker     *Ranker
	explainer  *Explainer

	synonyms       SynonymTable
	weights        Weights
	candidateLimit int
	minSimilarity  float64
	dimensions     int
	embedTimeout   time.Duration
	queryTimeout   time.Duration

	clock  func() time.Time
	newID  func() string
	tracer trace.Tracer
	logger *slog.Logger
}

// New creates an Engine over an embedding provider and a corpus index.
func New(embedder ai.Embedder, corpus CorpusIndex, opts ...Option) (*Engine, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if corpus == nil {
		return nil, ErrCorpusRequired
	}

	e := &Engine{
		embedder:       embedder,
		corpus:         corpus,
		weights:        DefaultWeights(),
		candidateLimit: DefaultCandidateLimit,
		clock:          time.Now,
		newID:          uuid.NewString,
		tracer:         defaultTracer(),
		logger:         slog.Default().With("component", "engine"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	e.normalizer = NewNormalizer(e.synonyms)
	e.ranker = NewRanker(e.weights)
	e.explainer = NewExplainer(e.narrator, e.logger)
	return e, nil
}

// Weights returns the ranking weights in use.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Normalize runs only the normalization stage.
func (e *Engine) Normalize(concept core.Concept) (NormalizedConcept, error) {
	return e.normalizer.Normalize(concept)
}

// MapConcept maps concept to the best classification entry.
// contextData may be nil. Nothing is persisted.
func (e *Engine) MapConcept(ctx context.Context, concept core.Concept, contextData map[string]any) (*core.MappingResult, error) {
	return e.MapConceptWithMonitor(ctx, concept, contextData, nil)
}

// MapConceptWithMonitor maps concept like MapConcept. The monitor receives
// callbacks after each stage.
func (e *Engine) MapConceptWithMonitor(ctx context.Context, concept core.Concept, contextData map[string]any, monitor Monitor) (result *core.MappingResult, err error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(concept)

	ctx, span := e.tracer.Start(ctx, "engine.MapConcept", trace.WithAttributes(
		attribute.String("tradmap.system", string(concept.System)),
	))
	defer func() {
		if result != nil {
			span.SetAttributes(
				attribute.String("tradmap.code", result.Entry.Code),
				attribute.Float64("tradmap.confidence", result.ConfidenceScore),
			)
		}
		endSpan(span, err)
		monitor.Finish(result, err)
	}()

	// 1. Normalize
	normalized, err := e.normalize(ctx, concept)
	if err != nil {
		return nil, err
	}
	monitor.AfterNormalize(normalized)

	// 2. Embed
	vector, err := e.embed(ctx, normalized.EmbeddingText)
	if err != nil {
		return nil, err
	}
	monitor.AfterEmbed(vector)

	// 3. Retrieve
	candidates, err := e.retrieve(ctx, vector)
	if err != nil {
		return nil, err
	}
	monitor.AfterRetrieve(candidates)

	// 4. Rank
	ranked, err := e.rank(ctx, candidates, normalized, contextData)
	if err != nil {
		return nil, err
	}
	monitor.AfterRank(ranked)

	// 5. Explain
	return e.explain(ctx, ranked, normalized, contextData)
}

func (e *Engine) normalize(ctx context.Context, concept core.Concept) (normalized NormalizedConcept, err error) {
	_, span := e.startStage(ctx, StageNormalize)
	defer func() { endSpan(span, err) }()

	normalized, err = e.normalizer.Normalize(concept)
	if err != nil {
		e.logger.Debug("rejected concept", "term", concept.Term, "system", concept.System, "err", err)
		return NormalizedConcept{}, &MappingError{Stage: StageNormalize, Err: err}
	}
	return normalized, nil
}

func (e *Engine) rank(ctx context.Context, candidates []core.Candidate, normalized NormalizedConcept, contextData map[string]any) (ranked []core.ScoredMatch, err error) {
	ctx, span := e.startStage(ctx, StageRank, attribute.Int("tradmap.candidates", len(candidates)))
	defer func() { endSpan(span, err) }()

	if len(candidates) == 0 {
		return nil, &MappingError{Stage: StageRank, Err: ErrNoCandidates}
	}

	history, err := e.lookupHistory(ctx, normalized)
	if err != nil {
		return nil, err
	}

	ranked = e.ranker.Rank(candidates, normalized, contextData, history)
	if len(ranked) == 0 {
		return nil, &MappingError{Stage: StageRank, Err: ErrNoCandidates}
	}
	return ranked, nil
}

// lookupHistory returns prior validated counts. A missing or failing history
// lookup zeroes the criterion; only caller cancellation is an error.
func (e *Engine) lookupHistory(ctx context.Context, normalized NormalizedConcept) (map[string]int, error) {
	if e.history == nil {
		return nil, nil
	}
	history, err := e.history.ValidatedCodes(ctx, normalized.Concept.System, normalized.Term)
	if err != nil {
		if cerr := cancelled(ctx, StageRank); cerr != nil {
			return nil, cerr
		}
		e.logger.Warn("history lookup failed, ignoring historical criterion", "term", normalized.Term, "err", err)
		return nil, nil
	}
	return history, nil
}

func (e *Engine) explain(ctx context.Context, ranked []core.ScoredMatch, normalized NormalizedConcept, contextData map[string]any) (result *core.MappingResult, err error) {
	ctx, span := e.startStage(ctx, StageExplain)
	defer func() { endSpan(span, err) }()

	best := ranked[0]
	reasoning := e.explainer.Explain(best, normalized)
	reasoning = e.explainer.Narrate(ctx, best, normalized, reasoning)
	if err := cancelled(ctx, StageExplain); err != nil {
		return nil, err
	}

	runnersUp := ranked[1:min(len(ranked), MaxAlternatives+1)]
	alternatives := make([]core.Alternative, 0, len(runnersUp))
	for _, alt := range runnersUp {
		alternatives = append(alternatives, core.Alternative{
			Entry:     resultEntry(alt.Entry),
			Score:     alt.Score,
			Reasoning: e.explainer.Explain(alt, normalized),
		})
	}

	now := e.clock().UTC()
	userID, _ := contextData[ContextUserID].(string)

	return &core.MappingResult{
		ID:              e.newID(),
		Concept:         normalized.Concept,
		NormalizedTerm:  normalized.Term,
		Entry:           resultEntry(best.Entry),
		ConfidenceScore: best.Score,
		Reasoning:       reasoning,
		Breakdown:       best.Breakdown,
		Alternatives:    alternatives,
		Metadata: core.MappingMetadata{
			CreatedAt: now,
			UpdatedAt: now,
			UserID:    userID,
			Status:    core.StatusPending,
		},
	}, nil
}

// resultEntry strips corpus bookkeeping from an entry placed in a result.
func resultEntry(entry core.ClassificationEntry) core.ClassificationEntry {
	entry.Vector = nil
	entry.InsertedAt = time.Time{}
	entry.UpdatedAt = time.Time{}
	return entry
}
