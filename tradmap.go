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


// Package tradmap maps traditional medicine terms (Ayurveda, Siddha, Unani
// and Yoga) to ICD-11 classification entries.
//
// Service ties the mapping engine to persistence, the knowledge base and
// analytics:
//
//	store, _ := badger.OpenStore("tradmap.db")
//	eng, _ := engine.New(embedder, store.Corpus, engine.WithHistory(store.Mappings))
//	svc, _ := tradmap.NewService(eng,
//	    tradmap.WithMappings(store.Mappings),
//	    tradmap.WithKnowledge(store.Knowledge, embedder),
//	)
//	result, err := svc.MapAndSave(ctx, concept, map[string]any{"userId": "dr-rao"})
package tradmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/tradmap/ai"
	"github.com/poiesic/tradmap/analytics"
	"github.com/poiesic/tradmap/batch"
	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/engine"
	"github.com/poiesic/tradmap/retry"
	"github.com/poiesic/tradmap/search"
	"github.com/poiesic/tradmap/storage"
)

var (
	// ErrEngineRequired is returned when no engine is provided.
	ErrEngineRequired = errors.New("mapping engine required")

	// ErrMappingsUnavailable is returned by operations that persist mappings when
	// the service has no mapping repository.
	ErrMappingsUnavailable = errors.New("mapping repository not configured")

	// ErrKnowledgeUnavailable is returned by knowledge base operations when the
	// service has no knowledge repository.
	ErrKnowledgeUnavailable = errors.New("knowledge repository not configured")
)

// Service is the application facade over the mapping engine.
type Service struct {
	engine    *engine.Engine
	mappings  storage.MappingRepository
	knowledge storage.KnowledgeRepository
	embedder  ai.Embedder
	searcher  *search.Searcher
	policy    retry.Policy
	batchPool int
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithMappings enables persistence, status updates and analytics.
func WithMappings(repo storage.MappingRepository) Option {
	return func(s *Service) error {
		s.mappings = repo
		return nil
	}
}

// WithKnowledge enables the knowledge base. The embedder may be nil, in which
// case concepts are stored without vectors and search is lexical only.
func WithKnowledge(repo storage.KnowledgeRepository, embedder ai.Embedder) Option {
	return func(s *Service) error {
		s.knowledge = repo
		s.embedder = embedder
		return nil
	}
}

// WithRetryPolicy sets the policy for retrying embedding provider failures.
// Default is retry.DefaultPolicy().
func WithRetryPolicy(policy retry.Policy) Option {
	return func(s *Service) error {
		if policy.MaxAttempts <= 0 {
			return retry.ErrInvalidMaxAttempts
		}
		s.policy = policy
		return nil
	}
}

// WithBatchPoolSize sets the worker count used by MapBatch. 0 uses the batch default.
func WithBatchPoolSize(size int) Option {
	return func(s *Service) error {
		s.batchPool = size
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates a Service around eng.
func NewService(eng *engine.Engine, opts ...Option) (*Service, error) {
	if eng == nil {
		return nil, ErrEngineRequired
	}
	s := &Service{
		engine: eng,
		policy: retry.DefaultPolicy(),
		logger: slog.Default().With("component", "service"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.policy.Retryable = retryable

	if s.knowledge != nil {
		searchOpts := []search.Option{search.WithLogger(s.logger.With("component", "searcher"))}
		if s.embedder != nil {
			searchOpts = append(searchOpts, search.WithEmbedder(s.embedder))
		}
		searcher, err := search.NewSearcher(s.knowledge, searchOpts...)
		if err != nil {
			return nil, err
		}
		s.searcher = searcher
	}
	return s, nil
}

// retryable limits retries to embedding provider failures the caller did not cancel.
func retryable(err error) bool {
	return errors.Is(err, engine.ErrEmbeddingProvider) && !errors.Is(err, engine.ErrCancelled)
}

// Engine returns the underlying mapping engine.
func (s *Service) Engine() *engine.Engine {
	return s.engine
}

// MapConcept maps a concept without persisting it. Embedding provider failures
// are retried under the service's retry policy.
func (s *Service) MapConcept(ctx context.Context, concept core.Concept, contextData map[string]any) (*core.MappingResult, error) {
	var result *core.MappingResult
	err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		var err error
		result, err = s.engine.MapConcept(ctx, concept, contextData)
		return err
	})
	if err != nil {
		return nil, mapFailure(ctx, err)
	}
	return result, nil
}

// mapFailure settles the error of a retried mapping once ctx has ended between
// attempts. A caller that cancelled gets ErrCancelled at the stage that was
// running. A deadline keeps the last stage error, or an embedding failure when no
// attempt ran.
func mapFailure(ctx context.Context, err error) error {
	cerr := ctx.Err()
	if cerr == nil || errors.Is(err, engine.ErrCancelled) {
		return err
	}
	stage := engine.StageOf(err)
	if errors.Is(cerr, context.Canceled) {
		if stage == "" {
			stage = engine.StageEmbed
		}
		return &engine.MappingError{Stage: stage, Err: fmt.Errorf("%w: %w", engine.ErrCancelled, cerr)}
	}
	if stage == "" {
		return &engine.MappingError{Stage: engine.StageEmbed, Err: fmt.Errorf("%w: %w", engine.ErrEmbeddingProvider, err)}
	}
	return err
}

// MapAndSave maps a concept and stores the result.
func (s *Service) MapAndSave(ctx context.Context, concept core.Concept, contextData map[string]any) (*core.MappingResult, error) {
	if s.mappings == nil {
		return nil, ErrMappingsUnavailable
	}
	result, err := s.MapConcept(ctx, concept, contextData)
	if err != nil {
		return nil, err
	}
	if err := s.mappings.SaveMapping(ctx, result); err != nil {
		s.logger.Error("failed to save mapping", "id", result.ID, "err", err)
		return nil, err
	}
	return result, nil
}

// MapBatch maps many concepts concurrently. When save is true every successful
// result is stored.
func (s *Service) MapBatch(ctx context.Context, requests []batch.Request, save bool) ([]batch.Outcome, error) {
	opts := []batch.Option{batch.WithLogger(s.logger)}
	if s.batchPool > 0 {
		opts = append(opts, batch.WithPoolSize(s.batchPool))
	}
	if save {
		if s.mappings == nil {
			return nil, ErrMappingsUnavailable
		}
		opts = append(opts, batch.WithRepository(s.mappings))
	}
	mapper, err := batch.NewMapper(s, opts...)
	if err != nil {
		return nil, err
	}
	return mapper.MapAll(ctx, requests)
}

// GetMapping returns a stored mapping.
func (s *Service) GetMapping(ctx context.Context, id string) (*core.MappingResult, error) {
	if s.mappings == nil {
		return nil, ErrMappingsUnavailable
	}
	return s.mappings.GetMapping(ctx, id)
}

// UpdateStatus moves a stored mapping through the validation workflow.
func (s *Service) UpdateStatus(ctx context.Context, id string, status core.Status, validatedBy string) (*core.MappingResult, error) {
	if s.mappings == nil {
		return nil, ErrMappingsUnavailable
	}
	if err := core.ValidateStatus(status); err != nil {
		return nil, err
	}
	return s.mappings.UpdateMappingStatus(ctx, id, status, validatedBy)
}

// UserMappings returns the user's mappings, newest first. limit <= 0 returns all.
func (s *Service) UserMappings(ctx context.Context, userID string, limit int) ([]*core.MappingResult, error) {
	if s.mappings == nil {
		return nil, ErrMappingsUnavailable
	}
	return s.mappings.ListMappingsByUser(ctx, userID, limit)
}

// UserAnalytics summarizes every mapping of the user.
func (s *Service) UserAnalytics(ctx context.Context, userID string, recent int) (analytics.Summary, error) {
	mappings, err := s.UserMappings(ctx, userID, 0)
	if err != nil {
		return analytics.Summary{}, err
	}
	return analytics.Summarize(mappings, recent), nil
}

// Analytics summarizes every stored mapping.
func (s *Service) Analytics(ctx context.Context, recent int) (analytics.Summary, error) {
	if s.mappings == nil {
		return analytics.Summary{}, ErrMappingsUnavailable
	}
	mappings, err := s.mappings.ListMappings(ctx, 0)
	if err != nil {
		return analytics.Summary{}, err
	}
	return analytics.Summarize(mappings, recent), nil
}

// SaveConcepts stores concepts in the knowledge base, embedding them first
// when the service has an embedder.
func (s *Service) SaveConcepts(ctx context.Context, concepts ...core.Concept) ([]*core.KnowledgeEntry, error) {
	if s.knowledge == nil {
		return nil, ErrKnowledgeUnavailable
	}
	if len(concepts) == 0 {
		return []*core.KnowledgeEntry{}, nil
	}

	entries := make([]*core.KnowledgeEntry, len(concepts))
	texts := make([]string, len(concepts))
	for i := range concepts {
		if err := core.ValidateConcept(&concepts[i]); err != nil {
			return nil, err
		}
		entries[i] = &core.KnowledgeEntry{Concept: concepts[i]}
		texts[i] = KnowledgeText(concepts[i])
	}

	if s.embedder != nil {
		var vectors [][]float32
		err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
			var err error
			vectors, err = s.embedder.EmbedTexts(ctx, texts)
			if err != nil {
				return fmt.Errorf("%w: %w", engine.ErrEmbeddingProvider, err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(entries) {
			return nil, fmt.Errorf("%w: got %d vectors for %d concepts", engine.ErrEmbeddingProvider, len(vectors), len(entries))
		}
		for i, vec := range vectors {
			entries[i].Vector = vec
		}
	}

	return s.knowledge.SaveConcepts(ctx, entries...)
}

// SearchConcepts searches the knowledge base. An empty system searches all systems.
func (s *Service) SearchConcepts(ctx context.Context, query string, system core.System, maxHits int) ([]*core.KnowledgeMatch, error) {
	if s.searcher == nil {
		return nil, ErrKnowledgeUnavailable
	}
	return s.searcher.FindConcepts(ctx, query, system, maxHits)
}

// KnowledgeText is the text embedded for a knowledge base concept.
func KnowledgeText(concept core.Concept) string {
	return engine.NormalizeText(concept.Term + " " + concept.Description)
}
