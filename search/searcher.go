package search

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/poiesic/tradmap/ai"
	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/engine"
	"github.com/poiesic/tradmap/storage"
)

const (
	// DefaultMaxHits is used when FindConcepts is called with maxHits <= 0.
	DefaultMaxHits = 10

	// DefaultMinSimilarity is the cosine similarity a vector must reach to count as a semantic hit.
	DefaultMinSimilarity = 0.60

	verbatimBoost = 0.3
)

// Searcher provides hybrid semantic and lexical search over the knowledge base.
type Searcher struct {
	knowledge     storage.KnowledgeRepository
	embedder      ai.Embedder
	minSimilarity float64
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithEmbedder enables semantic matching. Without an embedder only lexical
// signals are used.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(s *Searcher) error {
		s.embedder = embedder
		return nil
	}
}

// WithMinSimilarity sets the semantic hit threshold.
func WithMinSimilarity(threshold float64) Option {
	return func(s *Searcher) error {
		s.minSimilarity = threshold
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(knowledge storage.KnowledgeRepository, opts ...Option) (*Searcher, error) {
	if knowledge == nil {
		return nil, ErrKnowledgeRepositoryRequired
	}

	s := &Searcher{
		knowledge:     knowledge,
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default().With("component", "searcher"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindConcepts searches for knowledge entries related to the query.
// An empty system searches every system.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindConcepts(ctx context.Context, query string, system core.System, maxHits int) ([]*core.KnowledgeMatch, error) {
	return s.FindConceptsWithMonitor(ctx, query, system, maxHits, nil)
}

// FindConceptsWithMonitor is FindConcepts with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) FindConceptsWithMonitor(ctx context.Context, query string, system core.System, maxHits int, monitor SearchMonitor) ([]*core.KnowledgeMatch, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if maxHits <= 0 {
		maxHits = DefaultMaxHits
	}

	queryWords := engine.Tokenize(query)
	if len(queryWords) == 0 {
		return nil, ErrEmptyQuery
	}

	monitor.Start(query)

	entries, err := s.knowledge.ListConcepts(ctx, system)
	if err != nil {
		s.logger.Error("error loading knowledge entries", "system", system, "err", err)
		return nil, err
	}
	monitor.AfterCandidateLoad(entries)

	var queryVector []float32
	if s.embedder != nil {
		queryVector, err = s.embedder.EmbedText(ctx, engine.NormalizeText(query))
		if err != nil {
			s.logger.Error("error generating embedding for query", "query", query, "err", err)
			return nil, err
		}
	}

	results := make([]*core.KnowledgeMatch, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		document := entry.Concept.Term + " " + entry.Concept.Description

		similarity := 0.0
		if queryVector != nil && len(entry.Vector) == len(queryVector) {
			similarity = storage.CosineSimilarity(queryVector, entry.Vector)
		}
		inSemantic := similarity >= s.minSimilarity && similarity > 0
		overlap := tokenOverlap(document, queryWords)
		inLexical := overlap > 0

		var score float64
		switch {
		case inSemantic && inLexical:
			score = 1.5 * similarity
			monitor.SemanticAndLexicalHit(entry)
		case inLexical:
			score = 1.2 * overlap
			monitor.LexicalHit(entry)
		case inSemantic:
			score = 1.0 * similarity
			monitor.SemanticHit(entry)
		default:
			continue
		}

		if containsAllQueryWords(document, query) {
			score += verbatimBoost
		}

		results = append(results, &core.KnowledgeMatch{Entry: entry, Score: score})
	}

	slices.SortStableFunc(results, func(a, b *core.KnowledgeMatch) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Entry.Concept.Term, b.Entry.Concept.Term)
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	s.logger.Debug("knowledge search complete", "query", query, "hits", len(results))
	return results, nil
}
