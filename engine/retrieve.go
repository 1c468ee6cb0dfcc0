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
	"math"
	"slices"
	"strings"

	"github.com/poiesic/tradmap/core"
	"go.opentelemetry.io/otel/attribute"
)

// CorpusIndex is the terminology corpus similarity index the engine reads from.
// Implementations must be safe for concurrent reads.
type CorpusIndex interface {
	// Query returns up to limit entries most similar to vector with their raw similarity.
	Query(ctx context.Context, vector []float32, limit int) ([]core.Candidate, error)
}

// retrieve runs the candidate retrieval stage. An empty result is not an error.
func (e *Engine) retrieve(ctx context.Context, vector []float32) (candidates []core.Candidate, err error) {
	ctx, span := e.startStage(ctx, StageRetrieve, attribute.Int("tradmap.limit", e.candidateLimit))
	defer func() { endSpan(span, err) }()

	callCtx := ctx
	if e.queryTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.queryTimeout)
		defer cancel()
	}

	raw, err := e.corpus.Query(callCtx, vector, e.candidateLimit)
	if err != nil {
		e.logger.Error("error querying corpus", "err", err)
		return nil, stageError(ctx, StageRetrieve, ErrCorpusQuery, err)
	}

	candidates = filterCandidates(raw, e.minSimilarity, e.candidateLimit)
	span.SetAttributes(attribute.Int("tradmap.candidates", len(candidates)))
	e.logger.Debug("retrieved candidates", "raw", len(raw), "usable", len(candidates))
	return candidates, nil
}

// filterCandidates drops unusable candidates, orders the rest by descending
// similarity with ascending code tie-break and keeps at most limit of them.
// A code seen twice keeps its most similar occurrence.
func filterCandidates(raw []core.Candidate, minSimilarity float64, limit int) []core.Candidate {
	out := make([]core.Candidate, 0, len(raw))
	for _, c := range raw {
		if math.IsNaN(c.Similarity) || math.IsInf(c.Similarity, 0) {
			continue
		}
		if c.Similarity < minSimilarity || c.Entry.Code == "" {
			continue
		}
		out = append(out, c)
	}

	slices.SortStableFunc(out, func(a, b core.Candidate) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		}
		return strings.Compare(a.Entry.Code, b.Entry.Code)
	})

	seen := make(map[string]bool, len(out))
	unique := out[:0]
	for _, c := range out {
		if seen[c.Entry.Code] {
			continue
		}
		seen[c.Entry.Code] = true
		unique = append(unique, c)
	}

	if limit > 0 && len(unique) > limit {
		unique = unique[:limit]
	}
	return unique
}
