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
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/tradmap/core"
)

// Minimum rune length of both tokens for a substring hit to count as half a match.
const minSubstringRunes = 4

// Context keys with dedicated handling.
const (
	ContextUserID         = "userId"
	ContextRequestedBy    = "requestedBy"
	ContextPriorCodes     = "priorCodes"
	ContextPreferredCodes = "preferredCodes"
	ContextParentCode     = "parentCode"
	ContextChapter        = "chapter"
)

// Weights holds the weight of each ranking criterion.
type Weights struct {
	ExactMatch         float64 `toml:"exact_match"`
	PartialMatch       float64 `toml:"partial_match"`
	SemanticSimilarity float64 `toml:"semantic_similarity"`
	ContextMatch       float64 `toml:"context_match"`
	HistoricalMatch    float64 `toml:"historical_match"`
}

// DefaultWeights returns the standard criterion weights.
func DefaultWeights() Weights {
	return Weights{
		ExactMatch:         1.0,
		PartialMatch:       0.8,
		SemanticSimilarity: 0.7,
		ContextMatch:       0.6,
		HistoricalMatch:    0.5,
	}
}

// Of returns the weight of criterion c.
func (w Weights) Of(c core.Criterion) float64 {
	switch c {
	case core.CriterionExactMatch:
		return w.ExactMatch
	case core.CriterionPartialMatch:
		return w.PartialMatch
	case core.CriterionSemanticSimilarity:
		return w.SemanticSimilarity
	case core.CriterionContextMatch:
		return w.ContextMatch
	case core.CriterionHistoricalMatch:
		return w.HistoricalMatch
	}
	return 0
}

// Validate checks that every weight is finite and non-negative.
func (w Weights) Validate() error {
	for _, c := range core.Criteria {
		v := w.Of(c)
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidWeights, c, v)
		}
	}
	return nil
}

// Ranker scores candidates against the weighted criteria. It is pure: the same
// inputs always produce the same ordering and scores.
type Ranker struct {
	weights Weights
}

// NewRanker creates a Ranker using weights.
func NewRanker(weights Weights) *Ranker {
	return &Ranker{weights: weights}
}

// Rank scores every candidate and returns them sorted by descending score, ties
// broken by ascending code. history maps codes to prior validated mapping counts
// and may be nil.
func (r *Ranker) Rank(candidates []core.Candidate, concept NormalizedConcept, contextData map[string]any, history map[string]int) []core.ScoredMatch {
	matches := make([]core.ScoredMatch, 0, len(candidates))
	if len(candidates) == 0 {
		return matches
	}

	termWords := strings.Fields(concept.Term)
	phrases := [][]string{termWords}
	for _, syn := range concept.Synonyms {
		phrases = append(phrases, strings.Fields(syn))
	}
	keys := keyTokens(concept)
	signals := contextSignals(contextData)

	maxCount := 0
	for _, n := range history {
		maxCount = max(maxCount, n)
	}

	for _, cand := range candidates {
		p := newEntryProfile(cand.Entry)

		var values [5]float64
		if !p.excludes(phrases) {
			if p.exact(termWords) {
				values[0] = 1
			} else {
				values[1] = p.partial(keys)
			}
		}
		values[2] = clamp01(cand.Similarity)
		values[3] = p.contextMatch(signals)
		if maxCount > 0 {
			values[4] = float64(history[cand.Entry.Code]) / float64(maxCount)
		}

		breakdown := make([]core.CriterionScore, len(core.Criteria))
		total := 0.0
		for i, c := range core.Criteria {
			w := r.weights.Of(c)
			contribution := w * values[i]
			breakdown[i] = core.CriterionScore{
				Criterion:    c,
				Weight:       w,
				Value:        values[i],
				Contribution: contribution,
			}
			total += contribution
		}

		matches = append(matches, core.ScoredMatch{
			Candidate: cand,
			Score:     clamp01(total),
			Breakdown: breakdown,
		})
	}

	slices.SortStableFunc(matches, func(a, b core.ScoredMatch) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return strings.Compare(a.Entry.Code, b.Entry.Code)
	})
	return matches
}

// keyTokens returns the concept's term tokens followed by synonym tokens, deduplicated.
func keyTokens(concept NormalizedConcept) []string {
	keys := slices.Clone(concept.Tokens)
	for _, syn := range concept.Synonyms {
		for _, tok := range Tokenize(syn) {
			if !slices.Contains(keys, tok) {
				keys = append(keys, tok)
			}
		}
	}
	return keys
}

// entryProfile is the normalized text of a classification entry.
type entryProfile struct {
	entry      core.ClassificationEntry
	title      []string
	inclusions [][]string
	exclusions [][]string
	tokens     map[string]bool
}

func newEntryProfile(entry core.ClassificationEntry) entryProfile {
	p := entryProfile{
		entry:  entry,
		title:  strings.Fields(NormalizeText(entry.Title)),
		tokens: make(map[string]bool),
	}
	for _, term := range entry.InclusionTerms {
		if words := strings.Fields(NormalizeText(term)); len(words) > 0 {
			p.inclusions = append(p.inclusions, words)
		}
	}
	for _, term := range entry.ExclusionTerms {
		if words := strings.Fields(NormalizeText(term)); len(words) > 0 {
			p.exclusions = append(p.exclusions, words)
		}
	}

	for _, tok := range Tokenize(entry.Title) {
		p.tokens[tok] = true
	}
	for _, term := range entry.InclusionTerms {
		for _, tok := range Tokenize(term) {
			p.tokens[tok] = true
		}
	}
	for _, tok := range Tokenize(entry.Description) {
		p.tokens[tok] = true
	}
	return p
}

func (p entryProfile) exact(term []string) bool {
	if containsPhrase(p.title, term) {
		return true
	}
	for _, inc := range p.inclusions {
		if containsPhrase(inc, term) {
			return true
		}
	}
	return false
}

func (p entryProfile) excludes(phrases [][]string) bool {
	for _, exc := range p.exclusions {
		for _, phrase := range phrases {
			if containsPhrase(exc, phrase) {
				return true
			}
		}
	}
	return false
}

func (p entryProfile) partial(keys []string) float64 {
	if len(keys) == 0 {
		return 0
	}
	hits := 0.0
	for _, key := range keys {
		if p.tokens[key] {
			hits++
			continue
		}
		if p.substringHit(key) {
			hits += 0.5
		}
	}
	return hits / float64(len(keys))
}

func (p entryProfile) substringHit(key string) bool {
	if utf8.RuneCountInString(key) < minSubstringRunes {
		return false
	}
	for tok := range p.tokens {
		if utf8.RuneCountInString(tok) < minSubstringRunes {
			continue
		}
		if strings.Contains(tok, key) || strings.Contains(key, tok) {
			return true
		}
	}
	return false
}

func (p entryProfile) contextMatch(signals []contextSignal) float64 {
	if len(signals) == 0 {
		return 0
	}
	matched := 0
	for _, sig := range signals {
		if sig.matches(p) {
			matched++
		}
	}
	return float64(matched) / float64(len(signals))
}

// containsPhrase reports whether needle occurs as a contiguous run of words in hay.
func containsPhrase(hay, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(hay) {
		return false
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		if slices.Equal(hay[i:i+len(needle)], needle) {
			return true
		}
	}
	return false
}

type signalKind int

const (
	signalCodes signalKind = iota
	signalParent
	signalTokens
)

// contextSignal is one piece of caller-supplied context a candidate can match.
type contextSignal struct {
	kind   signalKind
	values []string
}

func (s contextSignal) matches(p entryProfile) bool {
	code := strings.ToUpper(p.entry.Code)
	parent := strings.ToUpper(p.entry.ParentCode)
	for _, v := range s.values {
		switch s.kind {
		case signalCodes:
			if strings.ToUpper(v) == code {
				return true
			}
		case signalParent:
			v = strings.ToUpper(v)
			if v == parent || strings.HasPrefix(code, v) {
				return true
			}
		case signalTokens:
			if p.tokens[v] {
				return true
			}
		}
	}
	return false
}

// contextSignals extracts the signals present in contextData. Values that are
// neither strings nor string lists carry no signal.
func contextSignals(contextData map[string]any) []contextSignal {
	var signals []contextSignal
	for key, raw := range contextData {
		values := contextStrings(raw)
		if len(values) == 0 {
			continue
		}
		switch key {
		case ContextUserID, ContextRequestedBy:
			continue
		case ContextPriorCodes, ContextPreferredCodes:
			signals = append(signals, contextSignal{kind: signalCodes, values: values})
		case ContextParentCode, ContextChapter:
			signals = append(signals, contextSignal{kind: signalParent, values: values})
		default:
			var tokens []string
			for _, v := range values {
				tokens = append(tokens, Tokenize(v)...)
			}
			if len(tokens) > 0 {
				signals = append(signals, contextSignal{kind: signalTokens, values: tokens})
			}
		}
	}
	return signals
}

func contextStrings(raw any) []string {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	switch v := raw.(type) {
	case string:
		add(v)
	case []string:
		for _, s := range v {
			add(s)
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
