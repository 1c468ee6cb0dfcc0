package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/tradmap/ai"
	"github.com/poiesic/tradmap/core"
)

// Confidence tiers used by the summary sentence.
const (
	strongThreshold   = 0.85
	moderateThreshold = 0.6
	weakThreshold     = 0.35
)

var criterionLabels = map[core.Criterion]string{
	core.CriterionExactMatch:         "exact term match",
	core.CriterionPartialMatch:       "partial term overlap",
	core.CriterionSemanticSimilarity: "semantic similarity",
	core.CriterionContextMatch:       "context match",
	core.CriterionHistoricalMatch:    "prior validated mappings",
}

// Explainer builds reasoning text for scored matches. The text is a function of
// the match and concept only; an optional Narrator may elaborate it afterwards.
type Explainer struct {
	narrator ai.Narrator
	logger   *slog.Logger
}

// NewExplainer creates an Explainer. narrator may be nil.
func NewExplainer(narrator ai.Narrator, logger *slog.Logger) *Explainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Explainer{narrator: narrator, logger: logger}
}

// Explain returns the deterministic reasoning for match.
func (e *Explainer) Explain(match core.ScoredMatch, concept NormalizedConcept) string {
	contributing := make([]core.CriterionScore, 0, len(match.Breakdown))
	for _, cs := range match.Breakdown {
		if cs.Contribution > 0 {
			contributing = append(contributing, cs)
		}
	}
	// Stable sort keeps criterion order among equal contributions.
	slices.SortStableFunc(contributing, func(a, b core.CriterionScore) int {
		switch {
		case a.Contribution > b.Contribution:
			return -1
		case a.Contribution < b.Contribution:
			return 1
		}
		return 0
	})

	var b strings.Builder
	fmt.Fprintf(&b, "%q (%s) maps to %s %q.", concept.Term, concept.Concept.System, match.Entry.Code, match.Entry.Title)
	if len(contributing) == 0 {
		b.WriteString(" No criterion contributed to the score.")
	} else {
		parts := make([]string, len(contributing))
		for i, cs := range contributing {
			parts[i] = fmt.Sprintf("%s +%.2f", criterionLabels[cs.Criterion], cs.Contribution)
		}
		b.WriteString(" Contributing criteria: ")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(".")
	}
	fmt.Fprintf(&b, " Overall this is a %s match with confidence %.2f.", tier(match.Score), match.Score)
	return b.String()
}

// Narrate passes the deterministic explanation through the narrator when one is
// configured. Any narrator failure or empty answer returns explanation unchanged.
func (e *Explainer) Narrate(ctx context.Context, match core.ScoredMatch, concept NormalizedConcept, explanation string) string {
	if e.narrator == nil {
		return explanation
	}
	text, err := e.narrator.Narrate(ctx, ai.NarrationRequest{
		System:      string(concept.Concept.System),
		Term:        concept.Term,
		Code:        match.Entry.Code,
		Title:       match.Entry.Title,
		Confidence:  match.Score,
		Explanation: explanation,
	})
	if err != nil {
		e.logger.Warn("narration failed, using deterministic explanation", "code", match.Entry.Code, "err", err)
		return explanation
	}
	if strings.TrimSpace(text) == "" {
		return explanation
	}
	return text
}

func tier(score float64) string {
	switch {
	case score >= strongThreshold:
		return "strong"
	case score >= moderateThreshold:
		return "moderate"
	case score >= weakThreshold:
		return "weak"
	}
	return "tentative"
}
