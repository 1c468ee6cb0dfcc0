package engine

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/poiesic/tradmap/core"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Stop words dropped from key phrases.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "its": true, "into": true,
}

// SynonymTable maps a system to term -> synonyms.
type SynonymTable map[core.System]map[string][]string

// NormalizedConcept is the canonical form of a Concept used by the later stages.
type NormalizedConcept struct {
	Concept           core.Concept
	Term              string   // Folded, lower-cased, punctuation-free term
	Tokens            []string // Term tokens without stop words
	DescriptionTokens []string // Description tokens without stop words
	KeyPhrases        []string // Tokens followed by description tokens not already present
	Synonyms          []string // Sorted, deduplicated synonym expansions
	EmbeddingText     string   // Exact text sent to the embedder
}

// Normalizer canonicalizes concepts. It holds only its synonym table, which is
// read-only after construction.
type Normalizer struct {
	synonyms SynonymTable
}

// NewNormalizer creates a Normalizer. Keys and values of the synonym table are
// normalized so lookups see the same form as normalized terms.
func NewNormalizer(synonyms SynonymTable) *Normalizer {
	table := make(SynonymTable, len(synonyms))
	for sys, terms := range synonyms {
		folded := make(map[string][]string, len(terms))
		for term, expansions := range terms {
			key := NormalizeText(term)
			if key == "" {
				continue
			}
			for _, exp := range expansions {
				if e := NormalizeText(exp); e != "" {
					folded[key] = append(folded[key], e)
				}
			}
		}
		table[sys] = folded
	}
	return &Normalizer{synonyms: table}
}

// Normalize returns the normalized form of concept.
func (n *Normalizer) Normalize(concept core.Concept) (NormalizedConcept, error) {
	if err := core.ValidateConcept(&concept); err != nil {
		return NormalizedConcept{}, err
	}

	term := NormalizeText(concept.Term)
	if term == "" {
		return NormalizedConcept{}, fmt.Errorf("%w: %w", ErrInvalidConcept, core.ErrEmptyTerm)
	}

	tokens := Tokenize(term)
	descTokens := Tokenize(concept.Description)

	keyPhrases := slices.Clone(tokens)
	for _, tok := range descTokens {
		if !slices.Contains(keyPhrases, tok) {
			keyPhrases = append(keyPhrases, tok)
		}
	}

	synonyms := n.expand(concept.System, term, tokens)

	parts := make([]string, 0, len(synonyms)+2)
	parts = append(parts, term)
	parts = append(parts, synonyms...)
	if desc := NormalizeText(concept.Description); desc != "" {
		parts = append(parts, desc)
	}

	return NormalizedConcept{
		Concept:           concept,
		Term:              term,
		Tokens:            tokens,
		DescriptionTokens: descTokens,
		KeyPhrases:        keyPhrases,
		Synonyms:          synonyms,
		EmbeddingText:     strings.Join(parts, "; "),
	}, nil
}

func (n *Normalizer) expand(sys core.System, term string, tokens []string) []string {
	table := n.synonyms[sys]
	if len(table) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	add := func(key string) {
		for _, syn := range table[key] {
			if syn != term && !seen[syn] {
				seen[syn] = true
				out = append(out, syn)
			}
		}
	}

	add(term)
	for _, tok := range tokens {
		if tok != term {
			add(tok)
		}
	}
	slices.Sort(out)
	return out
}

var foldMarks = runes.Remove(runes.In(unicode.Mn))

// NormalizeText folds diacritics, lower-cases, replaces punctuation with spaces and
// collapses whitespace. Apostrophes are dropped without a space.
func NormalizeText(s string) string {
	t := transform.Chain(norm.NFD, foldMarks, norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r == '\'' || r == '’':
			continue
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize normalizes text and splits it into words without stop words.
func Tokenize(text string) []string {
	words := strings.Fields(NormalizeText(text))
	filtered := make([]string, 0, len(words))
	for _, word := range words {
		if !stopWords[word] {
			filtered = append(filtered, word)
		}
	}
	return filtered
}
