package search

import (
	"strings"

	"github.com/poiesic/tradmap/engine"
)

// containsAllQueryWords checks if all query words (after filtering) appear in the document
func containsAllQueryWords(document, query string) bool {
	queryWords := engine.Tokenize(query)
	if len(queryWords) == 0 {
		return false
	}

	docWords := engine.Tokenize(document)
	docWordSet := make(map[string]bool, len(docWords))
	for _, word := range docWords {
		docWordSet[word] = true
	}

	for _, qWord := range queryWords {
		if !docWordSet[qWord] {
			return false
		}
	}
	return true
}

// tokenOverlap returns the fraction of query words found in the document. A
// query word that is a prefix of a document word counts, so "jwar" finds "jwara".
func tokenOverlap(document string, queryWords []string) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	docWords := engine.Tokenize(document)

	hits := 0
	for _, q := range queryWords {
		for _, d := range docWords {
			if strings.HasPrefix(d, q) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(queryWords))
}
