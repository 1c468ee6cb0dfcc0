package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier.
// It is generated by hashing text content so identical content produces identical IDs.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String renders the ID as 16 lowercase hex digits.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// System identifies the traditional medicine system a concept originates from.
type System string

const (
	SystemAyurveda System = "Ayurveda"
	SystemSiddha   System = "Siddha"
	SystemUnani    System = "Unani"
	SystemYoga     System = "Yoga"
)

// Systems lists every supported System in a stable order.
var Systems = []System{SystemAyurveda, SystemSiddha, SystemUnani, SystemYoga}

// Status is the workflow status of a stored mapping.
type Status string

const (
	StatusPending   Status = "pending"
	StatusValidated Status = "validated"
	StatusRejected  Status = "rejected"
)

// Concept is a traditional medicine term under consideration.
// It is supplied by the caller and is never mutated during a mapping request.
type Concept struct {
	ID          string            `json:"id"`
	System      System            `json:"system"`
	Term        string            `json:"term"`
	Description string            `json:"description,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	References  []string          `json:"references,omitempty"`
}

// ClassificationEntry is a target entry in the disease classification (an ICD-11 code).
type ClassificationEntry struct {
	Code           string    `json:"code"`
	Title          string    `json:"title"`
	ParentCode     string    `json:"parentCode,omitempty"`
	Description    string    `json:"description,omitempty"`
	InclusionTerms []string  `json:"inclusionTerms,omitempty"`
	ExclusionTerms []string  `json:"exclusionTerms,omitempty"`
	Vector         []float32 `json:"-"` // Precomputed embedding (populated by the indexer)
	InsertedAt     time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// Candidate is a classification entry returned by retrieval with its raw similarity.
type Candidate struct {
	Entry      ClassificationEntry
	Similarity float64
}

// Criterion names one scoring criterion of the ranker.
type Criterion string

const (
	CriterionExactMatch         Criterion = "exact_match"
	CriterionPartialMatch       Criterion = "partial_match"
	CriterionSemanticSimilarity Criterion = "semantic_similarity"
	CriterionContextMatch       Criterion = "context_match"
	CriterionHistoricalMatch    Criterion = "historical_match"
)

// Criteria lists the ranking criteria in the order their contributions are summed.
var Criteria = []Criterion{
	CriterionExactMatch,
	CriterionPartialMatch,
	CriterionSemanticSimilarity,
	CriterionContextMatch,
	CriterionHistoricalMatch,
}

// CriterionScore is the contribution of one criterion to a final score.
type CriterionScore struct {
	Criterion    Criterion `json:"criterion"`
	Weight       float64   `json:"weight"`
	Value        float64   `json:"value"`        // Sub-score in [0,1]
	Contribution float64   `json:"contribution"` // Weight * Value
}

// ScoredMatch is a candidate with its final rank score and the breakdown that produced it.
type ScoredMatch struct {
	Candidate
	Score     float64
	Breakdown []CriterionScore
}

// Alternative is a runner-up entry in a MappingResult.
type Alternative struct {
	Entry     ClassificationEntry `json:"entry"`
	Score     float64             `json:"score"`
	Reasoning string              `json:"reasoning"`
}

// MappingMetadata holds the workflow state of a MappingResult.
type MappingMetadata struct {
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	UserID      string    `json:"userId"`
	ValidatedBy string    `json:"validatedBy,omitempty"`
	Status      Status    `json:"status"`
}

// MappingResult is the outcome of mapping one Concept.
// ConfidenceScore always equals the best match's score and Alternatives are sorted
// by descending score without the best entry.
type MappingResult struct {
	ID              string              `json:"id"`
	Concept         Concept             `json:"concept"`
	NormalizedTerm  string              `json:"normalizedTerm"`
	Entry           ClassificationEntry `json:"entry"`
	ConfidenceScore float64             `json:"confidenceScore"`
	Reasoning       string              `json:"reasoning"`
	Breakdown       []CriterionScore    `json:"breakdown"`
	Alternatives    []Alternative       `json:"alternatives"`
	Metadata        MappingMetadata     `json:"metadata"`
}

// KnowledgeEntry is a traditional medicine concept kept in the knowledge base.
type KnowledgeEntry struct {
	Concept    Concept
	Vector     []float32 // Embedding of the concept (populated on save when an embedder is available)
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// KnowledgeID derives the ID used for a knowledge concept saved without one.
func KnowledgeID(concept Concept) string {
	return IDFromContent(string(concept.System) + ":" + concept.Term).String()
}

// KnowledgeMatch is a knowledge base search hit with its relevance score.
type KnowledgeMatch struct {
	Entry *KnowledgeEntry
	Score float64
}
