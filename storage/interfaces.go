package storage

import (
	"context"

	"github.com/poiesic/tradmap/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository.
	Close() error
}

// CorpusRepository stores the ICD-11 classification entries that mappings target.
type CorpusRepository interface {
	Repository

	// AddEntries adds one or more entries to the corpus.
	// Sets InsertedAt and UpdatedAt.
	// Returns ErrDuplicateKey if an entry with the same code already exists.
	AddEntries(ctx context.Context, entries ...*core.ClassificationEntry) ([]*core.ClassificationEntry, error)

	// UpdateEntries replaces existing entries, keeping InsertedAt and refreshing UpdatedAt.
	// Returns ErrNotFound if any entry doesn't exist.
	UpdateEntries(ctx context.Context, entries ...*core.ClassificationEntry) ([]*core.ClassificationEntry, error)

	// DeleteEntries removes entries by code.
	// Returns ErrNotFound if any entry doesn't exist.
	DeleteEntries(ctx context.Context, codes ...string) error

	// GetEntry retrieves a single entry by code.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, code string) (*core.ClassificationEntry, error)

	// GetEntries retrieves multiple entries by code.
	// Returns only the entries that exist (no error for missing entries).
	GetEntries(ctx context.Context, codes ...string) ([]*core.ClassificationEntry, error)

	// ListEntries returns up to limit entries with a code greater than afterCode,
	// ordered by code. An empty afterCode starts from the beginning.
	ListEntries(ctx context.Context, afterCode string, limit int) ([]*core.ClassificationEntry, error)

	// AllEntries returns every entry ordered by code.
	AllEntries(ctx context.Context) ([]*core.ClassificationEntry, error)

	// Count returns the number of entries.
	Count(ctx context.Context) (int, error)

	// Query returns up to limit entries most similar to vector by cosine similarity,
	// ordered by similarity (highest first). Entries without vectors are skipped.
	Query(ctx context.Context, vector []float32, limit int) ([]core.Candidate, error)
}

// MappingRepository persists mapping results and their validation workflow.
type MappingRepository interface {
	Repository

	// SaveMapping stores a new mapping result.
	// Returns ErrDuplicateKey if a mapping with the same ID exists.
	SaveMapping(ctx context.Context, result *core.MappingResult) error

	// GetMapping retrieves a mapping by ID.
	// Returns ErrNotFound if the mapping doesn't exist.
	GetMapping(ctx context.Context, id string) (*core.MappingResult, error)

	// ListMappingsByUser returns the user's mappings, newest first.
	// A limit <= 0 returns all of them.
	ListMappingsByUser(ctx context.Context, userID string, limit int) ([]*core.MappingResult, error)

	// ListMappings returns all mappings, newest first.
	// A limit <= 0 returns all of them.
	ListMappings(ctx context.Context, limit int) ([]*core.MappingResult, error)

	// UpdateMappingStatus changes the workflow status of a mapping, records who
	// validated it and refreshes UpdatedAt.
	// Returns ErrNotFound if the mapping doesn't exist.
	UpdateMappingStatus(ctx context.Context, id string, status core.Status, validatedBy string) (*core.MappingResult, error)

	// ValidatedCodes counts validated mappings per target code for a
	// (system, normalized term) pair.
	ValidatedCodes(ctx context.Context, system core.System, normalizedTerm string) (map[string]int, error)
}

// KnowledgeRepository stores traditional medicine concepts for lookup.
type KnowledgeRepository interface {
	Repository

	// SaveConcepts inserts or replaces knowledge entries.
	// Entries without a concept ID get a content-derived one.
	SaveConcepts(ctx context.Context, entries ...*core.KnowledgeEntry) ([]*core.KnowledgeEntry, error)

	// GetConcept retrieves a knowledge entry by concept ID.
	// Returns ErrNotFound if the entry doesn't exist.
	GetConcept(ctx context.Context, id string) (*core.KnowledgeEntry, error)

	// ListConcepts returns all entries, optionally restricted to one system.
	// An empty system returns every entry.
	ListConcepts(ctx context.Context, system core.System) ([]*core.KnowledgeEntry, error)
}
