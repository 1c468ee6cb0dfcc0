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


package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/storage"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS concept_mappings (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	tradmed_system   TEXT NOT NULL,
	tradmed_term     TEXT NOT NULL,
	normalized_term  TEXT NOT NULL,
	icd11_code       TEXT NOT NULL,
	icd11_title      TEXT NOT NULL,
	confidence_score DOUBLE PRECISION NOT NULL,
	reasoning        TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'pending',
	validated_by     TEXT NOT NULL DEFAULT '',
	result           JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS concept_mappings_user_created ON concept_mappings (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS concept_mappings_history ON concept_mappings (tradmed_system, normalized_term, status);

CREATE TABLE IF NOT EXISTS knowledge_concepts (
	id          TEXT PRIMARY KEY,
	system      TEXT NOT NULL,
	term        TEXT NOT NULL,
	concept     JSONB NOT NULL,
	vector      REAL[],
	inserted_at TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS knowledge_concepts_system ON knowledge_concepts (system);
`

// Store implements storage.MappingRepository and storage.KnowledgeRepository on PostgreSQL.
// The full mapping result is kept as JSONB next to the columns used for lookups.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var (
	_ storage.MappingRepository   = (*Store)(nil)
	_ storage.KnowledgeRepository = (*Store)(nil)
)

// Connect opens a connection pool, verifies it and applies the schema.
func Connect(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Store{
		pool:   pool,
		logger: slog.Default().With("component", "postgres"),
	}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables and indexes if they don't exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// SaveMapping stores a new mapping result.
func (s *Store) SaveMapping(ctx context.Context, result *core.MappingResult) error {
	if result == nil || result.ID == "" {
		return fmt.Errorf("%w: mapping ID is required", storage.ErrInvalidQuery)
	}
	if err := core.ValidateStatus(result.Metadata.Status); err != nil {
		return err
	}
	if result.Metadata.CreatedAt.IsZero() {
		result.Metadata.CreatedAt = time.Now().UTC()
	}
	if result.Metadata.UpdatedAt.IsZero() {
		result.Metadata.UpdatedAt = result.Metadata.CreatedAt
	}

	doc, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO concept_mappings (
			id, user_id, tradmed_system, tradmed_term, normalized_term, icd11_code, icd11_title,
			confidence_score, reasoning, status, validated_by, result, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		result.ID, result.Metadata.UserID, string(result.Concept.System), result.Concept.Term,
		result.NormalizedTerm, result.Entry.Code, result.Entry.Title, result.ConfidenceScore,
		result.Reasoning, string(result.Metadata.Status), result.Metadata.ValidatedBy, doc,
		result.Metadata.CreatedAt, result.Metadata.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: mapping %s", storage.ErrDuplicateKey, result.ID)
		}
		return err
	}
	return nil
}

// GetMapping retrieves a mapping by ID.
func (s *Store) GetMapping(ctx context.Context, id string) (*core.MappingResult, error) {
	row := s.pool.QueryRow(ctx, `SELECT result FROM concept_mappings WHERE id = $1`, id)
	return scanMapping(row)
}

// ListMappingsByUser returns the user's mappings, newest first.
func (s *Store) ListMappingsByUser(ctx context.Context, userID string, limit int) ([]*core.MappingResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT result FROM concept_mappings
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT NULLIF($2, 0)`, userID, max(limit, 0))
	if err != nil {
		return nil, err
	}
	return collectMappings(rows)
}

// ListMappings returns all mappings, newest first.
func (s *Store) ListMappings(ctx context.Context, limit int) ([]*core.MappingResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT result FROM concept_mappings
		ORDER BY created_at DESC, id DESC
		LIMIT NULLIF($1, 0)`, max(limit, 0))
	if err != nil {
		return nil, err
	}
	return collectMappings(rows)
}

// UpdateMappingStatus changes the workflow status of a mapping.
func (s *Store) UpdateMappingStatus(ctx context.Context, id string, status core.Status, validatedBy string) (*core.MappingResult, error) {
	if err := core.ValidateStatus(status); err != nil {
		return nil, err
	}

	var result *core.MappingResult
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		result, err = scanMapping(tx.QueryRow(ctx, `SELECT result FROM concept_mappings WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}

		result.Metadata.Status = status
		result.Metadata.ValidatedBy = validatedBy
		result.Metadata.UpdatedAt = time.Now().UTC()

		doc, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE concept_mappings
			SET status = $2, validated_by = $3, updated_at = $4, result = $5
			WHERE id = $1`,
			id, string(status), validatedBy, result.Metadata.UpdatedAt, doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ValidatedCodes counts validated mappings per code for a (system, term) pair.
func (s *Store) ValidatedCodes(ctx context.Context, system core.System, normalizedTerm string) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT icd11_code, COUNT(*) FROM concept_mappings
		WHERE tradmed_system = $1 AND normalized_term = $2 AND status = $3
		GROUP BY icd11_code`,
		string(system), normalizedTerm, string(core.StatusValidated))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			code  string
			count int64
		)
		if err := rows.Scan(&code, &count); err != nil {
			return nil, err
		}
		counts[code] = int(count)
	}
	return counts, rows.Err()
}

// SaveConcepts inserts or replaces knowledge entries.
func (s *Store) SaveConcepts(ctx context.Context, entries ...*core.KnowledgeEntry) ([]*core.KnowledgeEntry, error) {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		for _, entry := range entries {
			if err := core.ValidateConcept(&entry.Concept); err != nil {
				return err
			}
			if entry.Concept.ID == "" {
				entry.Concept.ID = core.KnowledgeID(entry.Concept)
			}
			doc, err := json.Marshal(entry.Concept)
			if err != nil {
				return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
			}

			err = tx.QueryRow(ctx, `
				INSERT INTO knowledge_concepts (id, system, term, concept, vector, inserted_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $6)
				ON CONFLICT (id) DO UPDATE
				SET system = EXCLUDED.system, term = EXCLUDED.term, concept = EXCLUDED.concept,
				    vector = EXCLUDED.vector, updated_at = EXCLUDED.updated_at
				RETURNING inserted_at, updated_at`,
				entry.Concept.ID, string(entry.Concept.System), entry.Concept.Term, doc, entry.Vector, now,
			).Scan(&entry.InsertedAt, &entry.UpdatedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// GetConcept retrieves a knowledge entry by concept ID.
func (s *Store) GetConcept(ctx context.Context, id string) (*core.KnowledgeEntry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT concept, vector, inserted_at, updated_at FROM knowledge_concepts WHERE id = $1`, id)
	return scanKnowledge(row)
}

// ListConcepts returns all entries, optionally restricted to one system.
func (s *Store) ListConcepts(ctx context.Context, system core.System) ([]*core.KnowledgeEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT concept, vector, inserted_at, updated_at FROM knowledge_concepts
		WHERE $1 = '' OR system = $1
		ORDER BY term, id`, string(system))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*core.KnowledgeEntry
	for rows.Next() {
		entry, err := scanKnowledge(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entry)
	}
	return results, rows.Err()
}

func scanMapping(row pgx.Row) (*core.MappingResult, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	var result core.MappingResult
	if err := json.Unmarshal(doc, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return &result, nil
}

func collectMappings(rows pgx.Rows) ([]*core.MappingResult, error) {
	defer rows.Close()
	var results []*core.MappingResult
	for rows.Next() {
		result, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func scanKnowledge(row pgx.Row) (*core.KnowledgeEntry, error) {
	var (
		doc   []byte
		entry core.KnowledgeEntry
	)
	if err := row.Scan(&doc, &entry.Vector, &entry.InsertedAt, &entry.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(doc, &entry.Concept); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return &entry, nil
}
