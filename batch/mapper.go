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


// Package batch maps many concepts concurrently on a bounded worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/storage"
)

// ErrMapperRequired is returned when no concept mapper is provided.
var ErrMapperRequired = errors.New("concept mapper required")

// ConceptMapper maps a single concept. Both the engine and the service satisfy it.
type ConceptMapper interface {
	MapConcept(ctx context.Context, concept core.Concept, contextData map[string]any) (*core.MappingResult, error)
}

// Request is one concept to map together with its context data.
type Request struct {
	Concept core.Concept   `json:"concept"`
	Context map[string]any `json:"context,omitempty"`
}

// Outcome is the result of one Request. Result is set when mapping succeeded,
// even if saving it failed afterwards.
type Outcome struct {
	Index  int
	Result *core.MappingResult
	Err    error
}

// Mapper runs mapping requests on an ants pool.
type Mapper struct {
	mapper   ConceptMapper
	repo     storage.MappingRepository
	poolSize int
	logger   *slog.Logger
}

// Option configures a Mapper.
type Option func(*Mapper) error

// WithPoolSize sets the number of concurrent mappings.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(m *Mapper) error {
		if size < 1 {
			size = 1
		}
		m.poolSize = size
		return nil
	}
}

// WithRepository saves every successful result to repo.
func WithRepository(repo storage.MappingRepository) Option {
	return func(m *Mapper) error {
		m.repo = repo
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mapper) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewMapper creates a new bulk mapper.
func NewMapper(mapper ConceptMapper, opts ...Option) (*Mapper, error) {
	if mapper == nil {
		return nil, ErrMapperRequired
	}

	m := &Mapper{
		mapper:   mapper,
		poolSize: max(runtime.NumCPU()/2, 1),
		logger:   slog.Default().With("component", "batch"),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MapAll maps every request and returns one outcome per request, in request
// order. The returned error joins the failures of individual requests; the
// outcomes are complete either way.
func (m *Mapper) MapAll(ctx context.Context, requests []Request) ([]Outcome, error) {
	outcomes := make([]Outcome, len(requests))
	if len(requests) == 0 {
		return outcomes, nil
	}

	pool, err := ants.NewPool(min(m.poolSize, len(requests)))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, req := range requests {
		outcomes[i].Index = i
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			outcomes[i].Result, outcomes[i].Err = m.mapOne(ctx, req)
		})
		if err != nil {
			wg.Done()
			outcomes[i].Err = err
		}
	}
	wg.Wait()

	var errs []error
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			errs = append(errs, fmt.Errorf("request %d (%s): %w", o.Index, requests[o.Index].Concept.Term, o.Err))
		}
	}
	m.logger.Debug("bulk mapping finished", "requests", len(requests), "failed", failed)
	return outcomes, errors.Join(errs...)
}

func (m *Mapper) mapOne(ctx context.Context, req Request) (*core.MappingResult, error) {
	result, err := m.mapper.MapConcept(ctx, req.Concept, req.Context)
	if err != nil {
		return nil, err
	}
	if m.repo != nil {
		if err := m.repo.SaveMapping(ctx, result); err != nil {
			m.logger.Error("error saving mapping", "id", result.ID, "err", err)
			return result, err
		}
	}
	return result, nil
}

