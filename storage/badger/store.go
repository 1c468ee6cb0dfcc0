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


package badger

import (
	"errors"

	"github.com/poiesic/tradmap/storage"
)

// Store bundles the repositories that share one BadgerDB backend.
type Store struct {
	Corpus    storage.CorpusRepository
	Mappings  storage.MappingRepository
	Knowledge storage.KnowledgeRepository

	backend *Backend
}

// OpenStore opens (or creates) a database directory and wires every repository to it.
func OpenStore(path string) (*Store, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newStore(backend)
}

func newStore(backend *Backend) (*Store, error) {
	corpus, err := NewCorpusRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	mappings, err := NewMappingRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	knowledge, err := NewKnowledgeRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return &Store{
		Corpus:    corpus,
		Mappings:  mappings,
		Knowledge: knowledge,
		backend:   backend,
	}, nil
}

// Backend exposes the underlying backend.
func (s *Store) Backend() *Backend {
	return s.backend
}

// Close closes every repository and then the backend.
func (s *Store) Close() error {
	return errors.Join(
		s.Corpus.Close(),
		s.Mappings.Close(),
		s.Knowledge.Close(),
		s.backend.Close(),
	)
}
