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


// Package storage provides the storage abstraction layer for tradmap.
//
// This package defines repository interfaces that decouple storage implementation
// from the mapping engine and the service layer:
//
//   - CorpusRepository: ICD-11 classification entries and vector queries
//   - MappingRepository: Mapping results and their validation workflow
//   - KnowledgeRepository: Traditional medicine concepts
//
// Two backends implement them: storage/badger (embedded, also used in tests)
// and storage/postgres (mappings and knowledge only).
//
// Public constructors return interfaces:
//
//	store, err := badger.OpenStore("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// Records are encoded with mus-go serializers generated into core.
package storage
