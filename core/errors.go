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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidConcept indicates a Concept failed validation.
	ErrInvalidConcept = errors.New("invalid concept")

	// ErrEmptyTerm indicates the concept Term is empty after trimming.
	ErrEmptyTerm = errors.New("concept term cannot be empty")

	// ErrInvalidSystem indicates a System outside the enumerated set.
	ErrInvalidSystem = errors.New("invalid traditional medicine system")

	// ErrInvalidEntry indicates a ClassificationEntry failed validation.
	ErrInvalidEntry = errors.New("invalid classification entry")

	// ErrEmptyCode indicates the entry Code field is empty.
	ErrEmptyCode = errors.New("classification code cannot be empty")

	// ErrEmptyTitle indicates the entry Title field is empty.
	ErrEmptyTitle = errors.New("classification title cannot be empty")

	// ErrInvalidStatus indicates a workflow status outside pending/validated/rejected.
	ErrInvalidStatus = errors.New("invalid mapping status")

	// ErrMalformedRecord is returned when a serialized record cannot be decoded.
	ErrMalformedRecord = errors.New("malformed record")
)
