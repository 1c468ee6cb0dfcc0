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

import (
	"fmt"
	"strings"
)

// ParseSystem converts a case-insensitive system name into a System.
func ParseSystem(s string) (System, error) {
	trimmed := strings.TrimSpace(s)
	for _, sys := range Systems {
		if strings.EqualFold(trimmed, string(sys)) {
			return sys, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSystem, s)
}

// ValidateSystem validates that a System has an enumerated value.
func ValidateSystem(sys System) error {
	for _, s := range Systems {
		if s == sys {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidSystem, sys)
}

// ValidateConcept validates a Concept according to domain rules.
//
// Validation rules:
//   - System must be one of the enumerated systems
//   - Term must not be empty or whitespace
//
// NOT validated:
//   - ID (optional, assigned by the knowledge base when empty)
//   - Properties and References (free-form)
func ValidateConcept(concept *Concept) error {
	if concept == nil {
		return fmt.Errorf("%w: concept is nil", ErrInvalidConcept)
	}

	if strings.TrimSpace(concept.Term) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConcept, ErrEmptyTerm)
	}

	if err := ValidateSystem(concept.System); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConcept, err)
	}

	return nil
}

// ValidateEntry validates a ClassificationEntry according to domain rules.
//
// Validation rules:
//   - Code must not be empty
//   - Title must not be empty
//
// NOT validated (populated by the indexer):
//   - Vector
func ValidateEntry(entry *ClassificationEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}

	if strings.TrimSpace(entry.Code) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyCode)
	}

	if strings.TrimSpace(entry.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyTitle)
	}

	return nil
}

// ValidateStatus validates that a Status is pending, validated or rejected.
func ValidateStatus(status Status) error {
	switch status {
	case StatusPending, StatusValidated, StatusRejected:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
}
