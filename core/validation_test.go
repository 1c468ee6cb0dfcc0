package core

import (
	"errors"
	"testing"
)

func TestValidateConcept(t *testing.T) {
	tests := []struct {
		name    string
		concept *Concept
		wantErr error
	}{
		{
			name:    "valid concept",
			concept: &Concept{System: SystemAyurveda, Term: "Jwara"},
		},
		{
			name:    "valid concept with description",
			concept: &Concept{System: SystemSiddha, Term: "Suram", Description: "fever"},
		},
		{
			name:    "nil concept",
			concept: nil,
			wantErr: ErrInvalidConcept,
		},
		{
			name:    "empty term",
			concept: &Concept{System: SystemAyurveda, Term: ""},
			wantErr: ErrEmptyTerm,
		},
		{
			name:    "whitespace term",
			concept: &Concept{System: SystemAyurveda, Term: "   "},
			wantErr: ErrEmptyTerm,
		},
		{
			name:    "invalid system",
			concept: &Concept{System: System("Homeopathy"), Term: "Jwara"},
			wantErr: ErrInvalidSystem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConcept(tt.concept)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateConcept() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateConcept() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidConcept) {
				t.Errorf("ValidateConcept() error = %v, want wrapped ErrInvalidConcept", err)
			}
		})
	}
}

func TestValidateEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   *ClassificationEntry
		wantErr error
	}{
		{"valid entry", &ClassificationEntry{Code: "MG26", Title: "Fever"}, nil},
		{"valid entry without vector", &ClassificationEntry{Code: "MG26", Title: "Fever", Vector: nil}, nil},
		{"nil entry", nil, ErrInvalidEntry},
		{"empty code", &ClassificationEntry{Title: "Fever"}, ErrEmptyCode},
		{"empty title", &ClassificationEntry{Code: "MG26"}, ErrEmptyTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntry(tt.entry)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateEntry() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEntry() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusValidated, StatusRejected} {
		if err := ValidateStatus(s); err != nil {
			t.Errorf("ValidateStatus(%q) unexpected error: %v", s, err)
		}
	}
	if err := ValidateStatus("approved"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("ValidateStatus(approved) error = %v, want ErrInvalidStatus", err)
	}
}
