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

// WireAlternative is a runner-up in the wire form of a mapping.
type WireAlternative struct {
	Code  string   `json:"code"`
	Title string   `json:"title"`
	Score *float64 `json:"score,omitempty"`
}

// WireResult is the simplified JSON form of a mapping exchanged with clients.
type WireResult struct {
	ICD11Code       string            `json:"icd11_code"`
	ICD11Title      string            `json:"icd11_title"`
	ConfidenceScore float64           `json:"confidence_score"`
	Reasoning       string            `json:"reasoning"`
	Alternatives    []WireAlternative `json:"alternatives"`
}

// Wire converts the result into its wire form.
// Alternatives keep their order and carry their scores.
func (r *MappingResult) Wire() WireResult {
	alts := make([]WireAlternative, 0, len(r.Alternatives))
	for _, a := range r.Alternatives {
		score := a.Score
		alts = append(alts, WireAlternative{
			Code:  a.Entry.Code,
			Title: a.Entry.Title,
			Score: &score,
		})
	}
	return WireResult{
		ICD11Code:       r.Entry.Code,
		ICD11Title:      r.Entry.Title,
		ConfidenceScore: r.ConfidenceScore,
		Reasoning:       r.Reasoning,
		Alternatives:    alts,
	}
}
