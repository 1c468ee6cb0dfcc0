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


// Package analytics summarizes stored mapping results for dashboards and reports.
package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/poiesic/tradmap/core"
)

// DayTrend is the mapping activity of one UTC calendar day.
type DayTrend struct {
	Date              string  `json:"date"` // YYYY-MM-DD
	Count             int     `json:"count"`
	AverageConfidence float64 `json:"averageConfidence"`
}

// Summary aggregates a set of mapping results.
type Summary struct {
	TotalMappings     int                   `json:"totalMappings"`
	AverageConfidence float64               `json:"averageConfidence"`
	BySystem          map[core.System]int   `json:"bySystem"`
	ByStatus          map[core.Status]int   `json:"byStatus"`
	Trend             []DayTrend            `json:"trend"`
	Recent            []*core.MappingResult `json:"recent"`
}

const dateLayout = "2006-01-02"

// Summarize aggregates mappings. Recent holds up to recent results, newest
// first; recent <= 0 leaves it empty. Nil entries are ignored.
func Summarize(mappings []*core.MappingResult, recent int) Summary {
	summary := Summary{
		BySystem: make(map[core.System]int),
		ByStatus: make(map[core.Status]int),
		Trend:    []DayTrend{},
		Recent:   []*core.MappingResult{},
	}

	type day struct {
		count int
		total float64
	}
	days := make(map[string]*day)
	valid := make([]*core.MappingResult, 0, len(mappings))
	var total float64

	for _, m := range mappings {
		if m == nil {
			continue
		}
		valid = append(valid, m)
		total += m.ConfidenceScore
		summary.BySystem[m.Concept.System]++
		summary.ByStatus[m.Metadata.Status]++

		key := m.Metadata.CreatedAt.UTC().Format(dateLayout)
		d, ok := days[key]
		if !ok {
			d = &day{}
			days[key] = d
		}
		d.count++
		d.total += m.ConfidenceScore
	}

	summary.TotalMappings = len(valid)
	if len(valid) == 0 {
		return summary
	}
	summary.AverageConfidence = total / float64(len(valid))

	for key, d := range days {
		summary.Trend = append(summary.Trend, DayTrend{
			Date:              key,
			Count:             d.count,
			AverageConfidence: d.total / float64(d.count),
		})
	}
	slices.SortFunc(summary.Trend, func(a, b DayTrend) int {
		return cmp.Compare(a.Date, b.Date)
	})

	if recent > 0 {
		slices.SortStableFunc(valid, func(a, b *core.MappingResult) int {
			return newestFirst(a.Metadata.CreatedAt, b.Metadata.CreatedAt)
		})
		summary.Recent = valid[:min(recent, len(valid))]
	}
	return summary
}

func newestFirst(a, b time.Time) int {
	return b.Compare(a)
}
