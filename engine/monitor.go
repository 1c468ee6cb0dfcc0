package engine

import "github.com/poiesic/tradmap/core"

// Monitor provides hooks to observe a mapping request.
// Implement this interface to track intermediate results of each stage.
type Monitor interface {
	Start(concept core.Concept)
	AfterNormalize(concept NormalizedConcept)
	AfterEmbed(vector []float32)
	AfterRetrieve(candidates []core.Candidate)
	AfterRank(matches []core.ScoredMatch)
	Finish(result *core.MappingResult, err error)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.Concept)                  {}
func (n *noopMonitor) AfterNormalize(_ NormalizedConcept)    {}
func (n *noopMonitor) AfterEmbed(_ []float32)                {}
func (n *noopMonitor) AfterRetrieve(_ []core.Candidate)      {}
func (n *noopMonitor) AfterRank(_ []core.ScoredMatch)        {}
func (n *noopMonitor) Finish(_ *core.MappingResult, _ error) {}
