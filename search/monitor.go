package search

import "github.com/poiesic/tradmap/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterCandidateLoad(entries []*core.KnowledgeEntry)
	SemanticAndLexicalHit(entry *core.KnowledgeEntry)
	SemanticHit(entry *core.KnowledgeEntry)
	LexicalHit(entry *core.KnowledgeEntry)
	Finish(results []*core.KnowledgeMatch)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                               {}
func (n *noopMonitor) AfterCandidateLoad(_ []*core.KnowledgeEntry)  {}
func (n *noopMonitor) SemanticAndLexicalHit(_ *core.KnowledgeEntry) {}
func (n *noopMonitor) SemanticHit(_ *core.KnowledgeEntry)           {}
func (n *noopMonitor) LexicalHit(_ *core.KnowledgeEntry)            {}
func (n *noopMonitor) Finish(_ []*core.KnowledgeMatch)              {}
