package search

import (
	"github.com/poiesic/recall/core"
)

// Monitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type Monitor interface {
	Start(query string)
	AfterParse(parsed core.ParsedQuery)
	MethodResolved(method Method)
	Fallback(reason error)
	AfterVectorSearch(ids []core.ID)
	AfterKeywordSearch(ids []core.ID)
	Finish(results []*core.ScoredMemory)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                 {}
func (n *noopMonitor) AfterParse(_ core.ParsedQuery)  {}
func (n *noopMonitor) MethodResolved(_ Method)        {}
func (n *noopMonitor) Fallback(_ error)               {}
func (n *noopMonitor) AfterVectorSearch(_ []core.ID)  {}
func (n *noopMonitor) AfterKeywordSearch(_ []core.ID) {}
func (n *noopMonitor) Finish(_ []*core.ScoredMemory)  {}
