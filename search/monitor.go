package search

import "github.com/poiesic/minirag/core"

// RetrievalMonitor receives callbacks at each stage of a retrieval.
type RetrievalMonitor interface {
	Start(query string)
	AfterEmbedding(dimension int)
	AfterIndexSearch(candidates []core.Candidate)
	Finish(selected []core.Candidate)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                      {}
func (n *noopMonitor) AfterEmbedding(_ int)                {}
func (n *noopMonitor) AfterIndexSearch(_ []core.Candidate) {}
func (n *noopMonitor) Finish(_ []core.Candidate)           {}
