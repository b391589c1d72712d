package mock

import (
	"context"
	"slices"
	"sync"

	"github.com/poiesic/minirag/ai"
)

// MockReranker is a test double for ai.Reranker.
type MockReranker struct {
	// RerankFunc is called by Rerank if set.
	// If nil, passages are scored by query word overlap.
	RerankFunc func(ctx context.Context, query string, documents []string, topN int) ([]ai.RerankResult, error)

	mu        sync.Mutex
	callCount int
	lastTopN  int
}

// NewMockReranker creates a mock reranker with default overlap scoring.
func NewMockReranker() *MockReranker {
	return &MockReranker{}
}

// Rerank scores every document by the fraction of query words it contains and
// returns the best topN, ties broken by original position.
func (m *MockReranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]ai.RerankResult, error) {
	m.mu.Lock()
	m.callCount++
	m.lastTopN = topN
	m.mu.Unlock()

	if m.RerankFunc != nil {
		return m.RerankFunc(ctx, query, documents, topN)
	}

	queryWords := Words(query)
	results := make([]ai.RerankResult, len(documents))
	for i, doc := range documents {
		docWords := make(map[string]bool)
		for _, w := range Words(doc) {
			docWords[w] = true
		}
		hits := 0
		for _, w := range queryWords {
			if docWords[w] {
				hits++
			}
		}
		score := 0.0
		if len(queryWords) > 0 {
			score = float64(hits) / float64(len(queryWords))
		}
		results[i] = ai.RerankResult{Index: i, RelevanceScore: score}
	}

	slices.SortStableFunc(results, func(a, b ai.RerankResult) int {
		switch {
		case a.RelevanceScore > b.RelevanceScore:
			return -1
		case a.RelevanceScore < b.RelevanceScore:
			return 1
		}
		return 0
	})
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

// CallCount returns the number of times Rerank was called.
func (m *MockReranker) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastTopN returns the topN passed to the most recent Rerank call.
func (m *MockReranker) LastTopN() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTopN
}

// Reset clears the call count and custom functions.
func (m *MockReranker) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastTopN = 0
	m.RerankFunc = nil
}
