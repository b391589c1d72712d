// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Reranker,
// ai.Generator and ai.AIProvider for use in unit tests. The mocks allow tests
// to run without hosted services and give controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	reranker := mock.NewMockReranker()
//	reranker.RerankFunc = func(ctx context.Context, query string, docs []string, topN int) ([]ai.RerankResult, error) {
//	    return nil, errors.New("rerank unavailable")
//	}
//
//	// Check call counts
//	count := reranker.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: hashed bag-of-words vectors, so texts sharing words are similar
//   - MockReranker: scores passages by the share of query words they contain
//   - MockGenerator: answers with the first sentence of passage [1] and cites it
//   - MockProvider: aggregates the three
package mock
