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


package ai

import "context"

// FallbackAnswer is the literal reply a Generator is instructed to give when
// the context does not contain the answer.
const FallbackAnswer = "I cannot answer this based on the provided context."

// Embedder generates vector embeddings from text for similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Reranker scores candidate passages against a query.
// Implementations must be thread-safe for concurrent use.
type Reranker interface {
	// Rerank returns at most topN results ordered by descending relevance.
	// Index refers to the position of the passage in documents.
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]RerankResult, error)
}

// Generator answers a question using only the supplied context.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate returns the raw model output. The output is expected to cite
	// the context with bracketed numbers, but nothing is guaranteed.
	Generate(ctx context.Context, question, context string) (string, error)
}

// RerankResult is one scored passage returned by a Reranker.
type RerankResult struct {
	// Index is the position of the passage in the documents passed to Rerank.
	Index int

	// RelevanceScore is the service-assigned score, higher is more relevant.
	RelevanceScore float64
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Reranker returns the reranking service.
	Reranker() Reranker

	// Generator returns the answer generation service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
