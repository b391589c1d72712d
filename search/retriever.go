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


package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/minirag/ai"
	"github.com/poiesic/minirag/core"
	"github.com/poiesic/minirag/storage"
)

const (
	// DefaultK is the number of chunks returned by a retrieval.
	DefaultK = 10

	// DefaultFetchK is the number of nearest neighbours fetched before MMR.
	DefaultFetchK = 20

	// DefaultLambda weighs relevance against diversity in MMR.
	DefaultLambda = 0.5
)

// Retriever finds the chunks of a namespace that best answer a query.
type Retriever struct {
	index     storage.ChunkIndex
	embedder  ai.Embedder
	namespace string
	k         int
	fetchK    int
	lambda    float64
	policy    ai.CallPolicy
	logger    *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "retriever")
		return nil
	}
}

// WithNamespace sets the index namespace to search.
func WithNamespace(namespace string) Option {
	return func(r *Retriever) error {
		r.namespace = namespace
		return nil
	}
}

// WithK sets how many chunks MMR selects and how many neighbours are fetched first.
func WithK(k, fetchK int) Option {
	return func(r *Retriever) error {
		if k <= 0 || fetchK < k {
			return ErrInvalidK
		}
		r.k = k
		r.fetchK = fetchK
		return nil
	}
}

// WithLambda sets the MMR trade-off between relevance (1) and diversity (0).
func WithLambda(lambda float64) Option {
	return func(r *Retriever) error {
		if lambda < 0 || lambda > 1 {
			return ErrInvalidLambda
		}
		r.lambda = lambda
		return nil
	}
}

// WithCallPolicy sets the timeout and retry policy for embedding and index calls.
func WithCallPolicy(policy ai.CallPolicy) Option {
	return func(r *Retriever) error {
		if err := policy.Validate(); err != nil {
			return err
		}
		r.policy = policy
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(index storage.ChunkIndex, embedder ai.Embedder, opts ...Option) (*Retriever, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		index:     index,
		embedder:  embedder,
		namespace: storage.DefaultNamespace,
		k:         DefaultK,
		fetchK:    DefaultFetchK,
		lambda:    DefaultLambda,
		policy:    ai.DefaultCallPolicy(),
		logger:    slog.Default().With("component", "retriever"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// K returns the number of chunks a retrieval selects.
func (r *Retriever) K() int {
	return r.k
}

// Retrieve returns up to k chunks for query in MMR selection order.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]core.Chunk, error) {
	candidates, err := r.RetrieveCandidates(ctx, query)
	if err != nil {
		return nil, err
	}
	chunks := make([]core.Chunk, len(candidates))
	for i, c := range candidates {
		chunks[i] = c.Chunk
	}
	return chunks, nil
}

// RetrieveCandidates is Retrieve keeping index scores and vectors.
func (r *Retriever) RetrieveCandidates(ctx context.Context, query string) ([]core.Candidate, error) {
	return r.RetrieveWithMonitor(ctx, query, nil)
}

// RetrieveWithMonitor retrieves candidates and reports each stage to monitor.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, query string, monitor RetrievalMonitor) ([]core.Candidate, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	monitor.Start(query)

	var embedding []float32
	err := r.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		embedding, err = r.embedder.EmbedText(ctx, query)
		return err
	})
	if err != nil {
		r.logger.Error("error generating embedding for query", "err", err)
		return nil, fmt.Errorf("embed query: %w", err)
	}
	monitor.AfterEmbedding(len(embedding))

	var candidates []core.Candidate
	err = r.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		candidates, err = r.index.Search(ctx, r.namespace, embedding, r.fetchK)
		return err
	})
	if err != nil {
		r.logger.Error("error querying index", "namespace", r.namespace, "err", err)
		return nil, fmt.Errorf("search index: %w", err)
	}
	monitor.AfterIndexSearch(candidates)

	selected := SelectMMR(embedding, candidates, r.k, r.lambda)
	monitor.Finish(selected)

	r.logger.Debug("retrieved chunks", "namespace", r.namespace, "fetched", len(candidates), "selected", len(selected))
	return selected, nil
}
