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


package storage

import (
	"context"

	"github.com/poiesic/minirag/core"
)

const (
	// DefaultIndexName is the collection name used when none is configured.
	DefaultIndexName = "mini-rag-index"

	// DefaultNamespace is the namespace used when none is configured.
	DefaultNamespace = "demo-namespace"
)

// ChunkIndex stores embedded chunks and answers similarity queries.
// Implementations must be thread-safe and support concurrent access.
type ChunkIndex interface {
	// EnsureIndex creates the index with the given dimension and cosine
	// distance if it does not exist, then waits until it is queryable.
	// An existing index with another dimension is an error wrapping
	// ErrConnection and core.ErrDimensionMismatch.
	EnsureIndex(ctx context.Context, dimension int) error

	// Upsert writes chunks and their vectors into namespace in one call.
	// vectors[i] belongs to chunks[i]. Points with the same
	// (namespace, source, chunk id) are overwritten.
	Upsert(ctx context.Context, namespace string, chunks []core.Chunk, vectors [][]float32) error

	// Search returns up to limit candidates from namespace ordered by
	// descending cosine similarity to vector. Candidate vectors are included.
	Search(ctx context.Context, namespace string, vector []float32, limit int) ([]core.Candidate, error)

	// DeleteNamespace removes every point in namespace.
	DeleteNamespace(ctx context.Context, namespace string) error

	// Count returns the number of points in namespace.
	Count(ctx context.Context, namespace string) (int, error)

	// Close releases resources held by the index.
	Close() error
}
