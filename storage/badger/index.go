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


package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/minirag/core"
	"github.com/poiesic/minirag/storage"
)

// Index implements storage.ChunkIndex on an embedded BadgerDB database.
// Search is an exhaustive cosine scan over one namespace.
type Index struct {
	backend     *Backend
	ownsBackend bool
	path        string

	mu        sync.RWMutex
	dimension int

	logger *slog.Logger
}

var _ storage.ChunkIndex = (*Index)(nil)

// Option configures an Index.
type Option func(*Index) error

// WithPath stores the index on disk at path instead of in memory.
func WithPath(path string) Option {
	return func(idx *Index) error {
		idx.path = path
		return nil
	}
}

// WithBackend uses an already opened backend. The index does not close it.
func WithBackend(backend *Backend) Option {
	return func(idx *Index) error {
		if backend == nil {
			return errors.New("backend cannot be nil")
		}
		idx.backend = backend
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) error {
		idx.logger = logger.With("component", "badger-index")
		return nil
	}
}

// NewIndex opens a BadgerDB backed chunk index. Without WithPath or
// WithBackend the database lives in memory.
//
// Returns storage.ChunkIndex interface to enforce abstraction.
func NewIndex(opts ...Option) (storage.ChunkIndex, error) {
	return newIndex(opts...)
}

func newIndex(opts ...Option) (*Index, error) {
	idx := &Index{
		logger: slog.Default().With("component", "badger-index"),
	}
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}

	if idx.backend == nil {
		backend, err := OpenBackend(idx.path, idx.path == "")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrConnection, err)
		}
		idx.backend = backend
		idx.ownsBackend = true
	}
	return idx, nil
}

func (idx *Index) checkOpen() error {
	if idx.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

// EnsureIndex records the vector dimension on first use and checks it on
// every later call. The embedded store is queryable immediately.
func (idx *Index) EnsureIndex(ctx context.Context, dimension int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", storage.ErrInvalidQuery)
	}
	if err := idx.checkOpen(); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrConnection, err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	err := idx.backend.Update(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(metaDimensionKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, uint64(dimension))
			return tx.Set([]byte(metaDimensionKey), buf)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return storage.ErrSerializationFailed
			}
			if existing := int(binary.BigEndian.Uint64(val)); existing != dimension {
				return fmt.Errorf("%w: index has dimension %d, requested %d", core.ErrDimensionMismatch, existing, dimension)
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrConnection, err)
	}

	idx.dimension = dimension
	idx.logger.Debug("index ready", "dimension", dimension)
	return nil
}

func (idx *Index) provisioned() (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.dimension == 0 {
		return 0, storage.ErrNotProvisioned
	}
	return idx.dimension, nil
}

// Upsert writes all points of the batch. Points with the same id are replaced.
func (idx *Index) Upsert(ctx context.Context, namespace string, chunks []core.Chunk, vectors [][]float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := idx.checkOpen(); err != nil {
		return err
	}
	dimension, err := idx.provisioned()
	if err != nil {
		return err
	}
	if err := storage.ValidateBatch(chunks, vectors, dimension); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	keys := make([][]byte, len(chunks))
	values := make([][]byte, len(chunks))
	for i, chunk := range chunks {
		record := &storage.Record{Payload: storage.NewPayload(namespace, chunk), Vector: vectors[i]}
		keys[i] = makePointKey(namespace, storage.PointID(namespace, chunk.Source, chunk.ChunkID))
		values[i] = storage.MarshalRecord(record)
	}

	if err := idx.backend.SetAll(keys, values); err != nil {
		idx.logger.Error("upsert failed", "namespace", namespace, "count", len(chunks), "err", err)
		return err
	}

	idx.logger.Debug("upserted points", "namespace", namespace, "count", len(chunks))
	return nil
}

// Search scans namespace and returns the limit most similar points.
func (idx *Index) Search(ctx context.Context, namespace string, vector []float32, limit int) ([]core.Candidate, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}
	if err := idx.checkOpen(); err != nil {
		return nil, err
	}
	dimension, err := idx.provisioned()
	if err != nil {
		return nil, err
	}
	if len(vector) != dimension {
		return nil, fmt.Errorf("%w: query has %d values, expected %d", core.ErrDimensionMismatch, len(vector), dimension)
	}

	var results []core.Candidate
	err = idx.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeNamespacePrefix(namespace)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var record *storage.Record
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalRecord(val)
				return err
			})
			if err != nil {
				return err
			}

			results = append(results, core.Candidate{
				Chunk:  record.Chunk(),
				Vector: record.Vector,
				Score:  core.CosineSimilarity(vector, record.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortStableFunc(results, func(a, b core.Candidate) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeleteNamespace drops every point stored under namespace.
func (idx *Index) DeleteNamespace(ctx context.Context, namespace string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := idx.checkOpen(); err != nil {
		return err
	}
	if err := idx.backend.DropPrefix(makeNamespacePrefix(namespace)); err != nil {
		return err
	}
	idx.logger.Debug("deleted namespace", "namespace", namespace)
	return nil
}

// Count returns the number of points in namespace.
func (idx *Index) Count(ctx context.Context, namespace string) (int, error) {
	if err := idx.checkOpen(); err != nil {
		return 0, err
	}

	count := 0
	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeNamespacePrefix(namespace)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			count++
		}
		return nil
	}, false)
	return count, err
}

// Close closes the backend if the index opened it.
func (idx *Index) Close() error {
	if !idx.ownsBackend || idx.backend.IsClosed() {
		return nil
	}
	return idx.backend.Close()
}
