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


package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/minirag/ai"
	"github.com/poiesic/minirag/chunking"
	"github.com/poiesic/minirag/core"
	"github.com/poiesic/minirag/storage"
)

const (
	// DefaultBatchSize is the number of chunks embedded per request.
	DefaultBatchSize = 32

	// PastedTextLabel labels text that did not come from a file.
	PastedTextLabel = "User Input Text"
)

// Report summarizes one successful ingestion.
type Report struct {
	Source string
	Chunks int
}

// Pipeline orchestrates chunking, embedding and indexing of source text.
// It embeds batches concurrently on a bounded worker pool.
type Pipeline struct {
	index     storage.ChunkIndex
	embedder  ai.Embedder
	chunker   *chunking.Chunker
	pool      *ants.Pool
	batchSize int
	namespace string
	policy    ai.CallPolicy
	progress  io.Writer
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many chunks are sent per embedding request.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithNamespace sets the index namespace chunks are written to.
func WithNamespace(namespace string) Option {
	return func(p *Pipeline) error {
		p.namespace = namespace
		return nil
	}
}

// WithChunker replaces the default 1000/100 chunker.
func WithChunker(chunker *chunking.Chunker) Option {
	return func(p *Pipeline) error {
		if chunker != nil {
			p.chunker = chunker
		}
		return nil
	}
}

// WithCallPolicy sets the timeout and retry policy for embedding and upsert calls.
func WithCallPolicy(policy ai.CallPolicy) Option {
	return func(p *Pipeline) error {
		if err := policy.Validate(); err != nil {
			return err
		}
		p.policy = policy
		return nil
	}
}

// WithProgress reports embedding progress to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingestion")
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(index storage.ChunkIndex, provider ai.AIProvider, opts ...Option) (*Pipeline, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	chunker, err := chunking.New()
	if err != nil {
		pool.Release()
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		index:     index,
		embedder:  provider.Embedder(),
		chunker:   chunker,
		pool:      pool,
		batchSize: DefaultBatchSize,
		namespace: storage.DefaultNamespace,
		policy:    ai.DefaultCallPolicy(),
		logger:    slog.Default().With("component", "ingestion"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Ingest chunks text, embeds every chunk and upserts them labelled with
// source. An empty source is labelled PastedTextLabel. Nothing is written
// unless all embeddings succeed.
func (p *Pipeline) Ingest(ctx context.Context, text, source string) (*Report, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	if source == "" {
		source = PastedTextLabel
	}

	chunks, err := p.chunker.Chunk(text, source)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyInput
	}

	vectors, err := p.embed(ctx, chunks, source)
	if err != nil {
		p.logger.Error("error embedding chunks", "source", source, "chunks", len(chunks), "err", err)
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	err = p.policy.Do(ctx, func(ctx context.Context) error {
		return p.index.Upsert(ctx, p.namespace, chunks, vectors)
	})
	if err != nil {
		p.logger.Error("error upserting chunks", "source", source, "chunks", len(chunks), "err", err)
		return nil, fmt.Errorf("upsert: %w", err)
	}

	p.logger.Info("ingested source", "source", source, "chunks", len(chunks), "namespace", p.namespace)
	return &Report{Source: source, Chunks: len(chunks)}, nil
}

// embed computes vectors for chunks, one pool task per batch. The first
// failure cancels the remaining batches.
func (p *Pipeline) embed(ctx context.Context, chunks []core.Chunk, source string) ([][]float32, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progress := newEmbedProgress(p.progress, source, len(chunks), p.batchSize)

	vectors := make([][]float32, len(chunks))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	for start := 0; start < len(chunks); start += p.batchSize {
		end := min(start+p.batchSize, len(chunks))
		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = chunks[start+i].Content
		}

		wg.Add(1)
		batchStart := start
		err := p.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}

			var batch [][]float32
			err := p.policy.Do(ctx, func(ctx context.Context) error {
				var err error
				batch, err = p.embedder.EmbedTexts(ctx, texts)
				return err
			})
			if err != nil {
				fail(err)
				return
			}
			if len(batch) != len(texts) {
				fail(fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(texts), len(batch)))
				return
			}

			// Batches write disjoint ranges
			copy(vectors[batchStart:], batch)
			progress.batchDone(len(batch))
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}

	wg.Wait()
	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}
	progress.finish(firstErr)
	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}

// Namespace returns the namespace chunks are written to.
func (p *Pipeline) Namespace() string {
	return p.namespace
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
