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


// Package minirag answers questions from indexed documents with cited
// sources. An Engine wires the configured AI services and vector index into
// ingestion and answer pipelines and hands out sessions that use them.
package minirag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/minirag/ai"
	"github.com/poiesic/minirag/ai/openai"
	"github.com/poiesic/minirag/answer"
	"github.com/poiesic/minirag/chunking"
	"github.com/poiesic/minirag/config"
	"github.com/poiesic/minirag/ingestion"
	"github.com/poiesic/minirag/search"
	"github.com/poiesic/minirag/session"
	"github.com/poiesic/minirag/storage"
	"github.com/poiesic/minirag/storage/badger"
	"github.com/poiesic/minirag/storage/qdrant"
)

type Engine struct {
	cfg       *config.Config
	provider  ai.AIProvider
	index     storage.ChunkIndex
	ingestion *ingestion.Pipeline
	answers   *answer.Pipeline

	baseLogger *slog.Logger
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider ai.AIProvider
	index    storage.ChunkIndex
	progress io.Writer
	logger   *slog.Logger
}

// WithProvider uses provider instead of the OpenAI-compatible provider built
// from the configuration. The engine closes it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithIndex uses index instead of the one selected by the configuration.
// The engine closes it.
func WithIndex(index storage.ChunkIndex) EngineOption {
	return func(o *engineOptions) {
		o.index = index
	}
}

// WithProgress reports embedding progress to w during ingestion.
func WithProgress(w io.Writer) EngineOption {
	return func(o *engineOptions) {
		o.progress = w
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// Open validates cfg, connects to the AI services and the vector index and
// provisions the index with the embedding dimension.
func Open(ctx context.Context, cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	citationPolicy, err := cfg.CitationPolicy()
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(cfg.AIConfig())
		if err != nil {
			return nil, err
		}
	}

	index := options.index
	if index == nil {
		index, err = openIndex(cfg, logger)
		if err != nil {
			provider.Close()
			return nil, err
		}
	}

	e := &Engine{
		cfg:        cfg,
		provider:   provider,
		index:      index,
		baseLogger: logger,
		logger:     logger.With("component", "engine"),
	}

	if err := index.EnsureIndex(ctx, cfg.Embedding.Dimension); err != nil {
		e.Close()
		return nil, err
	}

	if err := e.buildPipelines(citationPolicy, options.progress, logger); err != nil {
		e.Close()
		return nil, err
	}

	e.logger.Info("engine ready", "index", cfg.Index.Type, "name", cfg.Index.Name, "namespace", cfg.Index.Namespace)
	return e, nil
}

func openIndex(cfg *config.Config, logger *slog.Logger) (storage.ChunkIndex, error) {
	switch cfg.Index.Type {
	case config.IndexBadger:
		opts := []badger.Option{badger.WithLogger(logger)}
		if cfg.Index.Path != "" {
			opts = append(opts, badger.WithPath(cfg.Index.Path))
		}
		return badger.NewIndex(opts...)
	case config.IndexQdrant:
		return qdrant.NewIndex(cfg.Index.Qdrant.URL, cfg.Index.Name,
			qdrant.WithAPIKey(cfg.Index.Qdrant.APIKey),
			qdrant.WithReadinessPolling(cfg.ReadyInterval(), cfg.Index.Qdrant.ReadyAttempts),
			qdrant.WithLogger(logger),
		)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownIndexType, cfg.Index.Type)
	}
}

func (e *Engine) buildPipelines(citationPolicy answer.CitationPolicy, progress io.Writer, logger *slog.Logger) error {
	cfg := e.cfg
	policy := cfg.CallPolicy()

	chunker, err := chunking.New(
		chunking.WithChunkSize(cfg.Chunking.Size),
		chunking.WithChunkOverlap(cfg.Chunking.Overlap),
		chunking.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	ingestOpts := []ingestion.Option{
		ingestion.WithChunker(chunker),
		ingestion.WithBatchSize(cfg.Ingestion.BatchSize),
		ingestion.WithNamespace(cfg.Index.Namespace),
		ingestion.WithCallPolicy(policy),
		ingestion.WithLogger(logger),
	}
	if cfg.Ingestion.PoolSize > 0 {
		ingestOpts = append(ingestOpts, ingestion.WithPoolSize(cfg.Ingestion.PoolSize))
	}
	if progress != nil {
		ingestOpts = append(ingestOpts, ingestion.WithProgress(progress))
	}
	e.ingestion, err = ingestion.NewPipeline(e.index, e.provider, ingestOpts...)
	if err != nil {
		return err
	}

	retriever, err := search.NewRetriever(e.index, e.provider.Embedder(),
		search.WithNamespace(cfg.Index.Namespace),
		search.WithK(cfg.Retrieval.K, cfg.Retrieval.FetchK),
		search.WithLambda(cfg.Retrieval.Lambda),
		search.WithCallPolicy(policy),
		search.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	e.answers, err = answer.NewPipeline(retriever, e.provider,
		answer.WithTopN(cfg.Answer.TopN),
		answer.WithUnitPrice(cfg.Answer.UnitPrice),
		answer.WithCallPolicy(policy),
		answer.WithCitationPolicy(citationPolicy),
		answer.WithLogger(logger),
	)
	return err
}

// NewSession returns an Empty session over the engine's namespace.
// Sessions share the engine's pipelines but not their ingestion state.
func (e *Engine) NewSession() (*session.Session, error) {
	return session.New(e.ingestion, e.answers,
		session.WithClearer(e.index),
		session.WithLogger(e.baseLogger),
	)
}

// Count returns the number of chunks stored in the engine's namespace.
func (e *Engine) Count(ctx context.Context) (int, error) {
	return e.index.Count(ctx, e.cfg.Index.Namespace)
}

// Namespace returns the namespace the engine reads and writes.
func (e *Engine) Namespace() string {
	return e.cfg.Index.Namespace
}

func (e *Engine) Close() error {
	if e.ingestion != nil {
		e.ingestion.Release()
	}

	var errs []error
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if err := e.index.Close(); err != nil {
		e.logger.Error("error closing index", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
