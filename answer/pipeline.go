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


package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/minirag/ai"
	"github.com/poiesic/minirag/core"
)

// DefaultTopN is the number of reranked documents passed to the generator.
const DefaultTopN = 3

// Retriever returns candidate chunks for a question.
// *search.Retriever satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]core.Chunk, error)
}

// Pipeline answers questions: retrieve, rerank, assemble, generate, check.
type Pipeline struct {
	retriever      Retriever
	reranker       ai.Reranker
	generator      ai.Generator
	topN           int
	unitPrice      float64
	policy         ai.CallPolicy
	citationPolicy CitationPolicy
	now            func() time.Time
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "answer-pipeline")
		return nil
	}
}

// WithTopN sets how many reranked documents reach the generator.
func WithTopN(n int) Option {
	return func(p *Pipeline) error {
		if n <= 0 {
			return ErrInvalidTopN
		}
		p.topN = n
		return nil
	}
}

// WithUnitPrice sets the per-1000-token price used for the cost estimate.
func WithUnitPrice(price float64) Option {
	return func(p *Pipeline) error {
		p.unitPrice = price
		return nil
	}
}

// WithCallPolicy sets the timeout and retry policy for rerank and generate calls.
func WithCallPolicy(policy ai.CallPolicy) Option {
	return func(p *Pipeline) error {
		if err := policy.Validate(); err != nil {
			return err
		}
		p.policy = policy
		return nil
	}
}

// WithCitationPolicy sets how out-of-range citations are handled.
func WithCitationPolicy(policy CitationPolicy) Option {
	return func(p *Pipeline) error {
		if _, err := ParseCitationPolicy(string(policy)); err != nil {
			return err
		}
		p.citationPolicy = policy
		return nil
	}
}

// WithClock replaces time.Now for latency measurement.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		p.now = now
		return nil
	}
}

// NewPipeline creates an answer pipeline using the reranker and generator of provider.
func NewPipeline(retriever Retriever, provider ai.AIProvider, opts ...Option) (*Pipeline, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	p := &Pipeline{
		retriever:      retriever,
		reranker:       provider.Reranker(),
		generator:      provider.Generator(),
		topN:           DefaultTopN,
		unitPrice:      DefaultUnitPrice,
		policy:         ai.DefaultCallPolicy(),
		citationPolicy: CitationStrip,
		now:            time.Now,
		logger:         slog.Default().With("component", "answer-pipeline"),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Ask answers question from the indexed chunks.
//
// When retrieval or reranking finds nothing, Ask returns a result with
// NoAnswer set and no error; the generator is not called. Failures of the
// external services are returned wrapped with the stage that failed.
func (p *Pipeline) Ask(ctx context.Context, question string) (*core.QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	start := p.now()

	chunks, err := p.retriever.Retrieve(ctx, question)
	if err != nil {
		p.logger.Error("retrieval failed", "err", err)
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	if len(chunks) == 0 {
		p.logger.Info("no candidates retrieved")
		return p.noAnswer(start, question), nil
	}

	docs, err := p.rerank(ctx, question, chunks)
	if err != nil {
		p.logger.Error("rerank failed", "candidates", len(chunks), "err", err)
		return nil, fmt.Errorf("rerank: %w", err)
	}
	if len(docs) == 0 {
		p.logger.Info("reranker returned no documents", "candidates", len(chunks))
		return p.noAnswer(start, question), nil
	}

	contextBlock := Assemble(docs)

	var raw string
	err = p.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		raw, err = p.generator.Generate(ctx, question, contextBlock)
		return err
	})
	if err != nil {
		p.logger.Error("generation failed", "err", err)
		return nil, fmt.Errorf("generate: %w", err)
	}

	end := p.now()

	text, report, err := ApplyCitationPolicy(raw, len(docs), p.citationPolicy)
	if err != nil {
		p.logger.Warn("answer rejected", "out_of_range", report.OutOfRange, "oversized", report.Oversized)
		return nil, err
	}
	if report.Invalid() {
		p.logger.Warn("answer cites nonexistent sources", "out_of_range", report.OutOfRange, "oversized", report.Oversized, "policy", string(p.citationPolicy))
	}

	metrics := MeasureWithPrice(start, end, contextBlock, question, p.unitPrice)
	p.logger.Debug("answered question",
		"sources", len(docs),
		"latency", metrics.LatencySeconds,
		"tokens", metrics.EstimatedTokens)

	return &core.QueryResult{
		Answer:    text,
		Sources:   docs,
		Metrics:   metrics,
		Citations: report,
	}, nil
}

// rerank orders chunks with the reranker and keeps the top n.
func (p *Pipeline) rerank(ctx context.Context, question string, chunks []core.Chunk) ([]core.RetrievedDocument, error) {
	passages := make([]string, len(chunks))
	for i, c := range chunks {
		passages[i] = c.Content
	}

	var results []ai.RerankResult
	err := p.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		results, err = p.reranker.Rerank(ctx, question, passages, p.topN)
		return err
	})
	if err != nil {
		return nil, err
	}

	docs := make([]core.RetrievedDocument, 0, min(len(results), p.topN))
	for _, r := range results {
		if len(docs) == p.topN {
			break
		}
		if r.Index < 0 || r.Index >= len(chunks) {
			return nil, fmt.Errorf("result index %d outside %d candidates", r.Index, len(chunks))
		}
		docs = append(docs, core.RetrievedDocument{Chunk: chunks[r.Index], RelevanceScore: r.RelevanceScore})
	}
	return docs, nil
}

func (p *Pipeline) noAnswer(start time.Time, question string) *core.QueryResult {
	return &core.QueryResult{
		NoAnswer:  true,
		Metrics:   MeasureWithPrice(start, p.now(), "", question, p.unitPrice),
		Citations: core.CitationReport{Cited: []int{}, OutOfRange: []int{}},
	}
}
