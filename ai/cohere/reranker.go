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


package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/poiesic/minirag/ai"
)

const rerankPath = "/v2/rerank"

// Reranker implements ai.Reranker using Cohere's hosted rerank models.
type Reranker struct {
	host   string
	model  string
	apiKey string
	client *http.Client
	logger *slog.Logger
}

// Option configures a Reranker.
type Option func(*Reranker)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Reranker) {
		r.client = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reranker) {
		r.logger = logger.With("component", "cohere-reranker")
	}
}

// NewReranker creates a reranker from the rerank settings of config.
//
// Returns ai.Reranker interface to enforce abstraction.
func NewReranker(config *ai.Config, opts ...Option) (ai.Reranker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	r := &Reranker{
		host:   config.RerankHost,
		model:  config.RerankModel,
		apiKey: config.RerankAPIKey,
		client: http.DefaultClient,
		logger: slog.Default().With("component", "cohere-reranker"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank scores documents against query and returns at most topN results in
// the order the service ranked them. An empty document list returns no
// results without a request.
func (r *Reranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]ai.RerankResult, error) {
	if len(documents) == 0 {
		return []ai.RerankResult{}, nil
	}

	body, err := json.Marshal(rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.host+rerankPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	r.logger.Debug("reranking documents", "count", len(documents), "top_n", topN)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("rerank request failed", "err", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: %s: %s", ErrUnexpectedStatus, resp.Status, bytes.TrimSpace(msg))
	}

	var decoded rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}

	results := make([]ai.RerankResult, 0, len(decoded.Results))
	for _, res := range decoded.Results {
		if res.Index < 0 || res.Index >= len(documents) {
			return nil, fmt.Errorf("%w: %d", ErrResultOutOfRange, res.Index)
		}
		results = append(results, ai.RerankResult{Index: res.Index, RelevanceScore: res.RelevanceScore})
	}
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}
