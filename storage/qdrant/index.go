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


package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/poiesic/minirag/core"
	"github.com/poiesic/minirag/storage"
)

const (
	defaultPollInterval = time.Second
	defaultPollAttempts = 10
	distanceCosine      = "Cosine"
	namespaceField      = "namespace"
)

// Index implements storage.ChunkIndex on a Qdrant collection over its REST API.
// Namespaces are a keyword payload field used as a filter on every call.
type Index struct {
	baseURL      string
	collection   string
	apiKey       string
	client       *http.Client
	pollInterval time.Duration
	pollAttempts int
	logger       *slog.Logger
}

var _ storage.ChunkIndex = (*Index)(nil)

// Option configures an Index.
type Option func(*Index)

// WithAPIKey sets the api-key header sent on every request.
func WithAPIKey(key string) Option {
	return func(idx *Index) {
		idx.apiKey = key
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(idx *Index) {
		idx.client = client
	}
}

// WithReadinessPolling sets how often and how many times EnsureIndex checks
// that a collection is ready.
func WithReadinessPolling(interval time.Duration, attempts int) Option {
	return func(idx *Index) {
		idx.pollInterval = interval
		idx.pollAttempts = attempts
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) {
		idx.logger = logger.With("component", "qdrant-index")
	}
}

// NewIndex creates a client for collection on the Qdrant server at baseURL.
// No request is made until EnsureIndex.
//
// Returns storage.ChunkIndex interface to enforce abstraction.
func NewIndex(baseURL, collection string, opts ...Option) (storage.ChunkIndex, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: qdrant url is required", storage.ErrConnection)
	}
	if collection == "" {
		return nil, fmt.Errorf("%w: collection name is required", storage.ErrInvalidQuery)
	}

	idx := &Index{
		baseURL:      strings.TrimRight(baseURL, "/"),
		collection:   collection,
		client:       &http.Client{Timeout: 30 * time.Second},
		pollInterval: defaultPollInterval,
		pollAttempts: defaultPollAttempts,
		logger:       slog.Default().With("component", "qdrant-index"),
	}
	for _, opt := range opts {
		opt(idx)
	}
	if idx.pollAttempts < 1 {
		idx.pollAttempts = 1
	}
	return idx, nil
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type collectionInfo struct {
	Result struct {
		Status string `json:"status"`
		Config struct {
			Params struct {
				Vectors vectorParams `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// EnsureIndex creates the collection with cosine distance and a keyword index
// on the namespace field if it does not exist, then polls until the
// collection reports green. Every failure wraps storage.ErrConnection.
func (idx *Index) EnsureIndex(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", storage.ErrInvalidQuery)
	}
	if err := idx.ensureIndex(ctx, dimension); err != nil {
		idx.logger.Error("failed to provision collection", "collection", idx.collection, "err", err)
		return fmt.Errorf("%w: %w", storage.ErrConnection, err)
	}
	return nil
}

func (idx *Index) ensureIndex(ctx context.Context, dimension int) error {
	info, found, err := idx.describe(ctx)
	if err != nil {
		return err
	}

	if found {
		if size := info.Result.Config.Params.Vectors.Size; size != dimension {
			return fmt.Errorf("%w: collection %q has dimension %d, requested %d",
				core.ErrDimensionMismatch, idx.collection, size, dimension)
		}
	} else {
		idx.logger.Info("creating collection", "collection", idx.collection, "dimension", dimension)
		body := map[string]any{
			"vectors": vectorParams{Size: dimension, Distance: distanceCosine},
		}
		if err := idx.do(ctx, http.MethodPut, idx.collectionPath(""), body, nil); err != nil {
			return err
		}
		payloadIndex := map[string]any{
			"field_name":   namespaceField,
			"field_schema": "keyword",
		}
		if err := idx.do(ctx, http.MethodPut, idx.collectionPath("/index?wait=true"), payloadIndex, nil); err != nil {
			return err
		}
	}

	return idx.waitReady(ctx)
}

// waitReady polls the collection until it is green or attempts run out.
func (idx *Index) waitReady(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		info, found, err := idx.describe(ctx)
		if err != nil {
			return err
		}
		if found && info.Result.Status == "green" {
			return nil
		}
		if attempt >= idx.pollAttempts {
			status := "missing"
			if found {
				status = info.Result.Status
			}
			return fmt.Errorf("%w: %s after %d checks", ErrNotReady, status, attempt)
		}

		idx.logger.Debug("waiting for collection", "collection", idx.collection, "attempt", attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(idx.pollInterval):
		}
	}
}

func (idx *Index) describe(ctx context.Context) (*collectionInfo, bool, error) {
	var info collectionInfo
	err := idx.do(ctx, http.MethodGet, idx.collectionPath(""), nil, &info)
	var statusErr *statusError
	if errors.As(err, &statusErr) && statusErr.code == http.StatusNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &info, true, nil
}

type point struct {
	ID      uint64          `json:"id"`
	Vector  []float32       `json:"vector"`
	Payload storage.Payload `json:"payload"`
}

// Upsert writes the batch in a single request and waits for it to apply.
func (idx *Index) Upsert(ctx context.Context, namespace string, chunks []core.Chunk, vectors [][]float32) error {
	if err := storage.ValidateBatch(chunks, vectors, 0); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]point, len(chunks))
	for i, chunk := range chunks {
		points[i] = point{
			ID:      storage.PointID(namespace, chunk.Source, chunk.ChunkID),
			Vector:  vectors[i],
			Payload: storage.NewPayload(namespace, chunk),
		}
	}

	if err := idx.do(ctx, http.MethodPut, idx.collectionPath("/points?wait=true"), map[string]any{"points": points}, nil); err != nil {
		idx.logger.Error("upsert failed", "namespace", namespace, "count", len(points), "err", err)
		return err
	}
	idx.logger.Debug("upserted points", "namespace", namespace, "count", len(points))
	return nil
}

func namespaceFilter(namespace string) map[string]any {
	return map[string]any{
		"must": []any{
			map[string]any{
				"key":   namespaceField,
				"match": map[string]any{"value": namespace},
			},
		},
	}
}

type searchResponse struct {
	Result []struct {
		Score   float32         `json:"score"`
		Payload storage.Payload `json:"payload"`
		Vector  []float32       `json:"vector"`
	} `json:"result"`
}

// Search returns the nearest points of namespace with payloads and vectors.
func (idx *Index) Search(ctx context.Context, namespace string, vector []float32, limit int) ([]core.Candidate, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"filter":       namespaceFilter(namespace),
		"with_payload": true,
		"with_vector":  true,
	}
	var resp searchResponse
	if err := idx.do(ctx, http.MethodPost, idx.collectionPath("/points/search"), req, &resp); err != nil {
		return nil, err
	}

	results := make([]core.Candidate, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, core.Candidate{
			Chunk:  r.Payload.Chunk(),
			Vector: r.Vector,
			Score:  r.Score,
		})
	}
	return results, nil
}

// DeleteNamespace deletes every point whose namespace payload matches.
func (idx *Index) DeleteNamespace(ctx context.Context, namespace string) error {
	req := map[string]any{"filter": namespaceFilter(namespace)}
	if err := idx.do(ctx, http.MethodPost, idx.collectionPath("/points/delete?wait=true"), req, nil); err != nil {
		return err
	}
	idx.logger.Debug("deleted namespace", "namespace", namespace)
	return nil
}

// Count returns the exact number of points in namespace.
func (idx *Index) Count(ctx context.Context, namespace string) (int, error) {
	req := map[string]any{
		"filter": namespaceFilter(namespace),
		"exact":  true,
	}
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := idx.do(ctx, http.MethodPost, idx.collectionPath("/points/count"), req, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Close is a no-op; the HTTP client holds no per-index resources.
func (idx *Index) Close() error {
	return nil
}

func (idx *Index) collectionPath(suffix string) string {
	return idx.baseURL + "/collections/" + url.PathEscape(idx.collection) + suffix
}

type statusError struct {
	method string
	url    string
	code   int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: qdrant %s %s: %d %s", ErrUnexpectedStatus, e.method, e.url, e.code, e.body)
}

func (e *statusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// do sends body as JSON and decodes the response into out when out is not nil.
func (idx *Index) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idx.apiKey != "" {
		req.Header.Set("api-key", idx.apiKey)
	}

	resp, err := idx.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &statusError{method: method, url: endpoint, code: resp.StatusCode, body: string(bytes.TrimSpace(msg))}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
