package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/poiesic/minirag/ai/mock"
	"github.com/poiesic/minirag/answer"
	"github.com/poiesic/minirag/ingestion"
	"github.com/poiesic/minirag/search"
	"github.com/poiesic/minirag/session"
	"github.com/poiesic/minirag/storage"
	"github.com/poiesic/minirag/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countFunc func(ctx context.Context) (int, error)

func (f countFunc) Count(ctx context.Context) (int, error) { return f(ctx) }

type testEnv struct {
	handler  http.Handler
	provider *mock.MockProvider
	index    storage.ChunkIndex
}

func newTestEnv(t *testing.T, answerOpts ...answer.Option) *testEnv {
	t.Helper()
	provider := mock.NewMockProvider()

	idx, err := badger.NewMemoryIndex(mock.DefaultDimension)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	ingester, err := ingestion.NewPipeline(idx, provider)
	require.NoError(t, err)
	t.Cleanup(ingester.Release)

	retriever, err := search.NewRetriever(idx, provider.Embedder())
	require.NoError(t, err)
	answers, err := answer.NewPipeline(retriever, provider, answerOpts...)
	require.NoError(t, err)

	sess, err := session.New(ingester, answers, session.WithClearer(idx))
	require.NoError(t, err)

	counter := countFunc(func(ctx context.Context) (int, error) {
		return idx.Count(ctx, storage.DefaultNamespace)
	})
	srv := NewServer(sess, counter, ":0")
	return &testEnv{handler: srv.Handler(), provider: provider, index: idx}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

const parisText = "Paris is the capital of France. It is known for the Eiffel Tower."

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestIngestAndQuery(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/ingest", ingestRequest{Text: parisText, Source: "geo.txt"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, ingestResponse{Source: "geo.txt", Chunks: 1}, decode[ingestResponse](t, w))

	// Same label again is skipped.
	w = env.do(t, http.MethodPost, "/api/v1/ingest", ingestRequest{Text: parisText, Source: "geo.txt"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[ingestResponse](t, w).Skipped)

	w = env.do(t, http.MethodPost, "/api/v1/query", queryRequest{Question: "What is the capital of France?"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[queryResponse](t, w)
	assert.False(t, resp.NoAnswer)
	assert.Equal(t, "Paris is the capital of France [1].", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, 1, resp.Sources[0].Citation)
	assert.Equal(t, "geo.txt", resp.Sources[0].Source)
	assert.Equal(t, 0, resp.Sources[0].ChunkID)
	assert.Equal(t, "Paris is the capital of France. It is known for th...", resp.Sources[0].Preview)
	assert.Equal(t, []int{1}, resp.Citations.Cited)
	assert.Equal(t, []int{}, resp.Citations.OutOfRange)
	assert.Greater(t, resp.Metrics.EstimatedTokens, 0)

	w = env.do(t, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, statusResponse{CurrentSource: "geo.txt", Chunks: 1}, decode[statusResponse](t, w))
}

func TestIngest_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/ingest", ingestRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorResponse](t, w).Error, "no text")
}

func TestIngest_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.provider.GetMockEmbedder().EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("quota exceeded")
	}

	w := env.do(t, http.MethodPost, "/api/v1/ingest", ingestRequest{Text: parisText, Source: "geo.txt"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, decode[errorResponse](t, w).Error, "quota exceeded")

	w = env.do(t, http.MethodGet, "/api/v1/status", nil)
	assert.Equal(t, "Empty", decode[statusResponse](t, w).CurrentSource)
}

func TestIngestFile(t *testing.T) {
	env := newTestEnv(t)

	upload := func(name, content string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		r := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/file", &body)
		r.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		env.handler.ServeHTTP(w, r)
		return w
	}

	w := upload("notes.md", parisText)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "notes.md", decode[ingestResponse](t, w).Source)

	w = upload("sheet.xlsx", "cells")
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestQuery_Errors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/query", queryRequest{Question: "anything?"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 0, env.provider.GetMockEmbedder().CallCount())

	env.do(t, http.MethodPost, "/api/v1/ingest", ingestRequest{Text: parisText, Source: "geo.txt"})

	w = env.do(t, http.MethodPost, "/api/v1/query", queryRequest{Question: "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.provider.GetMockGenerator().GenerateFunc = func(ctx context.Context, question, context string) (string, error) {
		return "", errors.New("model overloaded")
	}
	w = env.do(t, http.MethodPost, "/api/v1/query", queryRequest{Question: "What is the capital?"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, decode[errorResponse](t, w).Error, "generate")
}

func TestQuery_RejectedCitation(t *testing.T) {
	env := newTestEnv(t, answer.WithCitationPolicy(answer.CitationReject))
	env.provider.GetMockGenerator().GenerateFunc = func(ctx context.Context, question, context string) (string, error) {
		return "Paris [4].", nil
	}

	env.do(t, http.MethodPost, "/api/v1/ingest", ingestRequest{Text: parisText, Source: "geo.txt"})
	w := env.do(t, http.MethodPost, "/api/v1/query", queryRequest{Question: "What is the capital of France?"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestClear(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/ingest", ingestRequest{Text: parisText, Source: "geo.txt"})

	w := env.do(t, http.MethodDelete, "/api/v1/index", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/status", nil)
	assert.Equal(t, statusResponse{CurrentSource: "Empty", Chunks: 0}, decode[statusResponse](t, w))
}
