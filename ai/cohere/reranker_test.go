package cohere

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/minirag/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReranker(t *testing.T, handler http.HandlerFunc) (ai.Reranker, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := ai.NewConfig(
		ai.WithAPIKey("chat-key"),
		ai.WithRerankAPIKey("cohere-key"),
		ai.WithRerankHost(server.URL+"/"),
	)
	reranker, err := NewReranker(config, WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return reranker, server
}

func TestRerank_ParsesResults(t *testing.T) {
	var got rerankRequest
	reranker, _ := newTestReranker(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/rerank", r.URL.Path)
		assert.Equal(t, "Bearer cohere-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","results":[{"index":2,"relevance_score":0.91},{"index":0,"relevance_score":0.40}]}`))
	})

	results, err := reranker.Rerank(context.Background(), "capital of France", []string{"a", "b", "Paris"}, 3)
	require.NoError(t, err)

	assert.Equal(t, []ai.RerankResult{
		{Index: 2, RelevanceScore: 0.91},
		{Index: 0, RelevanceScore: 0.40},
	}, results)
	assert.Equal(t, ai.DefaultRerankModel, got.Model)
	assert.Equal(t, "capital of France", got.Query)
	assert.Equal(t, []string{"a", "b", "Paris"}, got.Documents)
	assert.Equal(t, 3, got.TopN)
}

func TestRerank_TruncatesToTopN(t *testing.T) {
	reranker, _ := newTestReranker(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"index":1,"relevance_score":0.9},{"index":0,"relevance_score":0.5}]}`))
	})

	results, err := reranker.Rerank(context.Background(), "q", []string{"a", "b"}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Index)
}

func TestRerank_EmptyDocumentsSkipsRequest(t *testing.T) {
	called := false
	reranker, _ := newTestReranker(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	results, err := reranker.Rerank(context.Background(), "q", nil, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.False(t, called)
}

func TestRerank_ErrorStatus(t *testing.T) {
	reranker, _ := newTestReranker(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid api token"}`, http.StatusUnauthorized)
	})

	_, err := reranker.Rerank(context.Background(), "q", []string{"a"}, 3)
	require.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "invalid api token")
}

func TestRerank_IndexOutOfRange(t *testing.T) {
	reranker, _ := newTestReranker(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"index":5,"relevance_score":0.9}]}`))
	})

	_, err := reranker.Rerank(context.Background(), "q", []string{"a"}, 3)
	assert.ErrorIs(t, err, ErrResultOutOfRange)
}

func TestNewReranker_MissingKey(t *testing.T) {
	_, err := NewReranker(ai.NewConfig(ai.WithAPIKey("chat-key")))
	assert.ErrorIs(t, err, ai.ErrMissingSetting)
}
