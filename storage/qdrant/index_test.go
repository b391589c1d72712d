package qdrant

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/minirag/core"
	"github.com/poiesic/minirag/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type filter struct {
	Must []struct {
		Key   string `json:"key"`
		Match struct {
			Value string `json:"value"`
		} `json:"match"`
	} `json:"must"`
}

func (f filter) namespace() string {
	for _, m := range f.Must {
		if m.Key == namespaceField {
			return m.Match.Value
		}
	}
	return ""
}

// fakeQdrant is an in-memory stand-in for the subset of the REST API the index uses.
type fakeQdrant struct {
	mu             sync.Mutex
	exists         bool
	size           int
	yellowChecks   int
	creates        int
	payloadIndexes int
	apiKeys        []string
	points         map[uint64]point
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{points: make(map[uint64]point)}
}

func (f *fakeQdrant) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))
		if !f.exists {
			http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
			return
		}
		status := "green"
		if f.yellowChecks > 0 {
			f.yellowChecks--
			status = "yellow"
		}
		writeJSON(w, map[string]any{"result": map[string]any{
			"status": status,
			"config": map[string]any{"params": map[string]any{"vectors": vectorParams{Size: f.size, Distance: distanceCosine}}},
		}})
	})

	mux.HandleFunc("PUT /collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Vectors vectorParams `json:"vectors"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Vectors.Distance != distanceCosine {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.exists = true
		f.size = body.Vectors.Size
		f.creates++
		writeJSON(w, map[string]any{"result": true})
	})

	mux.HandleFunc("PUT /collections/{name}/index", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.payloadIndexes++
		writeJSON(w, map[string]any{"result": map[string]any{"status": "completed"}})
	})

	mux.HandleFunc("PUT /collections/{name}/points", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Points []point `json:"points"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, p := range body.Points {
			if len(p.Vector) != f.size {
				http.Error(w, `{"status":{"error":"Wrong input: Vector dimension error"}}`, http.StatusBadRequest)
				return
			}
		}
		for _, p := range body.Points {
			f.points[p.ID] = p
		}
		writeJSON(w, map[string]any{"result": map[string]any{"status": "completed"}})
	})

	mux.HandleFunc("POST /collections/{name}/points/search", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Vector     []float32 `json:"vector"`
			Limit      int       `json:"limit"`
			Filter     filter    `json:"filter"`
			WithVector bool      `json:"with_vector"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()

		type hit struct {
			ID      uint64          `json:"id"`
			Score   float32         `json:"score"`
			Payload storage.Payload `json:"payload"`
			Vector  []float32       `json:"vector,omitempty"`
		}
		var hits []hit
		for _, p := range f.points {
			if p.Payload.Namespace != body.Filter.namespace() {
				continue
			}
			h := hit{ID: p.ID, Score: cosine(body.Vector, p.Vector), Payload: p.Payload}
			if body.WithVector {
				h.Vector = p.Vector
			}
			hits = append(hits, h)
		}
		slices.SortFunc(hits, func(a, b hit) int {
			switch {
			case a.Score > b.Score:
				return -1
			case a.Score < b.Score:
				return 1
			}
			return a.Payload.ChunkID - b.Payload.ChunkID
		})
		if len(hits) > body.Limit {
			hits = hits[:body.Limit]
		}
		writeJSON(w, map[string]any{"result": hits})
	})

	mux.HandleFunc("POST /collections/{name}/points/delete", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Filter filter `json:"filter"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		for id, p := range f.points {
			if p.Payload.Namespace == body.Filter.namespace() {
				delete(f.points, id)
			}
		}
		writeJSON(w, map[string]any{"result": map[string]any{"status": "completed"}})
	})

	mux.HandleFunc("POST /collections/{name}/points/count", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Filter filter `json:"filter"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		count := 0
		for _, p := range f.points {
			if p.Payload.Namespace == body.Filter.namespace() {
				count++
			}
		}
		writeJSON(w, map[string]any{"result": map[string]any{"count": count}})
	})

	return mux
}

type fakeStats struct {
	creates        int
	payloadIndexes int
	size           int
	apiKeys        []string
}

func (f *fakeQdrant) stats() fakeStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeStats{creates: f.creates, payloadIndexes: f.payloadIndexes, size: f.size, apiKeys: slices.Clone(f.apiKeys)}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func newTestIndex(t *testing.T, fake *fakeQdrant) storage.ChunkIndex {
	t.Helper()
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	idx, err := NewIndex(server.URL, "mini-rag-index",
		WithAPIKey("secret"),
		WithHTTPClient(server.Client()),
		WithReadinessPolling(time.Millisecond, 5),
	)
	require.NoError(t, err)
	return idx
}

func chunk(source string, id int, content string) core.Chunk {
	return core.Chunk{Content: content, Source: source, ChunkID: id, Preview: core.MakePreview(content)}
}

func TestEnsureIndex_CreatesCollection(t *testing.T) {
	fake := newFakeQdrant()
	idx := newTestIndex(t, fake)

	require.NoError(t, idx.EnsureIndex(context.Background(), 768))
	stats := fake.stats()
	assert.Equal(t, 1, stats.creates)
	assert.Equal(t, 1, stats.payloadIndexes)
	assert.Equal(t, 768, stats.size)
	assert.Contains(t, stats.apiKeys, "secret")

	// Second call finds the collection and does not recreate it.
	require.NoError(t, idx.EnsureIndex(context.Background(), 768))
	assert.Equal(t, 1, fake.stats().creates)
}

func TestEnsureIndex_WaitsForGreen(t *testing.T) {
	fake := newFakeQdrant()
	fake.yellowChecks = 3
	idx := newTestIndex(t, fake)

	require.NoError(t, idx.EnsureIndex(context.Background(), 4))
}

func TestEnsureIndex_NeverReady(t *testing.T) {
	fake := newFakeQdrant()
	fake.yellowChecks = 100
	idx := newTestIndex(t, fake)

	err := idx.EnsureIndex(context.Background(), 4)
	assert.ErrorIs(t, err, storage.ErrConnection)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestEnsureIndex_DimensionMismatch(t *testing.T) {
	fake := newFakeQdrant()
	fake.exists = true
	fake.size = 384
	idx := newTestIndex(t, fake)

	err := idx.EnsureIndex(context.Background(), 768)
	assert.ErrorIs(t, err, storage.ErrConnection)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestEnsureIndex_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	idx, err := NewIndex(url, "mini-rag-index")
	require.NoError(t, err)

	err = idx.EnsureIndex(context.Background(), 4)
	assert.ErrorIs(t, err, storage.ErrConnection)
}

func TestUpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	fake := newFakeQdrant()
	idx := newTestIndex(t, fake)
	require.NoError(t, idx.EnsureIndex(ctx, 2))

	chunks := []core.Chunk{
		chunk("geo.txt", 0, "Paris is the capital of France."),
		chunk("geo.txt", 1, "Berlin is the capital of Germany."),
	}
	require.NoError(t, idx.Upsert(ctx, "demo-namespace", chunks, [][]float32{{1, 0}, {0, 1}}))
	require.NoError(t, idx.Upsert(ctx, "other", []core.Chunk{chunk("x.txt", 0, "x")}, [][]float32{{1, 0}}))

	results, err := idx.Search(ctx, "demo-namespace", []float32{1, 0.1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, chunks[0], results[0].Chunk)
	assert.Equal(t, []float32{1, 0}, results[0].Vector)
	assert.Greater(t, results[0].Score, results[1].Score)

	count, err := idx.Count(ctx, "demo-namespace")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUpsert_SameChunkOverwrites(t *testing.T) {
	ctx := context.Background()
	fake := newFakeQdrant()
	idx := newTestIndex(t, fake)
	require.NoError(t, idx.EnsureIndex(ctx, 2))

	c := []core.Chunk{chunk("geo.txt", 0, "Paris")}
	require.NoError(t, idx.Upsert(ctx, "ns", c, [][]float32{{1, 0}}))
	require.NoError(t, idx.Upsert(ctx, "ns", c, [][]float32{{1, 0}}))

	count, err := idx.Count(ctx, "ns")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	_, ok := fake.points[storage.PointID("ns", "geo.txt", 0)]
	assert.True(t, ok, "points are keyed by their unsigned integer id")
}

func TestUpsert_ServerRejects(t *testing.T) {
	ctx := context.Background()
	fake := newFakeQdrant()
	idx := newTestIndex(t, fake)
	require.NoError(t, idx.EnsureIndex(ctx, 2))

	err := idx.Upsert(ctx, "ns", []core.Chunk{chunk("a", 0, "a")}, [][]float32{{1, 0, 0}})
	require.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "Vector dimension error")
}

func TestUpsert_LengthMismatch(t *testing.T) {
	idx := newTestIndex(t, newFakeQdrant())

	err := idx.Upsert(context.Background(), "ns", []core.Chunk{chunk("a", 0, "a")}, nil)
	assert.ErrorIs(t, err, storage.ErrLengthMismatch)
}

func TestDeleteNamespace(t *testing.T) {
	ctx := context.Background()
	fake := newFakeQdrant()
	idx := newTestIndex(t, fake)
	require.NoError(t, idx.EnsureIndex(ctx, 2))

	require.NoError(t, idx.Upsert(ctx, "ns", []core.Chunk{chunk("a", 0, "a")}, [][]float32{{1, 0}}))
	require.NoError(t, idx.Upsert(ctx, "keep", []core.Chunk{chunk("b", 0, "b")}, [][]float32{{1, 0}}))
	require.NoError(t, idx.DeleteNamespace(ctx, "ns"))

	count, err := idx.Count(ctx, "ns")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = idx.Count(ctx, "keep")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewIndex_Validation(t *testing.T) {
	_, err := NewIndex("", "c")
	assert.ErrorIs(t, err, storage.ErrConnection)

	_, err = NewIndex("http://localhost:6333", "")
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}
