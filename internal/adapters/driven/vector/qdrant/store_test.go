package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// --- Mock implementations ---

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

func (f fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = f.Embed(ctx, t)
	}
	return out, nil
}

func (fakeEmbedder) Dimensions() int { return 2 }

func (fakeEmbedder) ModelName() string { return "fake" }

func (fakeEmbedder) Ping(_ context.Context) error { return nil }

func (fakeEmbedder) Close() error { return nil }

// fakeQdrant is a minimal in-memory Qdrant REST server.
type fakeQdrant struct {
	mu         sync.Mutex
	collection bool
	indexed    bool
	points     map[string]point
	searches   []map[string]any
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/collections/kb")
	if !f.collection && r.Method == http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":{"error":"Collection kb doesn't exist"}}`))
		return
	}
	switch {
	case r.Method == http.MethodGet && path == "":
		if !f.collection {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":{"error":"Not found"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":{}}`))
	case r.Method == http.MethodPut && path == "":
		f.collection = true
		_, _ = w.Write([]byte(`{"result":true}`))
	case r.Method == http.MethodPut && path == "/index":
		f.indexed = true
		_, _ = w.Write([]byte(`{"result":{}}`))
	case r.Method == http.MethodPut && path == "/points":
		var body struct {
			Points []point `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, p := range body.Points {
			f.points[p.ID] = p
		}
		_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))
	case r.Method == http.MethodPost && path == "/points/search":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.searches = append(f.searches, body)
		ns := body["filter"].(map[string]any)["must"].([]any)[0].(map[string]any)["match"].(map[string]any)["value"]
		var result []map[string]any
		for id, p := range f.points {
			if p.Payload[keyNamespace] == ns {
				result = append(result, map[string]any{"id": id, "score": 0.5, "payload": p.Payload})
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": result})
	case r.Method == http.MethodPost && path == "/points":
		var body struct {
			IDs []string `json:"ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		var result []map[string]any
		for _, id := range body.IDs {
			if p, ok := f.points[id]; ok {
				result = append(result, map[string]any{"id": id, "payload": p.Payload})
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": result})
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func newTestStore(t *testing.T) (*Store, *fakeQdrant) {
	t.Helper()
	fake := &fakeQdrant{points: make(map[string]point)}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	store, err := New(Config{URL: server.URL, Collection: "kb"}, fakeEmbedder{})
	require.NoError(t, err)
	return store, fake
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))

	_, err = New(Config{URL: "localhost:6333"}, fakeEmbedder{})
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestPointID_Deterministic(t *testing.T) {
	assert.Equal(t, PointID("acme", "acme:a.txt:0"), PointID("acme", "acme:a.txt:0"))
	assert.NotEqual(t, PointID("acme", "x"), PointID("globex", "x"))
}

func TestStore_UpsertQueryFetch(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()

	md := &domain.ChunkMetadata{Slug: "acme", FileName: "a.txt", ChunkIndex: 0, TotalChunks: 2}
	require.NoError(t, store.Upsert(ctx, "acme", []driven.VectorRecord{
		{ID: "acme:a.txt:0", Data: "hello", Metadata: md},
		{ID: "acme:a.txt:1", Data: "world"},
	}))
	require.NoError(t, store.Upsert(ctx, "globex", []driven.VectorRecord{{ID: "globex:a.txt:0", Data: "other"}}))
	assert.True(t, fake.collection)
	assert.True(t, fake.indexed)

	matches, err := store.Query(ctx, "acme", driven.VectorQuery{Data: "hi", TopK: 5, IncludeData: true, IncludeMetadata: true})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.True(t, strings.HasPrefix(m.ID, "acme:"))
	}
	assert.Equal(t, float64(5), fake.searches[0]["limit"])

	recs, err := store.Fetch(ctx, "acme", []string{"acme:a.txt:1", "acme:a.txt:9", "acme:a.txt:0"},
		driven.FetchOptions{IncludeData: true, IncludeMetadata: true})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "world", recs[0].Data)
	assert.Nil(t, recs[1])
	require.NotNil(t, recs[2].Metadata)
	assert.Equal(t, "a.txt", recs[2].Metadata.FileName)
}

func TestStore_QueryMissingCollection(t *testing.T) {
	store, _ := newTestStore(t)

	matches, err := store.Query(context.Background(), "acme", driven.VectorQuery{Data: "q", TopK: 3})
	require.NoError(t, err)
	assert.Empty(t, matches)

	recs, err := store.Fetch(context.Background(), "acme", []string{"a"}, driven.FetchOptions{IncludeData: true})
	require.NoError(t, err)
	assert.Equal(t, []*driven.VectorRecord{nil}, recs)
}
