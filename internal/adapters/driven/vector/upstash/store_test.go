package upstash

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	store, err := New(Config{URL: server.URL + "/", Token: "tok"})
	require.NoError(t, err)
	return store
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(Config{URL: "https://x"})
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestStore_Upsert(t *testing.T) {
	var got []map[string]any
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upsert-data/acme", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"result":"Success"}`))
	})

	err := store.Upsert(context.Background(), "acme", []driven.VectorRecord{{
		ID:   "acme:faq.txt:0",
		Data: "refunds",
		Metadata: &domain.ChunkMetadata{
			Slug: "acme", FileName: "faq.txt", MIMEType: "text/plain", ChunkIndex: 0, TotalChunks: 1,
			UploadedAt: time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		},
	}})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "acme:faq.txt:0", got[0]["id"])
	assert.Equal(t, "refunds", got[0]["data"])
	md := got[0]["metadata"].(map[string]any)
	assert.Equal(t, "faq.txt", md["fileName"])
	assert.Equal(t, "text/plain", md["mimeType"])
	assert.Equal(t, "2025-03-01T10:30:00Z", md["uploadedAt"])
}

func TestStore_Upsert_EmbeddingDisabled(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Embedding data for this index is not allowed. The index must be created with an embedding model to use it.","status":400}`))
	})

	err := store.Upsert(context.Background(), "acme", []driven.VectorRecord{{ID: "x", Data: "y"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreMisconfigured))
	assert.Contains(t, err.Error(), "embedding model")
}

func TestStore_Query(t *testing.T) {
	var got queryRequest
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query-data/acme", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"result":[
			{"id":"acme:faq.txt:2","score":0.91,"data":"refund text",
			 "metadata":{"slug":"acme","fileName":"faq.txt","chunkIndex":2,"totalChunks":4,"uploadedAt":"2025-03-01T10:30:00.123Z"}}
		]}`))
	})

	matches, err := store.Query(context.Background(), "acme", driven.VectorQuery{
		Data: "refund", TopK: 5, IncludeMetadata: true, IncludeData: true,
	})
	require.NoError(t, err)

	assert.Equal(t, queryRequest{Data: "refund", TopK: 5, IncludeMetadata: true, IncludeData: true}, got)
	require.Len(t, matches, 1)
	assert.InDelta(t, 0.91, matches[0].Score, 1e-9)
	assert.Equal(t, "refund text", matches[0].Data)
	require.NotNil(t, matches[0].Metadata)
	assert.Equal(t, 2, matches[0].Metadata.ChunkIndex)
	assert.Equal(t, 123, matches[0].Metadata.UploadedAt.Nanosecond()/int(time.Millisecond))
}

func TestStore_Fetch(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fetch/acme", r.URL.Path)
		var req fetchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b"}, req.IDs)
		assert.True(t, req.IncludeData)
		_, _ = w.Write([]byte(`{"result":[null,{"id":"b","data":"bee","metadata":{"chunkIndex":1}}]}`))
	})

	recs, err := store.Fetch(context.Background(), "acme", []string{"a", "b"},
		driven.FetchOptions{IncludeData: true, IncludeMetadata: true})
	require.NoError(t, err)

	require.Len(t, recs, 2)
	assert.Nil(t, recs[0])
	require.NotNil(t, recs[1])
	assert.Equal(t, "bee", recs[1].Data)
	assert.Equal(t, 1, recs[1].Metadata.ChunkIndex)
}

func TestStore_HTTPError(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`gateway down`))
	})

	_, err := store.Query(context.Background(), "acme", driven.VectorQuery{Data: "q", TopK: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.False(t, errors.Is(err, domain.ErrStoreMisconfigured))
}
