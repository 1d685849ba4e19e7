// Package qdrant provides a vector store backed by a self-hosted Qdrant
// collection. Text is embedded client-side through an EmbeddingService.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultURL        = "http://localhost:6333"
	DefaultCollection = "helpdesk"
	DefaultTimeout    = 30 * time.Second
)

// Payload keys.
const (
	keyNamespace = "namespace"
	keyChunkID   = "chunk_id"
	keyData      = "data"
	keyMetadata  = "metadata"
)

// pointNamespace seeds deterministic point ids.
var pointNamespace = uuid.MustParse("6f1d3c1a-9f43-4a51-8f5e-6c2b6d0e7a10")

// Config holds configuration for the Qdrant store.
type Config struct {
	// URL is the Qdrant REST endpoint (default: http://localhost:6333).
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Collection holds every tenant; a payload filter isolates them.
	Collection string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Store maps tenant namespaces onto one Qdrant collection.
type Store struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	collection string
	embedder   driven.EmbeddingService

	mu    sync.Mutex
	ready bool
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

type scoredPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// New creates a Qdrant store. The embedder is required.
func New(cfg Config, embedder driven.EmbeddingService) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: qdrant requires an embedding provider", domain.ErrConfiguration)
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	baseURL := strings.TrimRight(cfg.URL, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("%w: invalid Qdrant URL %q", domain.ErrConfiguration, cfg.URL)
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Store{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		embedder:   embedder,
	}, nil
}

// PointID maps a chunk id in a namespace to a Qdrant UUID point id.
func PointID(namespace, id string) string {
	return uuid.NewSHA1(pointNamespace, []byte(namespace+"\x00"+id)).String()
}

// Upsert embeds the records and writes them as points.
func (s *Store) Upsert(ctx context.Context, namespace string, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Data
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("qdrant: embed %d records: %w", len(records), err)
	}
	if len(vectors) != len(records) {
		return fmt.Errorf("qdrant: expected %d vectors, got %d", len(records), len(vectors))
	}
	if err := s.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	points := make([]point, len(records))
	for i, r := range records {
		payload := map[string]any{
			keyNamespace: namespace,
			keyChunkID:   r.ID,
			keyData:      r.Data,
		}
		if r.Metadata != nil {
			payload[keyMetadata] = r.Metadata
		}
		points[i] = point{ID: PointID(namespace, r.ID), Vector: vectors[i], Payload: payload}
	}

	return s.do(ctx, http.MethodPut, "/points?wait=true", map[string]any{"points": points}, nil)
}

// Query embeds the text and searches within the namespace.
func (s *Store) Query(ctx context.Context, namespace string, q driven.VectorQuery) ([]driven.VectorMatch, error) {
	vector, err := s.embedder.Embed(ctx, q.Data)
	if err != nil {
		return nil, fmt.Errorf("qdrant: embed query: %w", err)
	}

	var decoded struct {
		Result []scoredPoint `json:"result"`
	}
	err = s.do(ctx, http.MethodPost, "/points/search", map[string]any{
		"vector":       vector,
		"limit":        q.TopK,
		"with_payload": true,
		"filter":       namespaceFilter(namespace),
	}, &decoded)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	matches := make([]driven.VectorMatch, 0, len(decoded.Result))
	for _, p := range decoded.Result {
		id, data, md := fromPayload(p.Payload)
		m := driven.VectorMatch{ID: id, Score: p.Score}
		if q.IncludeData {
			m.Data = data
		}
		if q.IncludeMetadata {
			m.Metadata = md
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Fetch retrieves points by chunk id. Points from other namespaces are
// treated as missing.
func (s *Store) Fetch(
	ctx context.Context, namespace string, ids []string, opts driven.FetchOptions,
) ([]*driven.VectorRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	pointIDs := make([]string, len(ids))
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		pointIDs[i] = PointID(namespace, id)
		index[id] = i
	}

	var decoded struct {
		Result []scoredPoint `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, "/points", map[string]any{
		"ids":          pointIDs,
		"with_payload": true,
	}, &decoded)
	if err != nil {
		if isNotFound(err) {
			return make([]*driven.VectorRecord, len(ids)), nil
		}
		return nil, err
	}

	out := make([]*driven.VectorRecord, len(ids))
	for _, p := range decoded.Result {
		if ns, _ := p.Payload[keyNamespace].(string); ns != namespace {
			continue
		}
		id, data, md := fromPayload(p.Payload)
		i, ok := index[id]
		if !ok {
			continue
		}
		rec := &driven.VectorRecord{ID: id}
		if opts.IncludeData {
			rec.Data = data
		}
		if opts.IncludeMetadata {
			rec.Metadata = md
		}
		out[i] = rec
	}
	return out, nil
}

// Close releases the embedder.
func (s *Store) Close() error {
	return s.embedder.Close()
}

// ensureCollection creates the collection once per process.
func (s *Store) ensureCollection(ctx context.Context, size int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	if size <= 0 {
		return errors.New("qdrant: vector size must be positive")
	}

	err := s.do(ctx, http.MethodGet, "", nil, nil)
	if isNotFound(err) {
		err = s.do(ctx, http.MethodPut, "", map[string]any{
			"vectors": map[string]any{"size": size, "distance": "Cosine"},
		}, nil)
		if err == nil {
			err = s.do(ctx, http.MethodPut, "/index", map[string]any{
				"field_name":   keyNamespace,
				"field_schema": "keyword",
			}, nil)
		}
	}
	if err != nil {
		return fmt.Errorf("qdrant: ensure collection %s: %w", s.collection, err)
	}
	s.ready = true
	return nil
}

type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant: status %d: %s", e.code, e.msg)
}

func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == http.StatusNotFound
}

// do sends a request relative to the collection URL and decodes the reply into out.
func (s *Store) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			return fmt.Errorf("qdrant: encode payload: %w", err)
		}
		body = buf
	}

	endpoint := fmt.Sprintf("%s/collections/%s%s", s.baseURL, url.PathEscape(s.collection), path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("qdrant: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{code: resp.StatusCode, msg: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("qdrant: decode response: %w", err)
	}
	return nil
}

func namespaceFilter(namespace string) map[string]any {
	return map[string]any{
		"must": []any{
			map[string]any{"key": keyNamespace, "match": map[string]any{"value": namespace}},
		},
	}
}

// fromPayload recovers the chunk id, text and metadata of a point.
func fromPayload(payload map[string]any) (string, string, *domain.ChunkMetadata) {
	id, _ := payload[keyChunkID].(string)
	data, _ := payload[keyData].(string)

	raw, ok := payload[keyMetadata]
	if !ok {
		return id, data, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return id, data, nil
	}
	var md domain.ChunkMetadata
	if err := json.Unmarshal(b, &md); err != nil {
		return id, data, nil
	}
	return id, data, &md
}
