// Package upstash provides a vector store backed by the Upstash Vector
// REST API with server-side embedding.
package upstash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// DefaultTimeout bounds each REST call.
const DefaultTimeout = 30 * time.Second

// embeddingDisabled is the error text Upstash returns when an index has
// no embedding model and raw text is upserted.
const embeddingDisabled = "Embedding data for this index is not allowed"

// Config holds configuration for the Upstash store.
type Config struct {
	// URL is UPSTASH_VECTOR_REST_URL.
	URL string

	// Token is UPSTASH_VECTOR_REST_TOKEN.
	Token string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Store talks to one Upstash Vector index. Namespaces isolate tenants.
type Store struct {
	client  *http.Client
	baseURL string
	token   string
}

type upsertItem struct {
	ID       string                `json:"id"`
	Data     string                `json:"data"`
	Metadata *domain.ChunkMetadata `json:"metadata,omitempty"`
}

type queryRequest struct {
	Data            string `json:"data"`
	TopK            int    `json:"topK"`
	IncludeMetadata bool   `json:"includeMetadata"`
	IncludeData     bool   `json:"includeData"`
}

type fetchRequest struct {
	IDs             []string `json:"ids"`
	IncludeMetadata bool     `json:"includeMetadata"`
	IncludeData     bool     `json:"includeData"`
}

type resultItem struct {
	ID       string                `json:"id"`
	Score    float64               `json:"score"`
	Data     string                `json:"data"`
	Metadata *domain.ChunkMetadata `json:"metadata"`
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
	Status int             `json:"status"`
}

// New creates an Upstash store.
func New(cfg Config) (*Store, error) {
	if cfg.URL == "" || cfg.Token == "" {
		return nil, fmt.Errorf("%w: UPSTASH_VECTOR_REST_URL and UPSTASH_VECTOR_REST_TOKEN are required",
			domain.ErrConfiguration)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Store{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
	}, nil
}

// Upsert writes records with raw text; Upstash embeds them.
func (s *Store) Upsert(ctx context.Context, namespace string, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	items := make([]upsertItem, len(records))
	for i, r := range records {
		items[i] = upsertItem{ID: r.ID, Data: r.Data, Metadata: r.Metadata}
	}
	_, err := s.call(ctx, "upsert-data", namespace, items)
	return err
}

// Query embeds the text server-side and returns the nearest records.
func (s *Store) Query(ctx context.Context, namespace string, q driven.VectorQuery) ([]driven.VectorMatch, error) {
	raw, err := s.call(ctx, "query-data", namespace, queryRequest{
		Data:            q.Data,
		TopK:            q.TopK,
		IncludeMetadata: q.IncludeMetadata,
		IncludeData:     q.IncludeData,
	})
	if err != nil {
		return nil, err
	}

	var items []resultItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("upstash: decode query result: %w", err)
	}
	matches := make([]driven.VectorMatch, len(items))
	for i, it := range items {
		matches[i] = driven.VectorMatch{ID: it.ID, Score: it.Score, Data: it.Data, Metadata: it.Metadata}
	}
	return matches, nil
}

// Fetch loads records by id; missing ids yield nil entries.
func (s *Store) Fetch(
	ctx context.Context, namespace string, ids []string, opts driven.FetchOptions,
) ([]*driven.VectorRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw, err := s.call(ctx, "fetch", namespace, fetchRequest{
		IDs:             ids,
		IncludeMetadata: opts.IncludeMetadata,
		IncludeData:     opts.IncludeData,
	})
	if err != nil {
		return nil, err
	}

	var items []*resultItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("upstash: decode fetch result: %w", err)
	}
	out := make([]*driven.VectorRecord, len(ids))
	for i := range ids {
		if i < len(items) && items[i] != nil {
			out[i] = &driven.VectorRecord{ID: items[i].ID, Data: items[i].Data, Metadata: items[i].Metadata}
		}
	}
	return out, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// call posts a JSON body to /{op}/{namespace} and returns the result field.
func (s *Store) call(ctx context.Context, op, namespace string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("upstash: marshal %s: %w", op, err)
	}

	endpoint := s.baseURL + "/" + op
	if namespace != "" {
		endpoint += "/" + url.PathEscape(namespace)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("upstash: create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstash: %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("upstash: read %s response: %w", op, err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("upstash: %s status %s: %s", op, resp.Status, strings.TrimSpace(string(respBody)))
	}
	if env.Error != "" {
		if strings.Contains(env.Error, embeddingDisabled) {
			return nil, fmt.Errorf("%w: the Upstash index has no embedding model. "+
				"Recreate it with a built-in embedding model (for example BGE_M3) so raw text can be indexed",
				domain.ErrStoreMisconfigured)
		}
		return nil, fmt.Errorf("upstash: %s: %s", op, env.Error)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("upstash: %s status %s", op, resp.Status)
	}
	return env.Result, nil
}
