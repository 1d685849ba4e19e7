package driven

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// VectorStore stores chunk text in per-tenant namespaces and answers
// similarity queries. The store embeds raw text itself, or delegates to an
// EmbeddingService, so callers only ever pass text.
//
// Implementations may include:
//   - Upstash Vector (hosted, server-side embedding)
//   - Qdrant (self-hosted, client-side embedding)
//   - In-memory lexical index (development and tests)
type VectorStore interface {
	// Upsert writes records into the namespace, overwriting equal ids.
	Upsert(ctx context.Context, namespace string, records []VectorRecord) error

	// Query returns up to TopK records most similar to the query text.
	Query(ctx context.Context, namespace string, q VectorQuery) ([]VectorMatch, error)

	// Fetch returns records by id. Missing ids yield nil entries,
	// so the result is index-aligned with ids.
	Fetch(ctx context.Context, namespace string, ids []string, opts FetchOptions) ([]*VectorRecord, error)

	// Close releases resources.
	Close() error
}

// VectorRecord is one stored chunk.
type VectorRecord struct {
	// ID is the chunk id.
	ID string

	// Data is the chunk text. Embedded by the store.
	Data string

	// Metadata is the typed chunk metadata.
	Metadata *domain.ChunkMetadata
}

// VectorQuery configures a similarity query.
type VectorQuery struct {
	// Data is the raw query text.
	Data string

	// TopK is the maximum number of matches.
	TopK int

	// IncludeMetadata returns stored metadata with each match.
	IncludeMetadata bool

	// IncludeData returns stored text with each match.
	IncludeData bool
}

// VectorMatch is one query hit.
type VectorMatch struct {
	ID       string
	Score    float64
	Data     string
	Metadata *domain.ChunkMetadata
}

// FetchOptions configures Fetch.
type FetchOptions struct {
	IncludeData     bool
	IncludeMetadata bool
}
