package driving

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// IngestService adds uploaded documents to a tenant's knowledge base.
type IngestService interface {
	// Ingest extracts, chunks and upserts files into the tenant namespace.
	// Per-file failures are reported in the result; the call only fails
	// when nothing could be indexed or the store rejected the batch.
	Ingest(ctx context.Context, slug string, files []domain.UploadedFile) (*domain.IngestResult, error)
}
