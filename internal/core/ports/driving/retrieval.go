package driving

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// RetrievalService answers knowledge-base lookups.
// Both operations report failures in-band and never return an error.
type RetrievalService interface {
	// Search finds the chunks most relevant to a query.
	Search(ctx context.Context, req domain.SearchRequest) domain.SearchOutcome

	// Expand returns a chunk and its neighbours from the same file.
	Expand(ctx context.Context, req domain.ExpandRequest) domain.ExpandOutcome
}
