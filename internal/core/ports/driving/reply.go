package driving

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// ReplyService answers inbound helpdesk emails.
type ReplyService interface {
	// HandleInbound runs the guard, retrieval and compose steps for one
	// inbound email. Guard rejections and duplicates are reported in the
	// outcome with a nil error.
	HandleInbound(ctx context.Context, event domain.InboundEvent) (*domain.ReplyOutcome, error)
}
