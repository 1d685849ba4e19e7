package driven

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// MailProvider is the hosted email transport behind tenant mailboxes.
type MailProvider interface {
	// Thread returns the conversation a message belongs to.
	Thread(ctx context.Context, threadID string) (*domain.Thread, error)

	// Reply sends an in-thread reply to the given message.
	Reply(ctx context.Context, emailID string, reply domain.OutgoingReply) error
}

// WebhookVerifier checks inbound webhook authenticity.
type WebhookVerifier interface {
	// Verify reports whether the signature matches the raw payload.
	Verify(payload []byte, signature string, timestamp string) bool
}
