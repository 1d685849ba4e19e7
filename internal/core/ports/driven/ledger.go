package driven

import (
	"context"
	"time"
)

// ReplyLedger records which inbound messages have been claimed,
// so transport retries do not produce duplicate replies.
type ReplyLedger interface {
	// Claim marks the key as in progress. It returns false when the key
	// was already claimed and not released.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release forgets a claim so a retry may run again.
	Release(ctx context.Context, key string) error

	// Close releases resources.
	Close() error
}
