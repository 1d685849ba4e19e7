// Package memory provides a process-local reply ledger for single-instance runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure Ledger implements the interface.
var _ driven.ReplyLedger = (*Ledger)(nil)

// Ledger keeps claims in a map with expiry times.
type Ledger struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{claims: make(map[string]time.Time), now: time.Now}
}

// Claim records the key unless an unexpired claim exists.
// A non-positive ttl never expires.
func (l *Ledger) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.sweep(now)
	if _, ok := l.claims[key]; ok {
		return false, nil
	}
	var expires time.Time
	if ttl > 0 {
		expires = now.Add(ttl)
	}
	l.claims[key] = expires
	return true, nil
}

// Release forgets a claim.
func (l *Ledger) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.claims, key)
	return nil
}

// Len returns the number of live claims.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep(l.now())
	return len(l.claims)
}

// Close releases resources.
func (l *Ledger) Close() error {
	return nil
}

func (l *Ledger) sweep(now time.Time) {
	for k, expires := range l.claims {
		if !expires.IsZero() && !now.Before(expires) {
			delete(l.claims, k)
		}
	}
}
