// Package redis provides a reply ledger shared by every helpdesk instance,
// backed by Redis SET NX with expiry.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure Ledger implements the interface.
var _ driven.ReplyLedger = (*Ledger)(nil)

// Default configuration values.
const (
	DefaultAddr      = "localhost:6379"
	DefaultKeyPrefix = "helpdesk:reply:"
	DefaultTimeout   = 2 * time.Second
)

// Config holds configuration for the Redis ledger.
type Config struct {
	// Addr is host:port (default: localhost:6379).
	Addr string

	// Password authenticates against Redis.
	Password string

	// DB selects the logical database.
	DB int

	// KeyPrefix namespaces ledger keys (default: helpdesk:reply:).
	KeyPrefix string
}

// commands is the subset of the Redis client the ledger uses.
type commands interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Ledger records claimed inbound message ids in Redis.
type Ledger struct {
	cmd    commands
	close  func() error
	prefix string
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Ledger, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ledger: ping redis %s failed: %w", cfg.Addr, err)
	}
	return newLedger(client, client.Close, cfg.KeyPrefix), nil
}

func newLedger(cmd commands, closeFn func() error, prefix string) *Ledger {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Ledger{cmd: cmd, close: closeFn, prefix: prefix}
}

// Claim sets the key only if absent. The claim expires after ttl.
func (l *Ledger) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.cmd.SetNX(ctx, l.prefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("ledger: claim %s: %w", key, err)
	}
	return ok, nil
}

// Release deletes the claim.
func (l *Ledger) Release(ctx context.Context, key string) error {
	if err := l.cmd.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("ledger: release %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection.
func (l *Ledger) Close() error {
	if l.close == nil {
		return nil
	}
	return l.close()
}
