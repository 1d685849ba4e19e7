// Package ratelimit throttles outbound calls to hosted APIs.
//
// A Limiter combines a proactive token bucket with reactive back-off
// driven by Retry-After and X-RateLimit headers. It plugs into any
// net/http client through Transport.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// HeaderRateRemaining is the remaining requests header.
	HeaderRateRemaining = "X-RateLimit-Remaining"

	// HeaderRateReset is the reset timestamp header (Unix seconds).
	HeaderRateReset = "X-RateLimit-Reset"

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"
)

// RateLimitError reports a 429 from the upstream API.
type RateLimitError struct {
	Host    string
	ResetAt time.Time
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s until %s", e.Host, e.ResetAt.Format(time.RFC3339))
}

// Limiter throttles requests to one host.
type Limiter struct {
	mu        sync.Mutex
	remaining int
	resetTime time.Time
	bucket    *rate.Limiter
	now       func() time.Time
}

// New creates a limiter allowing rps requests per second with the given burst.
// A non-positive rps disables proactive throttling.
func New(rps float64, burst int) *Limiter {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		remaining: -1,
		bucket:    rate.NewLimiter(limit, burst),
		now:       time.Now,
	}
}

// Wait blocks until it is safe to make a request.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.bucket.Wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	remaining := l.remaining
	resetTime := l.resetTime
	l.mu.Unlock()

	if remaining == 0 && l.now().Before(resetTime) {
		timer := time.NewTimer(resetTime.Sub(l.now()))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// Observe updates the limiter from response headers.
// It returns a RateLimitError when the response is a 429.
func (l *Limiter) Observe(resp *http.Response) error {
	if resp == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if v := resp.Header.Get(HeaderRateRemaining); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			l.remaining = n
		}
	}
	if v := resp.Header.Get(HeaderRateReset); v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			l.resetTime = time.Unix(ts, 0)
		}
	}

	if resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}
	if v := resp.Header.Get(HeaderRetryAfter); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			l.resetTime = l.now().Add(time.Duration(seconds) * time.Second)
		}
	}
	l.remaining = 0
	host := ""
	if resp.Request != nil && resp.Request.URL != nil {
		host = resp.Request.URL.Host
	}
	return &RateLimitError{Host: host, ResetAt: l.resetTime}
}

// Transport wraps base so every request waits on the limiter.
// A nil base uses http.DefaultTransport.
func (l *Limiter) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{limiter: l, base: base}
}

type transport struct {
	limiter *Limiter
	base    http.RoundTripper
}

// RoundTrip implements http.RoundTripper. A 429 response is returned
// unchanged so callers still see the status and body.
func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	_ = t.limiter.Observe(resp)
	return resp, nil
}
