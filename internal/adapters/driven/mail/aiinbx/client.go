// Package aiinbx provides the hosted mail transport behind tenant mailboxes:
// thread lookup, in-thread replies and inbound webhook verification.
package aiinbx

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

// Ensure Client implements the interface.
var _ driven.MailProvider = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://aiinbx.com/api/v1"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the AI Inbx client.
type Config struct {
	// APIKey is AIINBX_API_KEY (required).
	APIKey string

	// BaseURL is the API base URL (default: https://aiinbx.com/api/v1).
	BaseURL string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// Transport overrides the HTTP transport, e.g. a rate limiter.
	Transport http.RoundTripper
}

// Client talks to the AI Inbx REST API.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// emailJSON is the wire shape of one email in threads and webhooks.
type emailJSON struct {
	ID          string    `json:"id"`
	ThreadID    string    `json:"threadId"`
	MessageID   string    `json:"messageId"`
	FromAddress string    `json:"fromAddress"`
	FromName    string    `json:"fromName"`
	ToAddresses []string  `json:"toAddresses"`
	Subject     string    `json:"subject"`
	Text        string    `json:"text"`
	HTML        string    `json:"html"`
	ReceivedAt  time.Time `json:"receivedAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (e emailJSON) toDomain() domain.InboundEmail {
	received := e.ReceivedAt
	if received.IsZero() {
		received = e.CreatedAt
	}
	return domain.InboundEmail{
		ID:          e.ID,
		ThreadID:    e.ThreadID,
		MessageID:   e.MessageID,
		FromAddress: e.FromAddress,
		FromName:    e.FromName,
		ToAddresses: e.ToAddresses,
		Subject:     e.Subject,
		Text:        e.Text,
		HTML:        e.HTML,
		ReceivedAt:  received,
	}
}

type threadJSON struct {
	ID      string      `json:"id"`
	Subject string      `json:"subject"`
	Emails  []emailJSON `json:"emails"`
}

type errorJSON struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// New creates an AI Inbx client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: AIINBX_API_KEY is required", domain.ErrConfiguration)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}, nil
}

// Thread retrieves a conversation by id.
func (c *Client) Thread(ctx context.Context, threadID string) (*domain.Thread, error) {
	if threadID == "" {
		return nil, fmt.Errorf("%w: thread id is required", domain.ErrInvalidInput)
	}
	var t threadJSON
	if err := c.do(ctx, http.MethodGet, "/threads/"+url.PathEscape(threadID), nil, &t); err != nil {
		return nil, err
	}

	thread := &domain.Thread{ID: t.ID, Subject: t.Subject}
	for _, e := range t.Emails {
		thread.Messages = append(thread.Messages, e.toDomain())
	}
	return thread, nil
}

// Reply sends an HTML reply in the thread of the given email.
func (c *Client) Reply(ctx context.Context, emailID string, reply domain.OutgoingReply) error {
	if emailID == "" {
		return fmt.Errorf("%w: email id is required", domain.ErrInvalidInput)
	}
	return c.do(ctx, http.MethodPost, "/emails/"+url.PathEscape(emailID)+"/reply", reply, nil)
}

// Ping checks that the API key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/me", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("aiinbx: marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("aiinbx: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("aiinbx: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		var e errorJSON
		if json.Unmarshal(raw, &e) == nil {
			if e.Message != "" {
				msg = e.Message
			} else if e.Error != "" {
				msg = e.Error
			}
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("aiinbx: %s %s: %w", method, path, domain.ErrNotFound)
		}
		return fmt.Errorf("aiinbx error (status %d): %s", resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("aiinbx: decode response: %w", err)
	}
	return nil
}
