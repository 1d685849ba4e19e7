package aiinbx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure Verifier implements the interface.
var _ driven.WebhookVerifier = (*Verifier)(nil)

// Webhook headers.
const (
	HeaderSignature = "X-AIInbx-Signature"
	HeaderTimestamp = "X-AIInbx-Timestamp"
)

// EventInboundEmail is the webhook event for a received message.
const EventInboundEmail = "inbound.email.received"

// DefaultTolerance is how far a webhook timestamp may drift from now.
const DefaultTolerance = 5 * time.Minute

// Verifier checks HMAC-SHA256 webhook signatures.
// The signed message is "{timestamp}.{payload}", hex encoded,
// optionally prefixed with "sha256=".
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier creates a verifier for the webhook secret.
// An empty secret rejects every payload.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), tolerance: DefaultTolerance, now: time.Now}
}

// Verify reports whether signature matches payload at timestamp.
func (v *Verifier) Verify(payload []byte, signature, timestamp string) bool {
	if len(v.secret) == 0 || signature == "" || timestamp == "" {
		return false
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	drift := v.now().Sub(time.Unix(ts, 0))
	if drift < 0 {
		drift = -drift
	}
	if drift > v.tolerance {
		return false
	}

	got, err := hex.DecodeString(strings.TrimPrefix(signature, "sha256="))
	if err != nil {
		return false
	}
	return hmac.Equal(got, v.sign(timestamp, payload))
}

// Sign returns the hex signature for payload at timestamp.
func (v *Verifier) Sign(payload []byte, timestamp string) string {
	return hex.EncodeToString(v.sign(timestamp, payload))
}

func (v *Verifier) sign(timestamp string, payload []byte) []byte {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

type webhookJSON struct {
	Event string `json:"event"`
	Data  struct {
		Email *emailJSON `json:"email"`
	} `json:"data"`
}

// ParseInbound decodes a webhook body into an inbound email.
// Events other than inbound mail and payloads without an email id
// are rejected with domain.ErrBadRequest.
func ParseInbound(payload []byte) (domain.InboundEmail, error) {
	var w webhookJSON
	if err := json.Unmarshal(payload, &w); err != nil {
		return domain.InboundEmail{}, fmt.Errorf("%w: malformed webhook payload: %w", domain.ErrBadRequest, err)
	}
	if w.Event != "" && w.Event != EventInboundEmail {
		return domain.InboundEmail{}, fmt.Errorf("%w: unsupported webhook event %q", domain.ErrBadRequest, w.Event)
	}
	if w.Data.Email == nil || w.Data.Email.ID == "" {
		return domain.InboundEmail{}, fmt.Errorf("%w: webhook payload has no email", domain.ErrBadRequest)
	}
	return w.Data.Email.toDomain(), nil
}
