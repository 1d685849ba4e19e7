package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/helpdesk/internal/adapters/driven/mail/aiinbx"
	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

const inboundPayload = `{
  "event": "inbound.email.received",
  "data": {"email": {
    "id": "em_1",
    "threadId": "th_1",
    "fromAddress": "ann@example.com",
    "toAddresses": ["acme@ai-helpdesk.aiinbx.app"],
    "subject": "Refunds",
    "text": "How long do refunds take?"
  }}
}`

func postWebhook(s *Server, payload, signature, timestamp string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/inbound", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(aiinbx.HeaderSignature, signature)
	}
	if timestamp != "" {
		req.Header.Set(aiinbx.HeaderTimestamp, timestamp)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleInbound_SignedWithAIInbxVerifier(t *testing.T) {
	verifier := aiinbx.NewVerifier("whsec_test")
	reply := &mockReply{outcome: &domain.ReplyOutcome{Status: domain.ReplyStatusSent}}
	s := newTestServer(t, Ports{Reply: reply, Verifier: verifier}, Config{})

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	rec := postWebhook(s, inboundPayload, "sha256="+verifier.Sign([]byte(inboundPayload), ts), ts)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sent":true,"status":"sent"}`, rec.Body.String())
	require.Len(t, reply.events, 1)
	assert.True(t, reply.events[0].Verified)
	assert.Equal(t, "em_1", reply.events[0].Email.ID)
	assert.Equal(t, "th_1", reply.events[0].Email.ThreadID)
	assert.Equal(t, []string{"acme@ai-helpdesk.aiinbx.app"}, reply.events[0].Email.ToAddresses)
}

func TestHandleInbound_Responses(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		signature  string
		outcome    *domain.ReplyOutcome
		err        error
		wantStatus int
		wantBody   string
		wantCalls  int
	}{
		{
			name:       "invalid signature",
			payload:    inboundPayload,
			signature:  "forged",
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"invalid signature"}`,
		},
		{
			name:       "missing signature",
			payload:    inboundPayload,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed payload",
			payload:    `{"event":`,
			signature:  "ok",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "payload without email",
			payload:    `{"event":"inbound.email.received","data":{}}`,
			signature:  "ok",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:      "sender rejected",
			payload:   inboundPayload,
			signature: "ok",
			outcome: &domain.ReplyOutcome{
				Status: domain.ReplyStatusRejected,
				Reason: fmt.Errorf("%w: ann@example.com is not in the accepted senders list", domain.ErrSenderNotAccepted),
			},
			wantStatus: http.StatusOK,
			wantBody: `{"sent":false,"status":"rejected",` +
				`"reason":"sender not accepted: ann@example.com is not in the accepted senders list"}`,
			wantCalls: 1,
		},
		{
			name:       "duplicate",
			payload:    inboundPayload,
			signature:  "ok",
			outcome:    &domain.ReplyOutcome{Status: domain.ReplyStatusDuplicate},
			wantStatus: http.StatusOK,
			wantBody:   `{"sent":false,"status":"duplicate"}`,
			wantCalls:  1,
		},
		{
			name:       "generation failure",
			payload:    inboundPayload,
			signature:  "ok",
			err:        fmt.Errorf("%w: model timed out", domain.ErrGenerationFailed),
			wantStatus: http.StatusBadGateway,
			wantCalls:  1,
		},
		{
			name:       "delivery failure",
			payload:    inboundPayload,
			signature:  "ok",
			err:        fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, errors.New("aiinbx error (status 500): boom")),
			wantStatus: http.StatusBadGateway,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := &mockReply{outcome: tt.outcome, err: tt.err}
			s := newTestServer(t, Ports{Reply: reply, Verifier: staticVerifier{signature: "ok"}}, Config{})

			rec := postWebhook(s, tt.payload, tt.signature, "1")

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
			assert.Len(t, reply.events, tt.wantCalls)
		})
	}
}

func TestHandleInbound_NotConfigured(t *testing.T) {
	s := newTestServer(t, Ports{}, Config{})
	rec := postWebhook(s, inboundPayload, "ok", "1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s = newTestServer(t, Ports{Reply: &mockReply{}}, Config{})
	rec = postWebhook(s, inboundPayload, "ok", "1")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
