package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/helpdesk/internal/adapters/driven/mail/aiinbx"
	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// inboundResponse is the body of a handled webhook.
type inboundResponse struct {
	Sent   bool   `json:"sent"`
	Status string `json:"status,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// handleInbound verifies the signature before parsing, so unsigned
// requests learn nothing about the payload format.
func (s *Server) handleInbound(c *gin.Context) {
	if s.ports.Reply == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorResponse{Error: "reply service is not configured"})
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxWebhookBytes))
	if err != nil {
		abort(c, fmt.Errorf("%w: reading payload: %w", domain.ErrBadRequest, err))
		return
	}

	signature := c.GetHeader(aiinbx.HeaderSignature)
	timestamp := c.GetHeader(aiinbx.HeaderTimestamp)
	if s.ports.Verifier == nil || !s.ports.Verifier.Verify(payload, signature, timestamp) {
		logger.Warn("webhook: rejected payload with invalid signature")
		abort(c, domain.ErrInvalidSignature)
		return
	}

	email, err := aiinbx.ParseInbound(payload)
	if err != nil {
		abort(c, err)
		return
	}

	outcome, err := s.ports.Reply.HandleInbound(c.Request.Context(), domain.InboundEvent{Verified: true, Email: email})
	if err != nil {
		abort(c, err)
		return
	}

	switch {
	case outcome.Sent():
		c.JSON(http.StatusOK, inboundResponse{Sent: true, Status: outcome.Status.String()})
	case errors.Is(outcome.Reason, domain.ErrInvalidSignature):
		abort(c, outcome.Reason)
	default:
		resp := inboundResponse{Status: outcome.Status.String()}
		if outcome.Reason != nil {
			resp.Reason = outcome.Reason.Error()
		}
		c.JSON(http.StatusOK, resp)
	}
}
