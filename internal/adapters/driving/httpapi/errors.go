package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// statusFor maps domain sentinels to HTTP statuses.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr), errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrBadRequest),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrIngestionFailed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrOrganizationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrGenerationFailed), errors.Is(err, domain.ErrDeliveryFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// abort writes err with its mapped status. Internal errors keep their
// message only when they are configuration problems the operator can fix.
func abort(c *gin.Context, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var ingestErr *domain.IngestError
	if errors.As(err, &ingestErr) {
		resp.Details = ingestErr.Details
	}
	if status == http.StatusInternalServerError &&
		!errors.Is(err, domain.ErrConfiguration) && !errors.Is(err, domain.ErrStoreMisconfigured) {
		resp.Error = "internal server error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}
