package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBadRequest indicates malformed caller input such as a missing
	// tenant slug, an empty file list or a blank query.
	ErrBadRequest = errors.New("bad request")

	// ErrConfiguration indicates missing store or provider credentials.
	// It is not actionable by the end user.
	ErrConfiguration = errors.New("configuration error")

	// Extraction Errors. These are per-file and never abort a batch.

	// ErrUnsupportedFormat indicates a file type the extractors cannot read.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrFileTooLarge indicates a file above the upload ceiling.
	ErrFileTooLarge = errors.New("file too large")

	// ErrExtractionFailed indicates the parser rejected the file content.
	ErrExtractionFailed = errors.New("extraction failed")

	// Ingestion Errors.

	// ErrIngestionFailed indicates that no file in a batch produced a vector.
	ErrIngestionFailed = errors.New("ingestion failed")

	// ErrStoreMisconfigured indicates the vector index cannot embed raw text.
	ErrStoreMisconfigured = errors.New("vector store misconfigured")

	// Inbound Message Rejections. Never surfaced to the sender.

	// ErrOrganizationNotFound indicates the mailbox does not map to a tenant.
	ErrOrganizationNotFound = errors.New("organization not found")

	// ErrSenderNotAccepted indicates the sender is outside the tenant allow-list.
	ErrSenderNotAccepted = errors.New("sender not accepted")

	// ErrInvalidSignature indicates the inbound payload failed verification.
	ErrInvalidSignature = errors.New("invalid signature")

	// Reply Errors.

	// ErrGenerationFailed indicates the language model failed to compose a reply.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrDeliveryFailed indicates the reply could not be handed to the mail provider.
	ErrDeliveryFailed = errors.New("delivery failed")
)

// IngestError reports a batch where every file failed.
// It wraps ErrIngestionFailed and carries the per-file reasons.
type IngestError struct {
	// Details holds one message per failed file.
	Details []string
}

// Error implements the error interface.
func (e *IngestError) Error() string {
	if len(e.Details) == 0 {
		return "No vectors to upsert. All files failed to process."
	}
	return fmt.Sprintf("No vectors to upsert. All files failed to process: %s",
		strings.Join(e.Details, "; "))
}

// Unwrap allows errors.Is(err, ErrIngestionFailed).
func (e *IngestError) Unwrap() error {
	return ErrIngestionFailed
}
