package driven

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// Extractor turns one kind of uploaded file into plain text.
type Extractor interface {
	// Name identifies the extractor in logs.
	Name() string

	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// SupportedExtensions returns lowercase extensions including the dot.
	SupportedExtensions() []string

	// Extract returns the file text. Failures wrap domain.ErrExtractionFailed.
	Extract(ctx context.Context, file domain.UploadedFile) (string, error)
}

// ExtractorRegistry selects and runs the extractor for a file.
type ExtractorRegistry interface {
	// Register adds an extractor.
	Register(e Extractor)

	// Extract dispatches by MIME type, then by extension.
	// Unknown kinds return domain.ErrUnsupportedFormat.
	Extract(ctx context.Context, file domain.UploadedFile) (string, error)
}
