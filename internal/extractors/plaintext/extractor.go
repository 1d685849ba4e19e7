// Package plaintext decodes plain text uploads.
package plaintext

import (
	"context"
	"strings"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const utf8BOM = "\ufeff"

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "plaintext"
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

// SupportedExtensions returns the file extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".txt"}
}

// Extract decodes the bytes as UTF-8. A leading byte order mark is
// dropped and invalid sequences become U+FFFD.
func (e *Extractor) Extract(_ context.Context, file domain.UploadedFile) (string, error) {
	text := strings.TrimPrefix(string(file.Content), utf8BOM)
	return strings.ToValidUTF8(text, "\uFFFD"), nil
}
