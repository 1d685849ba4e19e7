// Package pdf extracts page-merged text from PDF documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor reads PDFs through their document object model and merges
// the text of all pages into one stream.
type Extractor struct{}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "pdf"
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// SupportedExtensions returns the file extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Extract returns the text of every page, in page order.
func (e *Extractor) Extract(_ context.Context, file domain.UploadedFile) (text string, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: failed to parse PDF %s: %v", domain.ErrExtractionFailed, file.Name, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(file.Content), int64(len(file.Content)))
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse PDF %s: %v", domain.ErrExtractionFailed, file.Name, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse PDF %s: %v", domain.ErrExtractionFailed, file.Name, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("%w: failed to read PDF %s: %v", domain.ErrExtractionFailed, file.Name, err)
	}

	return strings.TrimSpace(buf.String()), nil
}
