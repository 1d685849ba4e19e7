// Package image indexes images by filename only.
package image

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor emits a one-line placeholder naming the image, so the file is
// still discoverable by name. No OCR is performed.
type Extractor struct{}

// New creates a new image extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "image"
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"image/*"}
}

// SupportedExtensions returns the file extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif"}
}

// Extract returns the placeholder line.
func (e *Extractor) Extract(_ context.Context, file domain.UploadedFile) (string, error) {
	kind := file.MIMEType
	if kind == "" {
		kind = strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Name)), ".")
	}
	return fmt.Sprintf("Image file \"%s\" (type: %s) uploaded to the knowledge base.", file.Name, kind), nil
}
