package extractors

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// DefaultMaxFileBytes is the per-file size ceiling.
const DefaultMaxFileBytes = 10 * 1024 * 1024

// MIMEMSWord is the legacy binary Word format, which is rejected.
const MIMEMSWord = "application/msword"

// Registry dispatches uploaded files to extractors by MIME type first and
// filename extension second.
type Registry struct {
	maxFileBytes int
	byMIME       map[string]driven.Extractor
	byMIMEPrefix map[string]driven.Extractor
	byExt        map[string]driven.Extractor
}

// Option configures the registry.
type Option func(*Registry)

// WithMaxFileBytes sets the size ceiling checked before parsing.
func WithMaxFileBytes(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxFileBytes = n
		}
	}
}

// NewRegistry creates an empty extractor registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		maxFileBytes: DefaultMaxFileBytes,
		byMIME:       make(map[string]driven.Extractor),
		byMIMEPrefix: make(map[string]driven.Extractor),
		byExt:        make(map[string]driven.Extractor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds an extractor. MIME types ending in "/*" match by prefix.
// Later registrations override earlier ones for the same key.
func (r *Registry) Register(e driven.Extractor) {
	for _, m := range e.SupportedMIMETypes() {
		if prefix, ok := strings.CutSuffix(m, "*"); ok {
			r.byMIMEPrefix[prefix] = e
			continue
		}
		r.byMIME[m] = e
	}
	for _, ext := range e.SupportedExtensions() {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// SupportedMIMETypes returns all registered MIME types, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	types := make([]string, 0, len(r.byMIME)+len(r.byMIMEPrefix))
	for m := range r.byMIME {
		types = append(types, m)
	}
	for p := range r.byMIMEPrefix {
		types = append(types, p+"*")
	}
	sort.Strings(types)
	return types
}

// Extract returns the text of file using the matching extractor.
func (r *Registry) Extract(ctx context.Context, file domain.UploadedFile) (string, error) {
	if file.Size() > r.maxFileBytes {
		return "", fmt.Errorf("%w: file %s exceeds maximum size of %dMB",
			domain.ErrFileTooLarge, file.Name, r.maxFileBytes/(1024*1024))
	}

	e, err := r.lookup(file)
	if err != nil {
		return "", err
	}

	logger.Debug("extracting %s with %s extractor (%d bytes)", file.Name, e.Name(), file.Size())
	return e.Extract(ctx, file)
}

func (r *Registry) lookup(file domain.UploadedFile) (driven.Extractor, error) {
	mimeType := baseMIME(file.MIMEType)
	ext := strings.ToLower(filepath.Ext(file.Name))

	if e, ok := r.byMIME[mimeType]; ok {
		return e, nil
	}
	for prefix, e := range r.byMIMEPrefix {
		if mimeType != "" && strings.HasPrefix(mimeType, prefix) {
			return e, nil
		}
	}
	if mimeType == MIMEMSWord {
		return nil, legacyDocError(file.Name)
	}
	if e, ok := r.byExt[ext]; ok {
		return e, nil
	}
	if ext == ".doc" {
		return nil, legacyDocError(file.Name)
	}

	return nil, fmt.Errorf("%w: unsupported file type for %s. Supported: PDF, DOCX, TXT, Markdown, HTML, images (as filename-only entries)",
		domain.ErrUnsupportedFormat, file.Name)
}

func legacyDocError(name string) error {
	return fmt.Errorf("%w: DOC files (%s) are not supported yet; please convert to DOCX",
		domain.ErrUnsupportedFormat, name)
}

// baseMIME strips parameters such as "; charset=utf-8".
func baseMIME(m string) string {
	if m == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(m); err == nil {
		return parsed
	}
	return strings.ToLower(strings.TrimSpace(m))
}
