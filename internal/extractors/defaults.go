package extractors

import (
	"github.com/custodia-labs/helpdesk/internal/extractors/docx"
	"github.com/custodia-labs/helpdesk/internal/extractors/html"
	"github.com/custodia-labs/helpdesk/internal/extractors/image"
	"github.com/custodia-labs/helpdesk/internal/extractors/markdown"
	"github.com/custodia-labs/helpdesk/internal/extractors/pdf"
	"github.com/custodia-labs/helpdesk/internal/extractors/plaintext"
)

// RegisterDefaults registers all built-in extractors with the registry.
// Call this during application initialisation.
func RegisterDefaults(r *Registry) {
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(image.New())
}

// NewDefaultRegistry creates a registry with the built-in extractors.
func NewDefaultRegistry(opts ...Option) *Registry {
	r := NewRegistry(opts...)
	RegisterDefaults(r)
	return r
}
