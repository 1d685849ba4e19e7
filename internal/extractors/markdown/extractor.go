// Package markdown extracts text from Markdown documents, keeping headings
// and code as plain lines.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles Markdown documents.
type Extractor struct{}

// New creates a new Markdown extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "markdown"
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// SupportedExtensions returns the file extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Extract removes Markdown syntax. Link text is kept and images become
// their alt text.
func (e *Extractor) Extract(_ context.Context, file domain.UploadedFile) (string, error) {
	text := strings.TrimPrefix(string(file.Content), "\ufeff")
	text = strings.ToValidUTF8(text, "\uFFFD")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return stripMarkdown(text), nil
}

var (
	codeFence    = regexp.MustCompile("(?m)^[ \t]*(```|~~~).*$")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	image        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	link         = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	heading      = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+`)
	blockquote   = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	rule         = regexp.MustCompile(`(?m)^[ \t]*([-*_])([ \t]*([-*_])){2,}[ \t]*$`)
	bullet       = regexp.MustCompile(`(?m)^([ \t]*)[-*+][ \t]+(\[[ xX]\][ \t]+)?`)
	numbered     = regexp.MustCompile(`(?m)^([ \t]*)\d+[.)][ \t]+`)
	emphasis     = regexp.MustCompile(`(\*\*|__|~~)(.+?)(\*\*|__|~~)`)
	singleStar   = regexp.MustCompile(`(^|[^\w*])\*([^*\n]+)\*`)
	singleUnder  = regexp.MustCompile(`(^|\W)_([^_\n]+)_(\W|$)`)
	tableDivider = regexp.MustCompile(`(?m)^[ \t]*\|?[ \t]*:?-{3,}:?[ \t]*(\|[ \t]*:?-{3,}:?[ \t]*)*\|?[ \t]*$`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
)

func stripMarkdown(content string) string {
	content = codeFence.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = image.ReplaceAllString(content, "$1")
	content = link.ReplaceAllString(content, "$1")
	content = heading.ReplaceAllString(content, "")
	content = blockquote.ReplaceAllString(content, "")
	content = rule.ReplaceAllString(content, "")
	content = tableDivider.ReplaceAllString(content, "")
	content = bullet.ReplaceAllString(content, "$1")
	content = numbered.ReplaceAllString(content, "$1")
	content = emphasis.ReplaceAllString(content, "$2")
	content = singleStar.ReplaceAllString(content, "$1$2")
	content = singleUnder.ReplaceAllString(content, "$1$2$3")
	content = blankRuns.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
