// Package html extracts readable text from HTML help pages.
package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles HTML documents.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "html"
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// SupportedExtensions returns the file extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Extract strips markup and returns one line per block element. The page
// title leads the text unless the body already starts with it.
func (e *Extractor) Extract(_ context.Context, file domain.UploadedFile) (string, error) {
	raw := strings.ToValidUTF8(string(file.Content), "\uFFFD")
	title := pageTitle(raw)
	body := stripHTML(raw)

	if title != "" && !strings.HasPrefix(body, title) {
		if body == "" {
			return title, nil
		}
		return title + "\n" + body, nil
	}
	return body, nil
}

var (
	titleTag      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	droppedBlocks = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
		regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`),
		regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`),
		regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`),
		regexp.MustCompile(`(?s)<!--.*?-->`),
	}
	blockBoundary = regexp.MustCompile(`(?i)</?(p|div|h[1-6]|li|tr|td|th|blockquote|pre|table|section|article|header|footer|dt|dd)\b[^>]*>|<(br|hr)\s*/?>`)
	anyTag        = regexp.MustCompile(`<[^>]+>`)
	spaceRun      = regexp.MustCompile(`[ \t\r\f\v]+`)
)

func pageTitle(raw string) string {
	m := titleTag.FindStringSubmatch(raw)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(spaceRun.ReplaceAllString(html.UnescapeString(m[1]), " "))
}

func stripHTML(content string) string {
	for _, re := range droppedBlocks {
		content = re.ReplaceAllString(content, "")
	}
	content = blockBoundary.ReplaceAllString(content, "\n")
	content = anyTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = strings.ReplaceAll(content, "\u00a0", " ")

	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
