// Package docx extracts raw text from Office Open XML word-processing documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "docx"
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// SupportedExtensions returns the file extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".docx"}
}

// Extract returns paragraph text separated by blank lines.
// Formatting, images and fields are discarded.
func (e *Extractor) Extract(_ context.Context, file domain.UploadedFile) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(file.Content), int64(len(file.Content)))
	if err != nil {
		return "", fmt.Errorf("%w: failed to open DOCX %s: %v", domain.ErrExtractionFailed, file.Name, err)
	}

	for _, f := range reader.File {
		if f.Name != documentPart {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("%w: failed to read DOCX %s: %v", domain.ErrExtractionFailed, file.Name, err)
		}
		defer rc.Close()

		text, err := parseDocumentXML(rc)
		if err != nil {
			return "", fmt.Errorf("%w: failed to parse DOCX %s: %v", domain.ErrExtractionFailed, file.Name, err)
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: DOCX %s has no %s", domain.ErrExtractionFailed, file.Name, documentPart)
}

// parseDocumentXML walks word/document.xml and collects run text.
// Paragraphs nested in tables are included.
func parseDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		out       strings.Builder
		para      strings.Builder
		inText    bool
		paragraph int
	)

	flush := func() {
		p := strings.TrimSpace(para.String())
		para.Reset()
		if p == "" {
			return
		}
		if paragraph > 0 {
			out.WriteString("\n\n")
		}
		out.WriteString(p)
		paragraph++
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteString("\t")
			case "br", "cr":
				para.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	flush()

	return out.String(), nil
}
