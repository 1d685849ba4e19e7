package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// createTestDOCX creates a minimal DOCX file in memory.
func createTestDOCX(documentXML string) []byte {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, _ := w.Create("[Content_Types].xml")
	contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))

	if documentXML != "" {
		doc, _ := w.Create("word/document.xml")
		doc.Write([]byte(documentXML))
	}

	w.Close()
	return buf.Bytes()
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func TestNew(t *testing.T) {
	e := New()
	require.NotNil(t, e)
	assert.Equal(t, "docx", e.Name())
	assert.Equal(t, []string{".docx"}, e.SupportedExtensions())
	assert.Len(t, e.SupportedMIMETypes(), 1)
}

func TestExtract_Paragraphs(t *testing.T) {
	xmlDoc := `<?xml version="1.0" encoding="UTF-8"?>
<w:document ` + wordNS + `><w:body>
<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Shipping</w:t></w:r><w:r><w:t xml:space="preserve"> policy</w:t></w:r></w:p>
<w:p><w:r><w:t>Orders ship in 2 days.</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>Line one</w:t><w:br/><w:t>Line two</w:t></w:r></w:p>
</w:body></w:document>`

	text, err := New().Extract(context.Background(), domain.UploadedFile{Name: "policy.docx", Content: createTestDOCX(xmlDoc)})

	require.NoError(t, err)
	assert.Equal(t, "Shipping policy\n\nOrders ship in 2 days.\n\nLine one\nLine two", text)
}

func TestExtract_Tables(t *testing.T) {
	xmlDoc := `<w:document ` + wordNS + `><w:body>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Plan</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Price</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
</w:body></w:document>`

	text, err := New().Extract(context.Background(), domain.UploadedFile{Name: "t.docx", Content: createTestDOCX(xmlDoc)})

	require.NoError(t, err)
	assert.Equal(t, "Plan\n\nPrice", text)
}

func TestExtract_NotZip(t *testing.T) {
	_, err := New().Extract(context.Background(), domain.UploadedFile{Name: "bad.docx", Content: []byte("nope")})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExtractionFailed))
	assert.Contains(t, err.Error(), "bad.docx")
}

func TestExtract_MissingDocumentPart(t *testing.T) {
	_, err := New().Extract(context.Background(), domain.UploadedFile{Name: "empty.docx", Content: createTestDOCX("")})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExtractionFailed))
}

func TestExtract_MalformedXML(t *testing.T) {
	_, err := New().Extract(context.Background(), domain.UploadedFile{
		Name:    "broken.docx",
		Content: createTestDOCX(`<w:document ` + wordNS + `><w:body><w:p>`),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExtractionFailed))
}
