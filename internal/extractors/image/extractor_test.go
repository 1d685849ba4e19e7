package image

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

func TestExtract_Placeholder(t *testing.T) {
	tests := []struct {
		name string
		file domain.UploadedFile
		want string
	}{
		{
			"uses mime type",
			domain.UploadedFile{Name: "logo.png", MIMEType: "image/png"},
			`Image file "logo.png" (type: image/png) uploaded to the knowledge base.`,
		},
		{
			"falls back to extension",
			domain.UploadedFile{Name: "Photo.JPG"},
			`Image file "Photo.JPG" (type: jpg) uploaded to the knowledge base.`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New().Extract(context.Background(), tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSupportedTypes(t *testing.T) {
	e := New()
	assert.Equal(t, []string{"image/*"}, e.SupportedMIMETypes())
	assert.Contains(t, e.SupportedExtensions(), ".jpeg")
}
