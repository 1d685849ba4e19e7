package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrBadRequest", ErrBadRequest},
		{"ErrConfiguration", ErrConfiguration},
		{"ErrUnsupportedFormat", ErrUnsupportedFormat},
		{"ErrFileTooLarge", ErrFileTooLarge},
		{"ErrExtractionFailed", ErrExtractionFailed},
		{"ErrIngestionFailed", ErrIngestionFailed},
		{"ErrStoreMisconfigured", ErrStoreMisconfigured},
		{"ErrOrganizationNotFound", ErrOrganizationNotFound},
		{"ErrSenderNotAccepted", ErrSenderNotAccepted},
		{"ErrInvalidSignature", ErrInvalidSignature},
		{"ErrGenerationFailed", ErrGenerationFailed},
		{"ErrDeliveryFailed", ErrDeliveryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Wrapping(t *testing.T) {
	err := fmt.Errorf("%w: report.pdf: zip: not a valid zip file", ErrExtractionFailed)
	assert.True(t, errors.Is(err, ErrExtractionFailed))
	assert.False(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestIngestError(t *testing.T) {
	err := &IngestError{Details: []string{"a.bin: unsupported", "b.txt: No extractable text found in b.txt."}}

	assert.True(t, errors.Is(err, ErrIngestionFailed))
	assert.Contains(t, err.Error(), "No vectors to upsert")
	assert.Contains(t, err.Error(), "a.bin: unsupported")

	var ie *IngestError
	wrapped := fmt.Errorf("ingest acme: %w", err)
	assert.True(t, errors.As(wrapped, &ie))
	assert.Len(t, ie.Details, 2)
}

func TestIngestError_NoDetails(t *testing.T) {
	err := &IngestError{}
	assert.Equal(t, "No vectors to upsert. All files failed to process.", err.Error())
}
