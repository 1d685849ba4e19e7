package domain

import (
	"strconv"
	"time"
)

// Chunk is the atomic retrievable unit: one bounded text segment
// of one uploaded file, scoped to a tenant.
type Chunk struct {
	// ID is ChunkID(slug, filename, index). Stable across re-ingestion.
	ID string

	// Content is the trimmed, non-empty chunk text.
	Content string

	// Metadata describes where the chunk came from.
	Metadata ChunkMetadata
}

// ChunkMetadata is the typed metadata attached to every stored chunk.
// JSON keys match the payload already present in deployed indexes.
type ChunkMetadata struct {
	Slug        string    `json:"slug"`
	FileName    string    `json:"fileName"`
	MIMEType    string    `json:"mimeType"`
	ChunkIndex  int       `json:"chunkIndex"`
	TotalChunks int       `json:"totalChunks"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// ChunkID builds the deterministic chunk identifier "{slug}:{filename}:{index}".
func ChunkID(slug, filename string, index int) string {
	return slug + ":" + filename + ":" + strconv.Itoa(index)
}

// UploadedFile is a file received for ingestion.
// It only lives for the duration of one ingestion call.
type UploadedFile struct {
	// Name is the original filename including extension.
	Name string

	// MIMEType is the declared content type, possibly empty.
	MIMEType string

	// Content is the raw file bytes.
	Content []byte
}

// Size returns the byte length of the file.
func (f UploadedFile) Size() int {
	return len(f.Content)
}

// IngestResult summarises one ingestion call.
type IngestResult struct {
	// Upserted is the number of chunk records written.
	Upserted int `json:"upserted"`

	// FilesProcessed is the number of files received.
	FilesProcessed int `json:"filesProcessed"`

	// Errors holds one message per file that could not be indexed.
	Errors []string `json:"errors,omitempty"`

	// Truncated lists files whose tail was dropped at the chunk cap.
	Truncated []string `json:"truncated,omitempty"`
}
