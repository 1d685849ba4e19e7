package domain

// Retrieval bounds applied to tool arguments.
const (
	DefaultTopK          = 5
	MinTopK              = 1
	MaxTopK              = 20
	DefaultContextChunks = 2
	MaxContextChunks     = 5
)

// SearchRequest asks for the chunks most similar to a query
// within one tenant namespace.
type SearchRequest struct {
	// TenantSlug is the namespace to search.
	TenantSlug string

	// Query is the natural-language search text.
	Query string

	// TopK is the maximum number of results. Nil means DefaultTopK.
	TopK *int

	// IncludeMetadata projects source metadata onto results. Nil means true.
	IncludeMetadata *bool
}

// ResultMetadata is the whitelisted metadata exposed on a retrieval result.
type ResultMetadata struct {
	FileName    string `json:"fileName,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
	ChunkIndex  int    `json:"chunkIndex"`
	TotalChunks int    `json:"totalChunks,omitempty"`
	UploadedAt  string `json:"uploadedAt,omitempty"`
}

// RetrievalResult is one ranked search hit.
type RetrievalResult struct {
	// Rank is the 1-based position in score order.
	Rank int `json:"rank"`

	// Score is the similarity reported by the store.
	Score float64 `json:"score"`

	// Content is the stored chunk text.
	Content string `json:"content"`

	// Metadata is present only when requested and stored.
	Metadata *ResultMetadata `json:"metadata,omitempty"`
}

// SearchOutcome is the structured result handed back to the reply agent.
// Failures are reported in-band through Success and Error.
type SearchOutcome struct {
	Success          bool              `json:"success"`
	Message          string            `json:"message,omitempty"`
	Results          []RetrievalResult `json:"results,omitempty"`
	Query            string            `json:"query"`
	OrganizationSlug string            `json:"organizationSlug"`
	TotalResults     int               `json:"totalResults"`
	Error            string            `json:"error,omitempty"`
}

// ExpandRequest asks for a chunk and its neighbours from one file.
type ExpandRequest struct {
	// TenantSlug is the namespace to read from.
	TenantSlug string

	// FileName is the file the target chunk belongs to.
	FileName string

	// ChunkIndex is the 0-based target chunk.
	ChunkIndex int

	// ContextChunks is the neighbour radius. Nil means DefaultContextChunks.
	ContextChunks *int
}

// ExpandedChunk is one chunk in an expansion window.
type ExpandedChunk struct {
	ChunkIndex    int             `json:"chunkIndex"`
	Content       string          `json:"content"`
	IsTargetChunk bool            `json:"isTargetChunk"`
	Metadata      *ResultMetadata `json:"metadata,omitempty"`
}

// ExpandOutcome is the structured result of a context expansion.
type ExpandOutcome struct {
	Success          bool            `json:"success"`
	TargetChunk      *ExpandedChunk  `json:"targetChunk"`
	AllChunks        []ExpandedChunk `json:"allChunks"`
	FullContent      string          `json:"fullContent"`
	FileName         string          `json:"fileName"`
	OrganizationSlug string          `json:"organizationSlug"`
	ChunkIndex       int             `json:"chunkIndex"`
	ChunksRetrieved  int             `json:"chunksRetrieved"`
	Error            string          `json:"error,omitempty"`
}

// ClampTopK applies the default and [MinTopK, MaxTopK] bounds.
func ClampTopK(topK *int) int {
	if topK == nil {
		return DefaultTopK
	}
	return clamp(*topK, MinTopK, MaxTopK)
}

// ClampContextChunks applies the default and [0, MaxContextChunks] bounds.
func ClampContextChunks(c *int) int {
	if c == nil {
		return DefaultContextChunks
	}
	return clamp(*c, 0, MaxContextChunks)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
