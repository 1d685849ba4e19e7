package driven

// Chunker splits extracted text into bounded segments.
type Chunker interface {
	// Name identifies the chunker in logs.
	Name() string

	// Split returns the segments and whether the input was cut short.
	Split(text string) SplitResult
}

// SplitResult is the output of a Chunker.
type SplitResult struct {
	// Chunks are the produced segments in document order.
	Chunks []string

	// Truncated is true when non-blank text remained after the chunk cap.
	Truncated bool
}
