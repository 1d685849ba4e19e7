// Package chunker splits extracted document text into bounded,
// boundary-respecting segments for vector storage.
package chunker

import (
	"strings"

	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// DefaultMaxChunkChars is the default window size in characters.
const DefaultMaxChunkChars = 2000

// DefaultMaxChunks is the default cap on chunks per document.
const DefaultMaxChunks = 50

// boundaryRatio is the fraction of the window a boundary must lie beyond
// before it is used as the cut point.
const boundaryRatio = 0.6

// Chunker splits text into trimmed, non-empty segments.
// It is stateless after construction and safe for concurrent use.
type Chunker struct {
	maxChunkChars int
	maxChunks     int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxChunkChars sets the window size in characters.
func WithMaxChunkChars(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxChunkChars = n
		}
	}
}

// WithMaxChunks sets the maximum number of chunks per document.
func WithMaxChunks(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxChunks = n
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxChunkChars: DefaultMaxChunkChars,
		maxChunks:     DefaultMaxChunks,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the chunker name.
func (c *Chunker) Name() string {
	return "chunker"
}

// MaxChunkChars returns the configured window size.
func (c *Chunker) MaxChunkChars() int {
	return c.maxChunkChars
}

// MaxChunks returns the configured chunk cap.
func (c *Chunker) MaxChunks() int {
	return c.maxChunks
}

// Result is the output of Split.
type Result = driven.SplitResult

// Chunk splits text and returns only the segments.
func (c *Chunker) Chunk(text string) []string {
	return c.Split(text).Chunks
}

// Split walks text in windows of up to MaxChunkChars characters.
// A window that does not reach the end is cut just after its last '.' or
// '\n' when that boundary lies past 60% of the window; otherwise it is cut
// at the window edge. Chunks are trimmed and empty ones dropped.
func (c *Chunker) Split(text string) Result {
	runes := []rune(text)
	n := len(runes)
	threshold := float64(c.maxChunkChars) * boundaryRatio

	var chunks []string
	start := 0
	for start < n && len(chunks) < c.maxChunks {
		end := start + c.maxChunkChars
		if end > n {
			end = n
		}

		if end < n {
			if b := lastBoundary(runes[start:end]); b >= 0 && float64(b) > threshold {
				end = start + b + 1
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		start = end
	}

	return Result{
		Chunks:    chunks,
		Truncated: start < n && strings.TrimSpace(string(runes[start:])) != "",
	}
}

// lastBoundary returns the index of the later of the last '.' and the
// last '\n' in window, or -1.
func lastBoundary(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' || window[i] == '\n' {
			return i
		}
	}
	return -1
}
