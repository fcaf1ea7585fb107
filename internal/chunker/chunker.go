// Package chunker provides word-windowed overlapping text segmentation.
package chunker

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/ragdex/internal/core/domain"
)

// DefaultWindowSize is the default number of words per chunk.
const DefaultWindowSize = 200

// DefaultOverlap is the default number of words shared between
// consecutive chunks.
const DefaultOverlap = 50

// Chunker splits page text into overlapping word windows.
type Chunker struct {
	window  int
	overlap int
}

// New creates a chunker. The window must be positive and the overlap
// must satisfy 0 <= overlap < window; anything else would make the
// window step non-positive and loop forever, so it is rejected up front.
func New(window, overlap int) (*Chunker, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: window size %d must be positive", domain.ErrInvalidConfiguration, window)
	}
	if overlap < 0 || overlap >= window {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", domain.ErrInvalidConfiguration, overlap, window)
	}
	return &Chunker{window: window, overlap: overlap}, nil
}

// Split segments text into chunks of up to window words, each window
// advancing by window-overlap words. Text with at most window words
// yields a single chunk. Chunks that are empty after trimming are
// dropped.
func (c *Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.window - c.overlap
	chunks := make([]string, 0, (len(words)+step-1)/step)

	for start := 0; start < len(words); start += step {
		end := start + c.window
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[start:end], " ")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(words) {
			break
		}
	}

	return chunks
}

// SplitPage chunks one extracted page, attributing every chunk to the
// given source filename and page number.
func (c *Chunker) SplitPage(page domain.Page, source string) []domain.Chunk {
	parts := c.Split(page.Text)
	chunks := make([]domain.Chunk, 0, len(parts))
	for _, text := range parts {
		chunks = append(chunks, domain.Chunk{
			Text:   text,
			Source: source,
			Page:   page.Number,
		})
	}
	return chunks
}
