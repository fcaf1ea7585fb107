package driven

import (
	"context"

	"github.com/custodia-labs/ragdex/internal/core/domain"
)

// TextExtractor extracts per-page text from raw PDF bytes.
//
// Pages are returned in document order with 1-based page numbers.
// Pages that contain no text are omitted. Malformed input fails with
// an error wrapping domain.ErrExtraction.
type TextExtractor interface {
	Extract(ctx context.Context, pdf []byte) ([]domain.Page, error)
}

// CommandRunner executes an external command and returns its stdout.
// It exists so extractors that shell out to system tools can be tested
// without the tool installed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
