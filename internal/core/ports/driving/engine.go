package driving

import (
	"context"

	"github.com/custodia-labs/ragdex/internal/core/domain"
)

// Engine is the document question-answering core.
//
// Upload, Delete and the replace path of Upload are mutually exclusive
// mutations; Ask, Documents and Stats are read-only and may run
// concurrently with each other but never interleave with a mutation.
type Engine interface {
	// Upload ingests a PDF. When the content hash matches an existing
	// document the action decides the outcome; see domain.UploadAction.
	// Per-file processing failures are reported inside the result with
	// Status == UploadError so batch callers can continue.
	Upload(ctx context.Context, filename string, data []byte, action domain.UploadAction) (domain.UploadResult, error)

	// Ask answers a question from the indexed corpus. With no documents
	// uploaded it returns a fixed answer without consulting the
	// embedding or generation services.
	Ask(ctx context.Context, question string, topK int) (domain.Answer, error)

	// Delete removes a document, its chunks and its vectors.
	// Returns domain.ErrNotFound for an unknown doc_id.
	Delete(ctx context.Context, docID string) (string, error)

	// Documents lists registered documents ordered by upload time.
	Documents(ctx context.Context) []domain.Document

	// Stats reports corpus and index statistics.
	Stats(ctx context.Context) domain.Stats
}
