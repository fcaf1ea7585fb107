package driven

import (
	"context"

	"github.com/custodia-labs/ragdex/internal/core/domain"
	"github.com/custodia-labs/ragdex/internal/index"
)

// EngineState is the triad of correlated stores the engine persists as
// one logical unit: the document registry and the chunk arena (chunk
// metadata plus vectors, positionally aligned by construction).
type EngineState struct {
	// Documents is the registry, keyed by doc_id.
	Documents map[string]domain.Document

	// Index is the chunk arena.
	Index *index.Flat
}

// EngineStore loads and saves the engine state.
//
// Save must be atomic with respect to crashes: a failure part way
// through a save must never leave chunk metadata and vectors at
// mismatched lengths when next loaded. Load on a first run returns an
// empty state at the configured dimension.
type EngineStore interface {
	Load(ctx context.Context) (*EngineState, error)
	Save(ctx context.Context, state *EngineState) error
}
