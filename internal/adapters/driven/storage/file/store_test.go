package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdex/internal/core/domain"
	"github.com/custodia-labs/ragdex/internal/core/ports/driven"
	"github.com/custodia-labs/ragdex/internal/index"
)

func testState(t *testing.T) *driven.EngineState {
	t.Helper()
	idx := index.New(2)
	_, err := idx.Append([]index.Record{
		{Chunk: domain.Chunk{Text: "first chunk", Source: "a.pdf", Page: 1}, Vector: []float32{0.1, 0.2}},
		{Chunk: domain.Chunk{Text: "second chunk", Source: "a.pdf", Page: 2}, Vector: []float32{0.3, 0.4}},
	})
	require.NoError(t, err)

	return &driven.EngineState{
		Documents: map[string]domain.Document{
			"doc-1": {
				ID:         "doc-1",
				Filename:   "a.pdf",
				Hash:       domain.Fingerprint([]byte("a")),
				UploadedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
				NumChunks:  2,
				NumPages:   2,
			},
		},
		Index: idx,
	}
}

func TestLoad_FirstRunYieldsEmptyState(t *testing.T) {
	store, err := NewStore(t.TempDir(), 384)
	require.NoError(t, err)

	state, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.Empty(t, state.Documents)
	assert.NotNil(t, state.Documents)
	assert.Zero(t, state.Index.Len())
	assert.Equal(t, 384, state.Index.Dimension())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 2)
	require.NoError(t, err)
	saved := testState(t)

	require.NoError(t, store.Save(context.Background(), saved))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, saved.Documents, loaded.Documents)
	require.Equal(t, saved.Index.Len(), loaded.Index.Len())
	assert.Equal(t, saved.Index.Dimension(), loaded.Index.Dimension())
	for i, want := range saved.Index.Records() {
		got := loaded.Index.Records()[i]
		assert.Equal(t, want.Chunk, got.Chunk)
		assert.Equal(t, want.Vector, got.Vector)
	}
}

func TestSave_LeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 2)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), testState(t)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"documents.json", "chunks.json", "vectors.bin"}, names)
}

func TestSave_OverwritesPreviousState(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 2)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), testState(t)))

	empty := &driven.EngineState{
		Documents: make(map[string]domain.Document),
		Index:     index.New(2),
	}
	require.NoError(t, store.Save(context.Background(), empty))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded.Documents)
	assert.Zero(t, loaded.Index.Len())
}

func TestLoad_TruncatesMismatchedArtifacts(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 2)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), testState(t)))

	// Simulate foreign tooling shortening the metadata artifact.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chunks.json"),
		[]byte(`[{"text":"first chunk","source":"a.pdf","page":1}]`), 0600))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Index.Len(), "longer side is truncated to the shorter")
	assert.Equal(t, "first chunk", loaded.Index.Records()[0].Chunk.Text)
}

func TestLoad_RejectsForeignVectorArtifact(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 2)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "vectors.bin"), []byte("not-a-vector-file"), 0600))

	_, err = store.Load(context.Background())
	assert.Error(t, err)
}

func TestNewStore_RejectsBadDimension(t *testing.T) {
	_, err := NewStore(t.TempDir(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}
