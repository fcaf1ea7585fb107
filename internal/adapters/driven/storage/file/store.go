// Package file provides the on-disk persistence coordinator.
//
// The engine state is stored as three correlated artifacts under one
// storage root: documents.json (the registry), chunks.json (chunk
// metadata) and vectors.bin (the embedding matrix). They are always
// written together: each artifact goes to a temporary file first and
// all three are promoted by rename only after every write succeeded,
// so a crash mid-save can never leave metadata and vectors at
// mismatched lengths.
package file

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/ragdex/internal/core/domain"
	"github.com/custodia-labs/ragdex/internal/core/ports/driven"
	"github.com/custodia-labs/ragdex/internal/index"
	"github.com/custodia-labs/ragdex/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.EngineStore = (*Store)(nil)

// Artifact filenames under the storage root.
const (
	documentsFile = "documents.json"
	chunksFile    = "chunks.json"
	vectorsFile   = "vectors.bin"
)

// vectorsMagic identifies the binary vector artifact.
var vectorsMagic = [4]byte{'R', 'D', 'X', '1'}

// Store persists the engine state triad under a storage root.
type Store struct {
	dir string
	dim int
}

// NewStore creates a store rooted at dir for vectors of the given
// dimension. The dimension is used when initialising an empty index on
// first run; a persisted index carries its own dimension.
func NewStore(dir string, dim int) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".ragdex", "storage")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("%w: vector dimension %d must be positive", domain.ErrInvalidConfiguration, dim)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &Store{dir: dir, dim: dim}, nil
}

// Dir returns the storage root.
func (s *Store) Dir() string { return s.dir }

// Load reads the three artifacts as one logical unit. Missing
// artifacts mean a first run and yield an empty state. A length
// mismatch between chunk metadata and vectors (possible only with
// storage produced by other tools or partial manual edits) is
// tolerated by truncating the longer side, with a warning.
func (s *Store) Load(_ context.Context) (*driven.EngineState, error) {
	documents, err := s.loadDocuments()
	if err != nil {
		return nil, err
	}

	chunks, err := s.loadChunks()
	if err != nil {
		return nil, err
	}

	dim, vectors, err := s.loadVectors()
	if err != nil {
		return nil, err
	}

	if len(chunks) != len(vectors) {
		logger.Warn("Storage mismatch: %d chunks vs %d vectors; truncating to %d",
			len(chunks), len(vectors), min(len(chunks), len(vectors)))
		n := min(len(chunks), len(vectors))
		chunks = chunks[:n]
		vectors = vectors[:n]
	}

	records := make([]index.Record, len(chunks))
	for i := range chunks {
		records[i] = index.Record{Chunk: chunks[i], Vector: vectors[i]}
	}
	idx, err := index.FromRecords(dim, records)
	if err != nil {
		return nil, fmt.Errorf("rebuilding index from storage: %w", err)
	}

	logger.Debug("Loaded %d documents and %d chunks from %s", len(documents), idx.Len(), s.dir)

	return &driven.EngineState{Documents: documents, Index: idx}, nil
}

// Save writes all three artifacts atomically: temporary files first,
// then rename-promotion only after every write succeeded.
func (s *Store) Save(_ context.Context, state *driven.EngineState) error {
	docsJSON, err := json.MarshalIndent(state.Documents, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding documents: %w", err)
	}

	records := state.Index.Records()
	chunks := make([]domain.Chunk, len(records))
	for i, r := range records {
		chunks[i] = r.Chunk
	}
	chunksJSON, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding chunks: %w", err)
	}

	vectorsBin, err := encodeVectors(state.Index.Dimension(), records)
	if err != nil {
		return fmt.Errorf("encoding vectors: %w", err)
	}

	artifacts := []struct {
		name string
		data []byte
	}{
		{documentsFile, docsJSON},
		{chunksFile, chunksJSON},
		{vectorsFile, vectorsBin},
	}

	// Stage every artifact before promoting any of them.
	tmpPaths := make([]string, 0, len(artifacts))
	cleanup := func() {
		for _, p := range tmpPaths {
			os.Remove(p)
		}
	}
	for _, a := range artifacts {
		tmp := filepath.Join(s.dir, a.name+".tmp")
		if err := writeAndSync(tmp, a.data); err != nil {
			cleanup()
			return fmt.Errorf("staging %s: %w", a.name, err)
		}
		tmpPaths = append(tmpPaths, tmp)
	}
	for i, a := range artifacts {
		if err := os.Rename(tmpPaths[i], filepath.Join(s.dir, a.name)); err != nil {
			cleanup()
			return fmt.Errorf("promoting %s: %w", a.name, err)
		}
	}

	logger.Debug("Persisted %d documents and %d chunks to %s", len(state.Documents), len(records), s.dir)
	return nil
}

func (s *Store) loadDocuments() (map[string]domain.Document, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, documentsFile))
	if os.IsNotExist(err) {
		return make(map[string]domain.Document), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", documentsFile, err)
	}
	var documents map[string]domain.Document
	if err := json.Unmarshal(data, &documents); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", documentsFile, err)
	}
	if documents == nil {
		documents = make(map[string]domain.Document)
	}
	return documents, nil
}

func (s *Store) loadChunks() ([]domain.Chunk, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, chunksFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", chunksFile, err)
	}
	var chunks []domain.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", chunksFile, err)
	}
	return chunks, nil
}

// loadVectors returns the persisted dimension and vector rows, or the
// configured dimension and no rows when the artifact is absent.
func (s *Store) loadVectors() (int, [][]float32, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, vectorsFile))
	if os.IsNotExist(err) {
		return s.dim, nil, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("reading %s: %w", vectorsFile, err)
	}
	return decodeVectors(data)
}

// encodeVectors serialises the embedding matrix: a 4-byte magic, the
// dimension and row count as uint32, then row-major little-endian
// float32 values.
func encodeVectors(dim int, records []index.Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(vectorsMagic[:])
	if err := binary.Write(&buf, binary.LittleEndian, uint32(dim)); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(records))); err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := binary.Write(&buf, binary.LittleEndian, r.Vector); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeVectors(data []byte) (int, [][]float32, error) {
	r := bytes.NewReader(data)

	var magic [4]byte
	if _, err := r.Read(magic[:]); err != nil || magic != vectorsMagic {
		return 0, nil, fmt.Errorf("%s is not a ragdex vector artifact", vectorsFile)
	}
	var dim, count uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return 0, nil, fmt.Errorf("reading vector dimension: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return 0, nil, fmt.Errorf("reading vector count: %w", err)
	}

	vectors := make([][]float32, count)
	for i := range vectors {
		row := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return 0, nil, fmt.Errorf("reading vector row %d: %w", i, err)
		}
		vectors[i] = row
	}
	return int(dim), vectors, nil
}

func writeAndSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
