// Package index provides an exact nearest-neighbour vector index over
// chunk records. Each record owns its text, source attribution and
// embedding vector in a single struct, so chunk metadata and vectors
// can never drift apart.
package index

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/ragdex/internal/core/domain"
)

// Record bundles one chunk with its embedding vector. Records are
// immutable once appended; removal replaces the whole arena.
type Record struct {
	Chunk  domain.Chunk
	Vector []float32
}

// Hit is a single search result.
type Hit struct {
	// Position is the record's index in the arena at search time.
	Position int

	// Distance is the squared Euclidean distance to the query.
	Distance float64

	// Record is the matched chunk record.
	Record Record
}

// Flat is a flat (linear scan) vector index of fixed dimension.
//
// Flat performs no internal locking: the engine owns the index and
// serialises access, staging mutations on a Clone and swapping it in
// only after persistence succeeds.
type Flat struct {
	dim     int
	records []Record
}

// New creates an empty index for vectors of the given dimension.
func New(dim int) *Flat {
	return &Flat{dim: dim}
}

// FromRecords builds an index from already-validated records, as loaded
// from disk.
func FromRecords(dim int, records []Record) (*Flat, error) {
	f := New(dim)
	if _, err := f.Append(records); err != nil {
		return nil, err
	}
	return f, nil
}

// Append adds records in input order. It is all-or-nothing: every
// vector is validated against the index dimension before any record is
// appended, so a failed call leaves the index untouched.
func (f *Flat) Append(records []Record) (int, error) {
	for i, r := range records {
		if len(r.Vector) != f.dim {
			return 0, fmt.Errorf("%w: record %d has dimension %d, index expects %d",
				domain.ErrDimensionMismatch, i, len(r.Vector), f.dim)
		}
	}
	f.records = append(f.records, records...)
	return len(records), nil
}

// Search returns the k records nearest to query by squared Euclidean
// distance, ascending, with ties broken by ascending position. k is
// clamped to the index size; an empty index yields an empty result.
func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			domain.ErrDimensionMismatch, len(query), f.dim)
	}
	if k <= 0 || len(f.records) == 0 {
		return []Hit{}, nil
	}
	if k > len(f.records) {
		k = len(f.records)
	}

	hits := make([]Hit, len(f.records))
	for i, r := range f.records {
		hits[i] = Hit{
			Position: i,
			Distance: squaredL2(query, r.Vector),
			Record:   r,
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Position < hits[j].Position
	})

	return hits[:k:k], nil
}

// RemoveWhere rebuilds the arena keeping only records for which keep
// returns true, preserving relative order. The survivor arena is built
// in full before being swapped in, so a caller observing the index
// never sees a partial rebuild. Returns the number of records removed.
func (f *Flat) RemoveWhere(keep func(domain.Chunk) bool) int {
	survivors := make([]Record, 0, len(f.records))
	for _, r := range f.records {
		if keep(r.Chunk) {
			survivors = append(survivors, r)
		}
	}
	removed := len(f.records) - len(survivors)
	if removed > 0 {
		f.records = survivors
	}
	return removed
}

// Clone returns a shallow copy sharing record contents. Because records
// are immutable, mutating the clone (append, remove) never affects the
// original.
func (f *Flat) Clone() *Flat {
	records := make([]Record, len(f.records))
	copy(records, f.records)
	return &Flat{dim: f.dim, records: records}
}

// Len returns the number of indexed records.
func (f *Flat) Len() int { return len(f.records) }

// Dimension returns the configured vector dimension.
func (f *Flat) Dimension() int { return f.dim }

// Records exposes the arena for persistence. Callers must not mutate
// the returned slice or its contents.
func (f *Flat) Records() []Record { return f.records }

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
