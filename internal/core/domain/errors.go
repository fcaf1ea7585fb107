package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors and are matched
// with errors.Is at the adapter boundaries.
var (
	// ErrNotFound indicates a requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed input such as a non-PDF
	// filename or an empty question.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyDocument indicates a PDF yielded no extractable text.
	ErrEmptyDocument = errors.New("no text could be extracted from document")

	// ErrDimensionMismatch indicates a vector's length does not match
	// the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidConfiguration indicates chunking parameters that would
	// never terminate (overlap >= window) or a non-positive window.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrExtraction indicates PDF text extraction failed.
	ErrExtraction = errors.New("text extraction failed")

	// ErrEmbedding indicates the embedding service failed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration indicates the answer-generation service failed.
	// The engine degrades to an error-message answer rather than
	// propagating this to callers of Ask.
	ErrGeneration = errors.New("answer generation failed")

	// ErrPersistence indicates the on-disk state could not be written.
	// Mutations reporting this error are not durable and must not be
	// reflected in live engine state.
	ErrPersistence = errors.New("persistence failed")

	// ErrEngineNotReady indicates the engine is still initialising or
	// failed to initialise. Callers should retry once the engine
	// reports Ready.
	ErrEngineNotReady = errors.New("engine not ready")
)
