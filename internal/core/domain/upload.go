package domain

import "fmt"

// UploadAction tells the engine how to proceed when the uploaded
// content matches an already-indexed document.
type UploadAction string

const (
	// ActionAuto reports a duplicate back to the caller without mutating
	// anything, carrying the follow-up options.
	ActionAuto UploadAction = "auto"

	// ActionUseExisting keeps the existing document and its embeddings.
	ActionUseExisting UploadAction = "use_existing"

	// ActionReplace removes the existing document and re-ingests the
	// upload from scratch.
	ActionReplace UploadAction = "replace"

	// ActionCancel abandons the upload.
	ActionCancel UploadAction = "cancel"
)

// ParseUploadAction validates a caller-supplied action string.
func ParseUploadAction(s string) (UploadAction, error) {
	switch UploadAction(s) {
	case ActionAuto, ActionUseExisting, ActionReplace, ActionCancel:
		return UploadAction(s), nil
	case "":
		return ActionAuto, nil
	}
	return "", fmt.Errorf("%w: unknown upload action %q", ErrInvalidInput, s)
}

// UploadStatus tags the outcome variant of an upload.
type UploadStatus string

const (
	// UploadSuccess means the document was ingested (or reused).
	UploadSuccess UploadStatus = "success"

	// UploadDuplicate means identical content is already indexed and the
	// caller must choose a follow-up action. No mutation occurred.
	UploadDuplicate UploadStatus = "duplicate"

	// UploadCancelled means the caller abandoned a duplicate upload.
	UploadCancelled UploadStatus = "cancelled"

	// UploadError means the file could not be processed.
	UploadError UploadStatus = "error"
)

// UploadResult is the tagged outcome of a single file upload.
// Which fields are meaningful depends on Status.
type UploadResult struct {
	Status   UploadStatus `json:"status"`
	Filename string       `json:"filename"`
	Message  string       `json:"message"`

	// Chunks and Pages are set on success.
	Chunks int `json:"chunks,omitempty"`
	Pages  int `json:"pages,omitempty"`

	// Reused is true when an existing document's embeddings were kept.
	Reused bool `json:"reused,omitempty"`

	// ExistingFilename, Hash and Options are set on duplicate.
	ExistingFilename string         `json:"existing_filename,omitempty"`
	Hash             string         `json:"hash,omitempty"`
	Options          []UploadAction `json:"options,omitempty"`
}

// Source cites one (file, page) pair an answer drew from.
type Source struct {
	File string `json:"file"`
	Page int    `json:"page"`
}

// Answer is the result of a question against the indexed corpus.
type Answer struct {
	// Answer is the generated (or fixed fallback) answer text.
	Answer string `json:"answer"`

	// Sources are the unique (file, page) pairs of the chunks used,
	// in first-retrieved order.
	Sources []Source `json:"sources"`

	// ChunksUsed is the number of retrieved chunks fed to generation.
	ChunksUsed int `json:"num_chunks_used"`
}
