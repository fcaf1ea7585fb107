package domain

import "time"

// Document is the authoritative record of an uploaded PDF.
// Documents are immutable after registration; replacement is
// modelled as delete followed by fresh registration under a new ID.
type Document struct {
	// ID is the opaque registry key, allocated once and never reused.
	ID string `json:"doc_id"`

	// Filename is the original upload filename.
	Filename string `json:"filename"`

	// Hash is the SHA-256 hex digest of the raw upload bytes.
	// It doubles as the duplicate-detection key.
	Hash string `json:"hash"`

	// UploadedAt is the registration timestamp.
	UploadedAt time.Time `json:"upload_timestamp"`

	// NumChunks is the number of chunks indexed for this document.
	NumChunks int `json:"num_chunks"`

	// NumPages is the highest page number that produced text.
	NumPages int `json:"num_pages"`
}

// Stats summarises the engine state for health and status reporting.
type Stats struct {
	TotalDocuments     int    `json:"total_documents"`
	TotalChunks        int    `json:"total_chunks"`
	IndexSize          int    `json:"index_size"`
	EmbeddingModel     string `json:"embedding_model"`
	EmbeddingDimension int    `json:"embedding_dimension"`
}
