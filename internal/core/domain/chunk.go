package domain

// Chunk is the unit of embedding and retrieval: a bounded, overlapping
// slice of one page's extracted text. Chunks are immutable once created
// and live exactly as long as their owning document.
type Chunk struct {
	// Text is the chunk content.
	Text string `json:"text"`

	// Source is the filename of the owning document.
	Source string `json:"source"`

	// Page is the 1-based page number the text was extracted from.
	Page int `json:"page"`
}

// Page holds the extracted text of a single PDF page.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Text is the raw extracted text.
	Text string
}
