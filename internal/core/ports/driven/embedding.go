package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// The engine treats embedding as an opaque text-to-vector function;
// implementations wrap an inference server (Ollama, OpenAI-compatible).
// All vectors returned must have exactly Dimensions() elements.
type EmbeddingService interface {
	// Embed generates a vector embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving
	// input order. Ingestion embeds all chunks of a document in one
	// batch through this method.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 384).
	// This must match the vector index dimension.
	Dimensions() int

	// ModelName returns the name of the embedding model in use.
	ModelName() string

	// Ping validates the service is reachable with a lightweight
	// request. Called during engine initialisation.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
