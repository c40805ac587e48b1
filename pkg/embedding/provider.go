package embedding

// EmbeddingResponseEmbedding holds the raw vector values.
type EmbeddingResponseEmbedding struct {
	Values []float32
}

// EmbeddingResponse wraps a single generated embedding.
type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding
}

// EmbeddingProvider defines the interface for generating text embeddings.
// taskType distinguishes query-time from document-time embeddings for
// providers that support it ("RETRIEVAL_QUERY" / "RETRIEVAL_DOCUMENT").
type EmbeddingProvider interface {
	Generate(text string, taskType string) (*EmbeddingResponse, error)
	GenerateBatch(texts []string, taskType string) ([]*EmbeddingResponse, error)
}
