package embedding

import "context"

// Embedding is the interface every embedding model client implements.
// The same provider and model must serve both ingestion and query embedding;
// mixing models makes similarity scores meaningless.
type Embedding interface {
	// Embed generates the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embedding vectors for a batch of texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ModelType enumerates the supported providers.
type ModelType string

const (
	OpenAI ModelType = "openai"
	Ollama ModelType = "ollama"
)
