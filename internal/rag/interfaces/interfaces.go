package interfaces

import (
	"context"

	"github.com/kcscroggins/water-institute-chatbot/internal/rag/schema"
)

// Loader is the interface for reading a source file into its raw text.
type Loader interface {
	Load(ctx context.Context, path string) (string, error)
}

// Splitter is the interface for splitting raw text into overlapping chunks.
type Splitter interface {
	Split(text string) []schema.Chunk
}

// VectorStore is the interface for the persistent vector index. Any store
// supporting upsert, delete-by-source, filtered nearest-neighbor query and
// count is substitutable.
type VectorStore interface {
	Upsert(ctx context.Context, docs []*schema.Document) error
	DeleteBySource(ctx context.Context, sourceID string) error
	Query(ctx context.Context, embedding []float32, topK int, filters map[string]string) ([]*schema.Document, error)
	Count(ctx context.Context) (int64, error)
}

// EmbeddingModel is the interface for a text embedding provider.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Message is one conversation turn passed to the completion provider.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// LLM is the interface for a chat-completion provider. A single non-streaming
// call per request; system carries the instruction, messages carry history
// plus the current query.
type LLM interface {
	Complete(ctx context.Context, system string, messages []Message) (string, error)
}
