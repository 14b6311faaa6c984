package pipeline

import (
	"context"
	"fmt"

	"github.com/kcscroggins/water-institute-chatbot/internal/rag/interfaces"
	"github.com/kcscroggins/water-institute-chatbot/pkg/logger"
)

// Retrieved is one ranked retrieval hit: chunk text, its citation label, and
// the similarity score. Constructed per query, never persisted.
type Retrieved struct {
	Text        string
	DisplayName string
	Score       float32
}

// RetrievalPipeline embeds a query and finds the most similar chunks in the
// vector index. The embedder must be the same model that embedded the corpus.
type RetrievalPipeline struct {
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	log         *logger.Logger
}

// NewRetrievalPipeline creates a new RetrievalPipeline.
func NewRetrievalPipeline(
	embedder interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	log *logger.Logger,
) *RetrievalPipeline {
	return &RetrievalPipeline{
		embedder:    embedder,
		vectorStore: vectorStore,
		log:         log,
	}
}

// Run returns at most topK chunks ordered by decreasing similarity,
// restricted by the optional metadata filters. Fewer than topK results is a
// normal outcome for a small corpus, not an error; an unreachable provider or
// index wraps ErrRetrievalUnavailable.
func (p *RetrievalPipeline) Run(ctx context.Context, query string, topK int, filters map[string]string) ([]Retrieved, error) {
	queryEmbedding, err := p.embedder.Embed(ctx, query)
	if err != nil {
		p.log.WithError(err).Error("Failed to embed query")
		return nil, fmt.Errorf("%w: embedding query: %v", ErrRetrievalUnavailable, err)
	}

	docs, err := p.vectorStore.Query(ctx, queryEmbedding, topK, filters)
	if err != nil {
		p.log.WithError(err).Error("Failed to query vector store")
		return nil, fmt.Errorf("%w: querying index: %v", ErrRetrievalUnavailable, err)
	}

	results := make([]Retrieved, 0, len(docs))
	for _, doc := range docs {
		results = append(results, Retrieved{
			Text:        doc.Text,
			DisplayName: doc.DisplayName(),
			Score:       doc.Score(),
		})
	}

	p.log.Debug(fmt.Sprintf("Retrieved %d chunks for query", len(results)))
	return results, nil
}
