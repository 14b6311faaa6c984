package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/kcscroggins/water-institute-chatbot/internal/rag/interfaces"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/schema"
)

// MemoryStore is an in-process VectorStore using exact cosine similarity.
// It backs unit tests and small local deployments; the production store is
// Milvus.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*schema.Document
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string]*schema.Document{}}
}

// Upsert stores documents, replacing any that share an ID.
func (s *MemoryStore) Upsert(ctx context.Context, docs []*schema.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.docs[doc.ID] = doc
	}
	return nil
}

// DeleteBySource removes every entry whose source_id metadata matches.
func (s *MemoryStore) DeleteBySource(ctx context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, doc := range s.docs {
		if v, ok := doc.Metadata[schema.MetadataKeySourceID].(string); ok && v == sourceID {
			delete(s.docs, id)
		}
	}
	return nil
}

// Query returns up to topK documents by decreasing cosine similarity,
// restricted to entries whose metadata matches every filter entry.
func (s *MemoryStore) Query(ctx context.Context, embedding []float32, topK int, filters map[string]string) ([]*schema.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		doc   *schema.Document
		score float32
	}
	var candidates []scored

	for _, doc := range s.docs {
		if !matches(doc, filters) {
			continue
		}
		candidates = append(candidates, scored{doc: doc, score: cosineSimilarity(embedding, doc.Embedding)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if topK < len(candidates) {
		candidates = candidates[:topK]
	}

	results := make([]*schema.Document, 0, len(candidates))
	for _, c := range candidates {
		metadata := make(map[string]interface{}, len(c.doc.Metadata)+1)
		for k, v := range c.doc.Metadata {
			metadata[k] = v
		}
		metadata[schema.MetadataKeyScore] = c.score
		results = append(results, &schema.Document{
			ID:        c.doc.ID,
			Text:      c.doc.Text,
			Embedding: c.doc.Embedding,
			Metadata:  metadata,
		})
	}
	return results, nil
}

// Count returns the number of stored entries.
func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.docs)), nil
}

func matches(doc *schema.Document, filters map[string]string) bool {
	for key, want := range filters {
		got, ok := doc.Metadata[key].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// compile-time check to ensure MemoryStore implements the VectorStore interface
var _ interfaces.VectorStore = (*MemoryStore)(nil)
