package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcscroggins/water-institute-chatbot/internal/rag/schema"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/storages/vectorstore"
)

func seededStore(t *testing.T) *vectorstore.MemoryStore {
	t.Helper()
	store := vectorstore.NewMemoryStore()
	embedder := newFakeEmbedder()

	entries := []struct {
		id, text, kind, name string
	}{
		{"faculty_jane_doe_0", "Jane Doe studies wetland restoration and water quality.", schema.KindFaculty, "Jane Doe"},
		{"faculty_john_roe_0", "John Roe models river discharge and flooding.", schema.KindFaculty, "John Roe"},
		{"general_about_0", "The Water Institute coordinates interdisciplinary water research.", schema.KindGeneral, "Water Institute - About"},
	}

	docs := make([]*schema.Document, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, &schema.Document{
			ID:        e.id,
			Text:      e.text,
			Embedding: embedder.embed(e.text),
			Metadata: map[string]interface{}{
				schema.MetadataKeySourceID:    e.id[:len(e.id)-2],
				schema.MetadataKeyDocType:     e.kind,
				schema.MetadataKeyDisplayName: e.name,
			},
		})
	}
	require.NoError(t, store.Upsert(context.Background(), docs))
	return store
}

func TestRetrievalRanksExactMatchFirst(t *testing.T) {
	p := NewRetrievalPipeline(newFakeEmbedder(), seededStore(t), testLogger())

	results, err := p.Run(context.Background(), "Jane Doe studies wetland restoration and water quality.", 3, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "Jane Doe", results[0].DisplayName)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-5)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score, "results must be ordered by decreasing score")
	}
}

func TestRetrievalHonorsTopK(t *testing.T) {
	p := NewRetrievalPipeline(newFakeEmbedder(), seededStore(t), testLogger())

	results, err := p.Run(context.Background(), "water research", 2, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = p.Run(context.Background(), "water research", 50, nil)
	require.NoError(t, err)
	assert.Len(t, results, 3, "fewer hits than topK is a normal outcome")
}

func TestRetrievalAppliesMetadataFilter(t *testing.T) {
	p := NewRetrievalPipeline(newFakeEmbedder(), seededStore(t), testLogger())

	results, err := p.Run(context.Background(), "water research", 10,
		map[string]string{schema.MetadataKeyDocType: schema.KindGeneral})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Water Institute - About", results[0].DisplayName)
}

func TestRetrievalWrapsEmbedderFailure(t *testing.T) {
	embedder := newFakeEmbedder()
	embedder.failAfter = 0
	p := NewRetrievalPipeline(embedder, seededStore(t), testLogger())

	_, err := p.Run(context.Background(), "anything", 3, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
}

func TestRetrievalWrapsStoreFailure(t *testing.T) {
	p := NewRetrievalPipeline(newFakeEmbedder(), failingStore{}, testLogger())

	_, err := p.Run(context.Background(), "anything", 3, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
}
