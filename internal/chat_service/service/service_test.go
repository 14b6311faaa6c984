package service

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcscroggins/water-institute-chatbot/internal/rag/interfaces"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/pipeline"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/schema"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/storages/vectorstore"
	"github.com/kcscroggins/water-institute-chatbot/pkg/logger"
)

func testLogger() *logger.Logger {
	logger.Init(logger.ParseLevel("error"))
	return logger.New("chat-service-test", "")
}

type stubEmbedder struct {
	err error
}

func (s stubEmbedder) embed(text string) []float32 {
	v := make([]float32, 8)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		v[h.Sum32()%8]++
	}
	return v
}

func (s stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.embed(text), nil
}

func (s stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s.embed(t)
	}
	return out, nil
}

type stubLLM struct {
	reply    string
	err      error
	system   string
	messages []interfaces.Message
}

func (s *stubLLM) Complete(ctx context.Context, system string, messages []interfaces.Message) (string, error) {
	s.system = system
	s.messages = messages
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func seedIndex(t *testing.T, embedder stubEmbedder) *vectorstore.MemoryStore {
	t.Helper()
	store := vectorstore.NewMemoryStore()
	entries := []struct {
		id, text, kind, name string
	}{
		{"faculty_jane_doe_0", "Jane Doe studies wetland restoration and water quality.", schema.KindFaculty, "Jane Doe"},
		{"general_about_0", "The Water Institute mission is coordinating interdisciplinary water research.", schema.KindGeneral, "Water Institute - About"},
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

func newTestService(t *testing.T, embedder stubEmbedder, llm *stubLLM) (*Service, *vectorstore.MemoryStore) {
	t.Helper()
	store := seedIndex(t, stubEmbedder{})
	log := testLogger()
	retrieval := pipeline.NewRetrievalPipeline(embedder, store, log)
	synthesis := pipeline.NewSynthesisPipeline(llm, 5, log)
	return NewService(retrieval, synthesis, store, NewKeywordClassifier(), 12, log), store
}

func TestChatReturnsAnswerWithSources(t *testing.T) {
	llm := &stubLLM{reply: "Jane Doe works on wetlands."}
	svc, _ := newTestService(t, stubEmbedder{}, llm)

	answer, err := svc.Chat(context.Background(), "What does Jane Doe research?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe works on wetlands.", answer.Text)
	assert.Contains(t, answer.Sources, "Jane Doe")
	assert.Contains(t, llm.system, "wetland restoration")
}

func TestChatAppliesGeneralInfoFilter(t *testing.T) {
	llm := &stubLLM{reply: "ok"}
	svc, _ := newTestService(t, stubEmbedder{}, llm)

	answer, err := svc.Chat(context.Background(), "What is the mission of the institute?", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Water Institute - About"}, answer.Sources,
		"general-info queries must not surface faculty profiles")
}

func TestChatPropagatesRetrievalFailure(t *testing.T) {
	llm := &stubLLM{reply: "ok"}
	svc, _ := newTestService(t, stubEmbedder{err: errors.New("provider down")}, llm)

	_, err := svc.Chat(context.Background(), "anything", nil)
	assert.ErrorIs(t, err, pipeline.ErrRetrievalUnavailable)
}

func TestChatPropagatesSynthesisFailure(t *testing.T) {
	llm := &stubLLM{err: errors.New("model down")}
	svc, _ := newTestService(t, stubEmbedder{}, llm)

	_, err := svc.Chat(context.Background(), "anything", nil)
	assert.ErrorIs(t, err, pipeline.ErrSynthesisUnavailable)
}

func TestHealth(t *testing.T) {
	llm := &stubLLM{reply: "ok"}
	svc, _ := newTestService(t, stubEmbedder{}, llm)

	status := svc.Health(context.Background())
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, int64(2), status.Chunks)
}

func TestExpandFollowUp(t *testing.T) {
	history := []interfaces.Message{
		{Role: "user", Content: "Who studies wetlands?"},
		{Role: "assistant", Content: "Jane Doe studies wetlands."},
	}

	assert.Equal(t, "Who studies wetlands? Tell me more.",
		expandFollowUp("Tell me more.", history))
	assert.Equal(t, "Who studies wetlands? what else can you say",
		expandFollowUp("what else can you say", history))

	// Messages with their own topic pass through.
	assert.Equal(t, "Who studies rivers?", expandFollowUp("Who studies rivers?", history))

	// No prior user turn to borrow a topic from.
	assert.Equal(t, "Tell me more", expandFollowUp("Tell me more", nil))
	assert.Equal(t, "Tell me more",
		expandFollowUp("Tell me more", []interfaces.Message{{Role: "assistant", Content: "hi"}}))
}

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()

	assert.Equal(t, map[string]string{schema.MetadataKeyDocType: schema.KindGeneral},
		c.Classify("What is the MISSION of the institute?"))
	assert.Nil(t, c.Classify("What does Jane Doe research?"))
	assert.Nil(t, NopClassifier{}.Classify("what is the mission"))

	// Keywords only match whole words, not substrings.
	assert.Nil(t, c.Classify("Who studies nutrient emission in rivers?"))
	assert.Nil(t, c.Classify("Who serves on the water commission?"))
	assert.Equal(t, map[string]string{schema.MetadataKeyDocType: schema.KindGeneral},
		c.Classify("Tell me about the institute's certificate program."))
}
