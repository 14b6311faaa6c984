package pipeline

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"

	"github.com/kcscroggins/water-institute-chatbot/internal/rag/interfaces"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/schema"
	"github.com/kcscroggins/water-institute-chatbot/pkg/logger"
)

func testLogger() *logger.Logger {
	logger.Init(logger.ParseLevel("error"))
	return logger.New("pipeline-test", "")
}

// paragraphSplitter splits on blank lines, good enough for pipeline tests.
type paragraphSplitter struct{}

func (paragraphSplitter) Split(text string) []schema.Chunk {
	var chunks []schema.Chunk
	for _, part := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		chunks = append(chunks, schema.Chunk{Text: part})
	}
	return chunks
}

// fakeEmbedder produces deterministic vectors: identical texts map to
// identical embeddings, distinct texts almost surely differ.
type fakeEmbedder struct {
	failAfter int // number of successful calls before erroring; <0 never fails
	calls     int
}

func newFakeEmbedder() *fakeEmbedder { return &fakeEmbedder{failAfter: -1} }

func (f *fakeEmbedder) embed(text string) []float32 {
	v := make([]float32, 8)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		v[h.Sum32()%8]++
	}
	return v
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.failAfter >= 0 && f.calls >= f.failAfter {
		return nil, errors.New("embedding provider down")
	}
	f.calls++
	return f.embed(text), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.failAfter >= 0 && f.calls >= f.failAfter {
		return nil, errors.New("embedding provider down")
	}
	f.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.embed(t)
	}
	return out, nil
}

// fakeLLM records the prompt it received and returns a canned reply.
type fakeLLM struct {
	reply    string
	err      error
	system   string
	messages []interfaces.Message
}

func (f *fakeLLM) Complete(ctx context.Context, system string, messages []interfaces.Message) (string, error) {
	f.system = system
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// failingStore errors on every operation.
type failingStore struct{}

func (failingStore) Upsert(ctx context.Context, docs []*schema.Document) error {
	return errors.New("index down")
}

func (failingStore) DeleteBySource(ctx context.Context, sourceID string) error {
	return errors.New("index down")
}

func (failingStore) Query(ctx context.Context, embedding []float32, topK int, filters map[string]string) ([]*schema.Document, error) {
	return nil, errors.New("index down")
}

func (failingStore) Count(ctx context.Context) (int64, error) {
	return 0, errors.New("index down")
}

var _ interfaces.VectorStore = failingStore{}
