package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kcscroggins/water-institute-chatbot/internal/rag/interfaces"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/schema"
	"github.com/kcscroggins/water-institute-chatbot/pkg/logger"
)

// embedConcurrency bounds parallel embedding requests within one document.
const embedConcurrency = 4

// IngestError records a source document that failed to ingest.
type IngestError struct {
	SourceID string
	Err      error
}

func (e IngestError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.SourceID, e.Err)
}

// IngestionReport summarizes an ingestion run.
type IngestionReport struct {
	DocumentsProcessed int
	ChunksCreated      int
	Errors             []IngestError
}

// IndexingPipeline chunks, embeds, and upserts source documents into the
// vector index. It is the only writer to the index and runs out-of-band from
// query serving.
type IndexingPipeline struct {
	splitter    interfaces.Splitter
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	batchSize   int
	log         *logger.Logger
}

// NewIndexingPipeline creates a new IndexingPipeline. batchSize is the number
// of chunk texts per embedding request.
func NewIndexingPipeline(
	splitter interfaces.Splitter,
	embedder interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	batchSize int,
	log *logger.Logger,
) *IndexingPipeline {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &IndexingPipeline{
		splitter:    splitter,
		embedder:    embedder,
		vectorStore: vectorStore,
		batchSize:   batchSize,
		log:         log,
	}
}

// Ingest processes every source document, continuing past per-document
// failures: one bad profile must not abort the whole run. Prior entries for a
// document are removed before its new chunks are written, so re-ingestion
// never accumulates stale or duplicate chunks.
func (p *IndexingPipeline) Ingest(ctx context.Context, docs []*schema.SourceDocument) IngestionReport {
	var report IngestionReport

	for _, doc := range docs {
		created, err := p.ingestOne(ctx, doc)
		if err != nil {
			p.log.WithError(err).Error(fmt.Sprintf("Failed to ingest '%s', continuing with next document", doc.ID))
			report.Errors = append(report.Errors, IngestError{SourceID: doc.ID, Err: err})
			continue
		}
		report.DocumentsProcessed++
		report.ChunksCreated += created
		p.log.Info(fmt.Sprintf("Ingested %s (%s): %d chunks", doc.DisplayName, doc.Kind, created))
	}

	p.log.Info(fmt.Sprintf("Ingestion finished: %d documents, %d chunks, %d errors",
		report.DocumentsProcessed, report.ChunksCreated, len(report.Errors)))
	return report
}

func (p *IndexingPipeline) ingestOne(ctx context.Context, doc *schema.SourceDocument) (int, error) {
	chunks := p.splitter.Split(doc.RawText)
	if len(chunks) == 0 {
		// Empty source file; nothing to remove or add.
		return 0, nil
	}

	if err := p.vectorStore.DeleteBySource(ctx, doc.ID); err != nil {
		return 0, fmt.Errorf("removing prior entries: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunkText(doc, chunk.Text)
	}

	embeddings, err := p.embedBatches(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding chunks: %w", err)
	}

	entries := make([]*schema.Document, len(chunks))
	for i := range chunks {
		entries[i] = &schema.Document{
			ID:        fmt.Sprintf("%s_%d", doc.ID, i),
			Text:      texts[i],
			Embedding: embeddings[i],
			Metadata: map[string]interface{}{
				schema.MetadataKeySourceID:    doc.ID,
				schema.MetadataKeyDocType:     doc.Kind,
				schema.MetadataKeyDisplayName: doc.DisplayName,
				schema.MetadataKeyFileName:    doc.FileName,
			},
		}
	}

	if err := p.vectorStore.Upsert(ctx, entries); err != nil {
		return 0, fmt.Errorf("upserting entries: %w", err)
	}
	return len(entries), nil
}

// embedBatches embeds texts in batches with bounded concurrency, preserving
// input order.
func (p *IndexingPipeline) embedBatches(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	var mu sync.Mutex

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(embedConcurrency)

	for start := 0; start < len(texts); start += p.batchSize {
		end := start + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end

		eg.Go(func() error {
			batch, err := p.embedder.EmbedBatch(gCtx, texts[start:end])
			if err != nil {
				return err
			}
			mu.Lock()
			copy(embeddings[start:end], batch)
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}

// chunkText guarantees a faculty member's name appears in every chunk of
// their profile, so name-based queries always have something to match.
func chunkText(doc *schema.SourceDocument, text string) string {
	if doc.Kind != schema.KindFaculty {
		return text
	}
	if strings.Contains(strings.ToLower(text), strings.ToLower(doc.DisplayName)) {
		return text
	}
	return doc.DisplayName + "\n" + text
}
