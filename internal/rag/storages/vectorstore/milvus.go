package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/kcscroggins/water-institute-chatbot/internal/database/milvus"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/interfaces"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/schema"
	"github.com/kcscroggins/water-institute-chatbot/pkg/logger"
)

const (
	// Collection fields the store writes, filters on, or returns.
	FieldID          = "id"
	FieldEmbedding   = "embedding"
	FieldSourceID    = "source_id"
	FieldDocType     = "doc_type"
	FieldDisplayName = "display_name"
	FieldFileName    = "file_name"
	FieldChunk       = "chunk"

	// searchEf is the HNSW search-time candidate list size.
	searchEf = 64
)

// MilvusStore adapts the Milvus client to the VectorStore interface. Chunk
// text lives in the collection next to its embedding, so retrieval needs no
// secondary document store.
type MilvusStore struct {
	log        *logger.Logger
	wrapper    *milvus.MilvusClient
	client     client.Client
	collection string
}

// NewMilvusStore creates a new MilvusStore over the shared Milvus client.
func NewMilvusStore(milvusClient *milvus.MilvusClient, log *logger.Logger) (*MilvusStore, error) {
	if milvusClient == nil || milvusClient.Client == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	return &MilvusStore{
		log:        log,
		wrapper:    milvusClient,
		client:     milvusClient.Client,
		collection: milvusClient.Config.Collection,
	}, nil
}

// Upsert writes documents into the collection, replacing entries that share
// a primary key. Re-ingesting an unchanged document therefore never grows
// the collection.
func (s *MilvusStore) Upsert(ctx context.Context, docs []*schema.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	sourceIDs := make([]string, len(docs))
	docTypes := make([]string, len(docs))
	displayNames := make([]string, len(docs))
	fileNames := make([]string, len(docs))
	chunks := make([]string, len(docs))
	embeddings := make([][]float32, len(docs))

	dim := 0
	for i, doc := range docs {
		ids[i] = doc.ID
		chunks[i] = doc.Text
		embeddings[i] = doc.Embedding
		if len(doc.Embedding) > dim {
			dim = len(doc.Embedding)
		}
		if v, ok := doc.Metadata[schema.MetadataKeySourceID].(string); ok {
			sourceIDs[i] = v
		}
		if v, ok := doc.Metadata[schema.MetadataKeyDocType].(string); ok {
			docTypes[i] = v
		}
		if v, ok := doc.Metadata[schema.MetadataKeyDisplayName].(string); ok {
			displayNames[i] = v
		}
		if v, ok := doc.Metadata[schema.MetadataKeyFileName].(string); ok {
			fileNames[i] = v
		}
	}

	cols := []entity.Column{
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnVarChar(FieldSourceID, sourceIDs),
		entity.NewColumnVarChar(FieldDocType, docTypes),
		entity.NewColumnVarChar(FieldDisplayName, displayNames),
		entity.NewColumnVarChar(FieldFileName, fileNames),
		entity.NewColumnVarChar(FieldChunk, chunks),
		entity.NewColumnFloatVector(FieldEmbedding, dim, embeddings),
	}

	s.log.Info(fmt.Sprintf("Upserting %d documents into Milvus collection: %s", len(docs), s.collection))
	if _, err := s.client.Upsert(ctx, s.collection, "" /* default partition */, cols...); err != nil {
		s.log.WithError(err).Error("Failed to upsert data into Milvus")
		return fmt.Errorf("failed to upsert data into Milvus: %w", err)
	}
	return nil
}

// DeleteBySource removes every entry belonging to the given source document.
// Called before re-ingesting a source so stale chunks never linger.
func (s *MilvusStore) DeleteBySource(ctx context.Context, sourceID string) error {
	expr := fmt.Sprintf(`%s == "%s"`, FieldSourceID, escapeExprString(sourceID))
	if err := s.client.Delete(ctx, s.collection, "", expr); err != nil {
		return fmt.Errorf("failed to delete entries for source '%s': %w", sourceID, err)
	}
	return nil
}

// Query performs a vector search with optional metadata filtering and returns
// documents ordered by decreasing similarity, at most topK of them.
func (s *MilvusStore) Query(ctx context.Context, embedding []float32, topK int, filters map[string]string) ([]*schema.Document, error) {
	filterExpr := s.buildFilterExpression(filters)

	sp, err := entity.NewIndexHNSWSearchParam(searchEf)
	if err != nil {
		return nil, fmt.Errorf("building search params: %w", err)
	}
	outputFields := []string{FieldID, FieldSourceID, FieldDocType, FieldDisplayName, FieldFileName, FieldChunk}

	s.log.Debug(fmt.Sprintf("Querying Milvus collection '%s' with filter: '%s'", s.collection, filterExpr))

	searchResults, err := s.client.Search(
		ctx, s.collection, []string{}, filterExpr, outputFields,
		[]entity.Vector{entity.FloatVector(embedding)},
		FieldEmbedding, entity.COSINE, topK, sp,
	)
	if err != nil {
		s.log.WithError(err).Error("Failed to search in Milvus")
		return nil, fmt.Errorf("failed to search in Milvus: %w", err)
	}

	var results []*schema.Document
	for _, res := range searchResults {
		findColumn := func(name string) entity.Column {
			for _, field := range res.Fields {
				if field.Name() == name {
					return field
				}
			}
			return nil
		}

		idCol, ok := findColumn(FieldID).(*entity.ColumnVarChar)
		if !ok {
			s.log.Warn("Search result is missing ID field or has wrong type, skipping.")
			continue
		}
		idData := idCol.Data()

		varcharData := func(name string) []string {
			if col, ok := findColumn(name).(*entity.ColumnVarChar); ok {
				return col.Data()
			}
			return nil
		}
		sourceData := varcharData(FieldSourceID)
		typeData := varcharData(FieldDocType)
		nameData := varcharData(FieldDisplayName)
		fileData := varcharData(FieldFileName)
		chunkData := varcharData(FieldChunk)

		for i := 0; i < res.ResultCount; i++ {
			doc := &schema.Document{
				ID:       idData[i],
				Metadata: map[string]interface{}{schema.MetadataKeyScore: res.Scores[i]},
			}
			if chunkData != nil {
				doc.Text = chunkData[i]
			}
			if sourceData != nil {
				doc.Metadata[schema.MetadataKeySourceID] = sourceData[i]
			}
			if typeData != nil {
				doc.Metadata[schema.MetadataKeyDocType] = typeData[i]
			}
			if nameData != nil {
				doc.Metadata[schema.MetadataKeyDisplayName] = nameData[i]
			}
			if fileData != nil {
				doc.Metadata[schema.MetadataKeyFileName] = fileData[i]
			}
			results = append(results, doc)
		}
	}

	return results, nil
}

// Count returns the approximate number of entries in the collection.
func (s *MilvusStore) Count(ctx context.Context) (int64, error) {
	return s.wrapper.Count(ctx)
}

// buildFilterExpression creates a Milvus boolean expression from a field map.
func (s *MilvusStore) buildFilterExpression(filters map[string]string) string {
	if len(filters) == 0 {
		return ""
	}
	var conditions []string
	for key, value := range filters {
		conditions = append(conditions, fmt.Sprintf(`%s == "%s"`, key, escapeExprString(value)))
	}
	return strings.Join(conditions, " and ")
}

// escapeExprString makes a value safe inside a double-quoted Milvus
// expression literal. IDs come from file names, which may contain quotes.
func escapeExprString(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}

// compile-time check to ensure MilvusStore implements the VectorStore interface
var _ interfaces.VectorStore = (*MilvusStore)(nil)
