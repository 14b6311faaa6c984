package schema

const (
	// MetadataKeySourceID is the key for the owning source document's id.
	MetadataKeySourceID = "source_id"
	// MetadataKeyDocType is the key for the document kind ("faculty" or "general").
	MetadataKeyDocType = "doc_type"
	// MetadataKeyDisplayName is the key for the human-readable citation label.
	MetadataKeyDisplayName = "display_name"
	// MetadataKeyFileName is the key for the source file name.
	MetadataKeyFileName = "file_name"
	// MetadataKeyScore is the key for the similarity score attached at query time.
	MetadataKeyScore = "score"
)

// Document kinds as stored in index metadata.
const (
	KindFaculty = "faculty"
	KindGeneral = "general"
)

// SourceDocument is one named unit of ground-truth text: a faculty profile
// or a general-info topic. Immutable once read; it lives for one ingestion pass.
type SourceDocument struct {
	// ID is a stable identifier derived from the file path.
	ID string

	// Kind is KindFaculty or KindGeneral.
	Kind string

	// DisplayName is the human-readable label used as a citation.
	DisplayName string

	// FileName is the base name of the file the document was read from.
	FileName string

	// RawText is the full document text.
	RawText string
}

// Chunk is a bounded-size piece of a source document, the unit of embedding
// and retrieval. Overlap records how many leading bytes of Text repeat the
// tail of the previous chunk, so the original text is recoverable from the
// chunk sequence.
type Chunk struct {
	Text    string
	Overlap int
}

// Document is the persisted unit in the vector index: one entry per chunk.
// It is the primary data carrier through the indexing and retrieval pipelines.
type Document struct {
	// ID is the unique identifier for this chunk, deterministic per
	// source document and chunking configuration.
	ID string

	// Text is the chunk content.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32

	// Metadata holds provenance: source_id, doc_type, display_name, file_name.
	Metadata map[string]interface{}
}

// DisplayName returns the citation label from metadata, or "" when absent.
func (d *Document) DisplayName() string {
	if d.Metadata == nil {
		return ""
	}
	if name, ok := d.Metadata[MetadataKeyDisplayName].(string); ok {
		return name
	}
	return ""
}

// Score returns the similarity score attached at query time, 0 when absent.
func (d *Document) Score() float32 {
	if d.Metadata == nil {
		return 0
	}
	if score, ok := d.Metadata[MetadataKeyScore].(float32); ok {
		return score
	}
	return 0
}
