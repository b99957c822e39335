// ABOUTME: Chunk represents a bounded slice of source text with provenance metadata
// ABOUTME: The unit stored in and retrieved from the semantic index
package models

// Reserved metadata keys with defined meaning across the pipeline.
const (
	MetaSource     = "source"
	MetaChunkIndex = "chunk_index"
	MetaType       = "type"
	MetaPage       = "page"
	MetaSection    = "section"
)

// Chunk is an immutable piece of source text ready for indexing.
// Metadata is an open mapping of scalar values; the reserved keys above are
// set by the chunker, everything else is caller passthrough.
type Chunk struct {
	Content  string         `json:"content"`
	Source   string         `json:"source"`
	Index    int            `json:"chunk_index"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// IndexedVector pairs a stored chunk with its embedding and assigned id.
// The vector length must equal the embedding dimensionality used for the
// whole collection.
type IndexedVector struct {
	ID     string    `json:"id"`
	Vector []float64 `json:"vector"`
	Chunk  Chunk     `json:"chunk"`
}

// Segment is a plain-text piece handed over by the parsing collaborator.
// Attrs carries arbitrary per-segment attributes (page, paragraph, row)
// which the chunker copies through without interpreting them.
type Segment struct {
	Text  string         `json:"text"`
	Attrs map[string]any `json:"attrs,omitempty"`
}
