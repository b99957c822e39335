// ABOUTME: RetrievalHit is a single nearest-neighbor search result
// ABOUTME: Distance is a dissimilarity measure, zero meaning identical
package models

// RetrievalHit is one match returned by a semantic index search.
// A search returns hits in ascending Distance order.
type RetrievalHit struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Distance float64        `json:"distance"`
}

// Similarity converts the hit's distance into a similarity in [0,1],
// clamping because cosine distance can slightly exceed 1 for opposed
// vectors.
func (h RetrievalHit) Similarity() float64 {
	sim := 1 - h.Distance
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// IndexStats summarizes the state of a semantic index collection.
type IndexStats struct {
	Count          int    `json:"total_documents"`
	CollectionName string `json:"collection_name"`
	EmbeddingModel string `json:"embedding_model"`
}
