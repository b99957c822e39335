// ABOUTME: In-memory vector backend with brute-force cosine distance ranking
// ABOUTME: RWMutex keeps searches on a consistent snapshot during mutation
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/docdesk/docdesk/internal/models"
)

// MemoryBackend holds all entries in process memory. Suitable for tests
// and single-node deployments; contents are lost on restart.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]models.IndexedVector
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]models.IndexedVector)}
}

// Add stores a batch of entries. The whole batch becomes visible at once.
func (b *MemoryBackend) Add(_ context.Context, entries []models.IndexedVector) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range entries {
		b.entries[e.ID] = e
	}
	return nil
}

// Query ranks all stored entries by cosine distance to the query vector.
func (b *MemoryBackend) Query(_ context.Context, vector []float64, k int, filter map[string]any) ([]models.RetrievalHit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var hits []models.RetrievalHit
	for _, e := range b.entries {
		if !matchesFilter(e.Chunk.Metadata, filter) {
			continue
		}
		hits = append(hits, models.RetrievalHit{
			ID:       e.ID,
			Content:  e.Chunk.Content,
			Metadata: e.Chunk.Metadata,
			Distance: cosineDistance(vector, e.Vector),
		})
	}

	sortHitsByDistance(hits)
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Delete removes one entry, reporting whether it existed.
func (b *MemoryBackend) Delete(_ context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.entries[id]; !ok {
		return false, nil
	}
	delete(b.entries, id)
	return true, nil
}

// DeleteWhere removes every entry whose metadata value equals the given
// value and returns the count removed.
func (b *MemoryBackend) DeleteWhere(_ context.Context, key string, value any) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for id, e := range b.entries {
		if scalarEquals(e.Chunk.Metadata[key], value) {
			delete(b.entries, id)
			count++
		}
	}
	return count, nil
}

// Count returns the number of stored entries.
func (b *MemoryBackend) Count(_ context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries), nil
}

// Clear drops every entry.
func (b *MemoryBackend) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make(map[string]models.IndexedVector)
	return nil
}

// sortHitsByDistance orders hits ascending by distance, nearest first.
func sortHitsByDistance(hits []models.RetrievalHit) {
	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
}

// matchesFilter applies equality matching over metadata. A nil or empty
// filter matches everything.
func matchesFilter(metadata map[string]any, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok || !scalarEquals(got, want) {
			return false
		}
	}
	return true
}

// scalarEquals compares two scalar metadata values irrespective of their
// numeric type (JSON round-trips turn ints into float64).
func scalarEquals(a, b any) bool {
	if a == b {
		return true
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// cosineDistance is 1 minus the cosine similarity of two vectors.
// Mismatched or zero vectors rank as maximally distant.
func cosineDistance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 1.0
	}
	return 1.0 - dotProduct/(math.Sqrt(normA)*math.Sqrt(normB))
}
