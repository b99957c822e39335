// ABOUTME: Charm KV vector backend: persisted, cloud-synced index entries
// ABOUTME: Entries live as JSON under vec: keys; ranking happens in memory
package index

import (
	"context"
	"fmt"

	"github.com/docdesk/docdesk/internal/charmkv"
	"github.com/docdesk/docdesk/internal/models"
)

// CharmBackend persists index entries in Charm KV so the collection
// survives restarts and syncs across machines.
type CharmBackend struct {
	client *charmkv.Client
}

// NewCharmBackend wraps an already-opened charm client.
func NewCharmBackend(client *charmkv.Client) *CharmBackend {
	return &CharmBackend{client: client}
}

func vectorKey(id string) string {
	return charmkv.VectorPrefix + id
}

// Add persists a batch of entries.
func (b *CharmBackend) Add(_ context.Context, entries []models.IndexedVector) error {
	for _, e := range entries {
		if err := b.client.SetJSON(vectorKey(e.ID), e); err != nil {
			return fmt.Errorf("failed to store entry %s: %w", e.ID, err)
		}
	}
	return nil
}

// Query loads every stored entry, filters, and ranks by cosine distance.
func (b *CharmBackend) Query(_ context.Context, vector []float64, k int, filter map[string]any) ([]models.RetrievalHit, error) {
	entries, err := b.load()
	if err != nil {
		return nil, err
	}

	var hits []models.RetrievalHit
	for _, e := range entries {
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
func (b *CharmBackend) Delete(_ context.Context, id string) (bool, error) {
	key := vectorKey(id)
	data, err := b.client.Get(key)
	if err != nil || data == nil {
		return false, nil
	}
	if err := b.client.Delete(key); err != nil {
		return false, fmt.Errorf("failed to delete entry %s: %w", id, err)
	}
	return true, nil
}

// DeleteWhere removes every entry whose metadata value matches.
func (b *CharmBackend) DeleteWhere(_ context.Context, key string, value any) (int, error) {
	entries, err := b.load()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, e := range entries {
		if !scalarEquals(e.Chunk.Metadata[key], value) {
			continue
		}
		if err := b.client.Delete(vectorKey(e.ID)); err != nil {
			return count, fmt.Errorf("failed to delete entry %s: %w", e.ID, err)
		}
		count++
	}
	return count, nil
}

// Count returns the number of stored entries.
func (b *CharmBackend) Count(_ context.Context) (int, error) {
	keys, err := b.client.ListKeys(charmkv.VectorPrefix)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Clear drops every entry under the vector prefix.
func (b *CharmBackend) Clear(_ context.Context) error {
	keys, err := b.client.ListKeys(charmkv.VectorPrefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := b.client.Delete(key); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", key, err)
		}
	}
	return nil
}

// load reads all entries under the vector prefix. Entries that fail to
// decode are skipped rather than failing the whole scan.
func (b *CharmBackend) load() ([]models.IndexedVector, error) {
	keys, err := b.client.ListKeys(charmkv.VectorPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	entries := make([]models.IndexedVector, 0, len(keys))
	for _, key := range keys {
		var e models.IndexedVector
		if err := b.client.GetJSON(key, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
