// ABOUTME: Semantic index service: embed, store, and search text chunks
// ABOUTME: Backend-agnostic contract so the vector store implementation is swappable
package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/docdesk/docdesk/internal/models"
)

var (
	// ErrEmbedding signals that the embedding capability is unavailable or
	// returned malformed output. Ingestion and search fail closed on it.
	ErrEmbedding = errors.New("embedding failed")

	// ErrUnavailable signals that the backing vector store is unreachable.
	ErrUnavailable = errors.New("vector index unavailable")
)

// Embedder turns text into a fixed-length vector. Implemented by the
// OpenAI client; tests substitute a deterministic fake.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Backend stores indexed vectors and answers nearest-neighbor queries.
// Query returns hits in ascending distance order with the equality filter
// already applied, and must observe a consistent snapshot under
// concurrent mutation.
type Backend interface {
	Add(ctx context.Context, entries []models.IndexedVector) error
	Query(ctx context.Context, vector []float64, k int, filter map[string]any) ([]models.RetrievalHit, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteWhere(ctx context.Context, key string, value any) (int, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Query embeddings are cached briefly so repeated questions skip the
// embedding call.
const (
	queryCacheTTL   = 5 * time.Minute
	queryCacheSweep = 10 * time.Minute
)

// Index is the semantic index service. It owns the embedding step and
// delegates storage and ranking to the configured backend.
type Index struct {
	backend    Backend
	embedder   Embedder
	collection string
	model      string
	queryCache *gocache.Cache
	log        *zap.Logger
}

// New creates an Index over the given backend and embedder.
func New(backend Backend, embedder Embedder, collection, embeddingModel string, log *zap.Logger) *Index {
	if log == nil {
		log = zap.NewNop()
	}
	return &Index{
		backend:    backend,
		embedder:   embedder,
		collection: collection,
		model:      embeddingModel,
		queryCache: gocache.New(queryCacheTTL, queryCacheSweep),
		log:        log,
	}
}

// Insert embeds the chunks, assigns ids, and stores them as a single
// atomic batch. Returns the assigned ids in input order. Any embedding
// failure aborts the whole batch before anything is stored.
func (ix *Index) Insert(ctx context.Context, chunks []models.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	entries := make([]models.IndexedVector, len(chunks))
	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		vector, err := ix.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d of %q: %v", ErrEmbedding, i, chunk.Source, err)
		}
		id := uuid.New().String()
		ids[i] = id
		entries[i] = models.IndexedVector{ID: id, Vector: vector, Chunk: chunk}
	}

	if err := ix.backend.Add(ctx, entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	ix.log.Info("indexed chunks",
		zap.Int("count", len(entries)),
		zap.String("collection", ix.collection))
	return ids, nil
}

// Search embeds the query and returns up to k hits in ascending distance
// order. An optional equality filter over stored metadata is applied
// before ranking. An empty index or no matches yields an empty result,
// not an error.
func (ix *Index) Search(ctx context.Context, query string, k int, filter map[string]any) ([]models.RetrievalHit, error) {
	vector, err := ix.queryVector(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrEmbedding, err)
	}

	hits, err := ix.backend.Query(ctx, vector, k, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return hits, nil
}

// queryVector returns the embedding for a query, serving repeats from the
// short-TTL cache.
func (ix *Index) queryVector(ctx context.Context, query string) ([]float64, error) {
	if cached, found := ix.queryCache.Get(query); found {
		return cached.([]float64), nil
	}
	vector, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	ix.queryCache.Set(query, vector, gocache.DefaultExpiration)
	return vector, nil
}

// Delete removes a single entry by id. A missing id is not an error.
func (ix *Index) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := ix.backend.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return removed, nil
}

// DeleteBySource removes every entry whose source metadata equals the
// given filename and returns the number removed.
func (ix *Index) DeleteBySource(ctx context.Context, source string) (int, error) {
	count, err := ix.backend.DeleteWhere(ctx, models.MetaSource, source)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count > 0 {
		ix.log.Info("deleted chunks by source",
			zap.String("source", source),
			zap.Int("count", count))
	}
	return count, nil
}

// Stats reports the entry count alongside the collection and embedding
// identifiers.
func (ix *Index) Stats(ctx context.Context) (models.IndexStats, error) {
	count, err := ix.backend.Count(ctx)
	if err != nil {
		return models.IndexStats{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return models.IndexStats{
		Count:          count,
		CollectionName: ix.collection,
		EmbeddingModel: ix.model,
	}, nil
}

// Reset removes every entry in the collection. Destructive; callers must
// guard it behind an explicit confirmation.
func (ix *Index) Reset(ctx context.Context) error {
	if err := ix.backend.Clear(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	ix.queryCache.Flush()
	ix.log.Warn("index reset, all entries deleted",
		zap.String("collection", ix.collection))
	return nil
}
