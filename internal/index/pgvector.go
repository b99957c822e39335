// ABOUTME: Postgres/pgvector backend: durable index with database-side ranking
// ABOUTME: Uses a pgx pool, batched inserts, and cosine distance ordering
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/docdesk/docdesk/internal/models"
)

// PGVectorBackend stores index entries in a Postgres table with a vector
// column and lets the database rank by cosine distance.
type PGVectorBackend struct {
	pool       *pgxpool.Pool
	collection string
}

// NewPGVectorBackend connects to Postgres, ensures the schema, and
// returns a backend scoped to the given collection. The vector column is
// sized for the embedding dimensionality in use.
func NewPGVectorBackend(ctx context.Context, connString, collection string, dimension int) (*PGVectorBackend, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	b := &PGVectorBackend{pool: pool, collection: collection}
	if err := b.ensureSchema(ctx, dimension); err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

func (b *PGVectorBackend) ensureSchema(ctx context.Context, dimension int) error {
	if _, err := b.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to enable pgvector extension: %w", err)
	}
	_, err := b.pool.Exec(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS index_entries (
			id TEXT PRIMARY KEY,
			collection TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			embedding vector(%d) NOT NULL
		)`, dimension))
	if err != nil {
		return fmt.Errorf("failed to create index_entries table: %w", err)
	}
	_, err = b.pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS index_entries_collection_idx ON index_entries (collection)`)
	if err != nil {
		return fmt.Errorf("failed to create collection index: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (b *PGVectorBackend) Close() {
	b.pool.Close()
}

// Add inserts a batch of entries in a single transaction.
func (b *PGVectorBackend) Add(ctx context.Context, entries []models.IndexedVector) error {
	batch := &pgx.Batch{}
	for _, e := range entries {
		metadata, err := json.Marshal(e.Chunk.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for %s: %w", e.ID, err)
		}
		batch.Queue(
			`INSERT INTO index_entries (id, collection, content, metadata, embedding)
			 VALUES ($1, $2, $3, $4, $5)`,
			e.ID, b.collection, e.Chunk.Content, metadata, toPGVector(e.Vector),
		)
	}

	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for range entries {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert entry: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}
	return tx.Commit(ctx)
}

// Query ranks entries by cosine distance in the database.
func (b *PGVectorBackend) Query(ctx context.Context, vector []float64, k int, filter map[string]any) ([]models.RetrievalHit, error) {
	query := `SELECT id, content, metadata, embedding <=> $1 AS distance
		 FROM index_entries WHERE collection = $2`
	args := []any{toPGVector(vector), b.collection}

	for key, value := range filter {
		args = append(args, key, fmt.Sprint(value))
		query += fmt.Sprintf(" AND metadata->>$%d = $%d", len(args)-1, len(args))
	}

	args = append(args, k)
	query += fmt.Sprintf(" ORDER BY distance LIMIT $%d", len(args))

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search entries: %w", err)
	}
	defer rows.Close()

	var hits []models.RetrievalHit
	for rows.Next() {
		var hit models.RetrievalHit
		var metadata []byte
		if err := rows.Scan(&hit.ID, &hit.Content, &metadata, &hit.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if err := json.Unmarshal(metadata, &hit.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for %s: %w", hit.ID, err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// Delete removes one entry, reporting whether it existed.
func (b *PGVectorBackend) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := b.pool.Exec(ctx,
		`DELETE FROM index_entries WHERE collection = $1 AND id = $2`,
		b.collection, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete entry %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteWhere removes every entry whose metadata value matches.
func (b *PGVectorBackend) DeleteWhere(ctx context.Context, key string, value any) (int, error) {
	tag, err := b.pool.Exec(ctx,
		`DELETE FROM index_entries WHERE collection = $1 AND metadata->>$2 = $3`,
		b.collection, key, fmt.Sprint(value))
	if err != nil {
		return 0, fmt.Errorf("failed to delete entries: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Count returns the number of entries in the collection.
func (b *PGVectorBackend) Count(ctx context.Context) (int, error) {
	var count int
	err := b.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM index_entries WHERE collection = $1`,
		b.collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// Clear drops every entry in the collection.
func (b *PGVectorBackend) Clear(ctx context.Context) error {
	_, err := b.pool.Exec(ctx,
		`DELETE FROM index_entries WHERE collection = $1`, b.collection)
	if err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	return nil
}

// toPGVector converts a float64 vector into the pgvector wire type.
func toPGVector(vector []float64) pgvector.Vector {
	v32 := make([]float32, len(vector))
	for i, v := range vector {
		v32[i] = float32(v)
	}
	return pgvector.NewVector(v32)
}
