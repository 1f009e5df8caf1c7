package store

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/domain"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/port"
)

// VectorStore handles pgvector-specific operations for chunk embeddings.
type VectorStore struct {
	store     *PostgresStore
	dimension int
}

// NewVectorStore creates a vector store backed by the given Postgres store.
func NewVectorStore(store *PostgresStore, dimension int) *VectorStore {
	return &VectorStore{store: store, dimension: dimension}
}

// StoreChunks persists all chunks of a session in one transaction. Either
// every chunk row is written or none is; a dimension mismatch aborts before
// any row is committed.
func (v *VectorStore) StoreChunks(ctx context.Context, sessionID string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for _, c := range chunks {
		if len(c.Embedding) != v.dimension {
			return fmt.Errorf("chunk %d: %w", c.Index, port.ErrDimensionMismatch)
		}
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, session_id, chunk_index, content, embedding)
		 VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx,
			c.ID, sessionID, c.Index, c.Content, pgvector.NewVector(c.Embedding),
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.Index, err)
		}
	}

	return tx.Commit()
}

// SearchSimilar performs a session-scoped cosine similarity search.
// Results are ordered by descending similarity; equal distances fall back to
// ascending chunk index so the ordering is deterministic.
func (v *VectorStore) SearchSimilar(ctx context.Context, sessionID string, query []float32, topK int) ([]domain.RetrievedChunk, error) {
	if len(query) != v.dimension {
		return nil, port.ErrDimensionMismatch
	}

	sqlQuery := `SELECT chunk_index, content, 1 - (embedding <=> $1) AS similarity
	             FROM chunks
	             WHERE session_id = $2
	             ORDER BY embedding <=> $1, chunk_index ASC
	             LIMIT $3`

	rows, err := v.store.db.QueryContext(ctx, sqlQuery, pgvector.NewVector(query), sessionID, topK)
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}
	defer rows.Close()

	var results []domain.RetrievedChunk
	for rows.Next() {
		var rc domain.RetrievedChunk
		if err := rows.Scan(&rc.Index, &rc.Content, &rc.Similarity); err != nil {
			return nil, fmt.Errorf("scan similar: %w", err)
		}
		results = append(results, rc)
	}
	return results, rows.Err()
}
