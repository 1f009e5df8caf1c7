package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/domain"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/port"
)

// MemoryStore is an in-memory chunk store using brute-force cosine
// similarity. It implements the same contract as VectorStore and is used in
// tests and database-less development.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	chunks    map[string][]domain.Chunk // keyed by session ID
}

// NewMemoryStore creates an empty in-memory store for the given
// dimensionality.
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{dimension: dimension, chunks: make(map[string][]domain.Chunk)}
}

// StoreChunks persists all chunks for a session atomically: dimension checks
// run before anything is appended.
func (m *MemoryStore) StoreChunks(ctx context.Context, sessionID string, chunks []domain.Chunk) error {
	for _, c := range chunks {
		if len(c.Embedding) != m.dimension {
			return fmt.Errorf("chunk %d: %w", c.Index, port.ErrDimensionMismatch)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[sessionID] = append(m.chunks[sessionID], chunks...)
	return nil
}

// SearchSimilar returns up to topK chunks of the session by descending cosine
// similarity, equal scores ordered by ascending chunk index.
func (m *MemoryStore) SearchSimilar(ctx context.Context, sessionID string, query []float32, topK int) ([]domain.RetrievedChunk, error) {
	if len(query) != m.dimension {
		return nil, port.ErrDimensionMismatch
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.chunks[sessionID]
	results := make([]domain.RetrievedChunk, 0, len(stored))
	for _, c := range stored {
		results = append(results, domain.RetrievedChunk{
			Index:      c.Index,
			Content:    c.Content,
			Similarity: cosineSimilarity(query, c.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Index < results[j].Index
	})

	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
