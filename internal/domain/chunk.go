package domain

import "time"

// Chunk is an overlapping slice of a session's raw text, vectorized and
// stored in pgvector for similarity search.
type Chunk struct {
	ID        string    `json:"id"          db:"id"`
	SessionID string    `json:"session_id"  db:"session_id"`
	Index     int       `json:"chunk_index" db:"chunk_index"`
	Content   string    `json:"content"     db:"content"`
	Embedding []float32 `json:"-"           db:"embedding"`
	CreatedAt time.Time `json:"created_at"  db:"created_at"`
}

// RetrievedChunk is returned by similarity search. Similarity is cosine
// similarity (1 - cosine distance), descending in search results.
type RetrievedChunk struct {
	Index      int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}
