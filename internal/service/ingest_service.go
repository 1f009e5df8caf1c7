package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/adapter/chunker"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/domain"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/port"
)

// MinWordCount is the minimum source length accepted for ingestion.
const MinWordCount = 50

// IngestService turns raw source text into a session with vectorized chunks.
type IngestService struct {
	sessions port.SessionStore
	chunks   port.ChunkStore
	chunker  *chunker.WordChunker
	embedder port.Embedder
}

// NewIngestService creates an ingestion service.
func NewIngestService(sessions port.SessionStore, chunks port.ChunkStore, ch *chunker.WordChunker, embedder port.Embedder) *IngestService {
	return &IngestService{sessions: sessions, chunks: chunks, chunker: ch, embedder: embedder}
}

// Ingest creates a session from source text: chunk, embed in one batch, and
// persist the chunk batch atomically. All fallible work (chunking, embedding)
// happens before the first database write; if the chunk write itself fails,
// the session row is rolled back so no partial state survives.
// Returns the created session and its chunk count.
func (s *IngestService) Ingest(ctx context.Context, title, sourceType, sourceURL, text string) (*domain.Session, int, error) {
	wordCount := len(strings.Fields(text))
	if wordCount < MinWordCount {
		return nil, 0, port.ErrTextTooShort
	}

	pieces := s.chunker.Chunk(text)
	slog.Info("ingesting source", "title", title, "source_type", sourceType, "words", wordCount, "chunks", len(pieces))

	// Fallback embedding guarantees this only fails on misconfiguration,
	// never on provider outage.
	vectors, err := s.embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		return nil, 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(pieces) {
		return nil, 0, fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(pieces))
	}

	sessionID := uuid.NewString()
	chunks := make([]domain.Chunk, len(pieces))
	for i, content := range pieces {
		chunks[i] = domain.Chunk{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Index:     i,
			Content:   content,
			Embedding: vectors[i],
		}
	}

	session, err := s.sessions.CreateSession(ctx, &domain.Session{
		ID:         sessionID,
		Title:      title,
		SourceType: sourceType,
		SourceURL:  sourceURL,
		RawText:    text,
		WordCount:  wordCount,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("create session: %w", err)
	}

	if err := s.chunks.StoreChunks(ctx, sessionID, chunks); err != nil {
		if delErr := s.sessions.DeleteSession(ctx, sessionID); delErr != nil {
			slog.Error("rollback of half-ingested session failed", "session_id", sessionID, "error", delErr)
		}
		return nil, 0, fmt.Errorf("store chunks: %w", err)
	}

	return session, len(chunks), nil
}
