package port

import (
	"context"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/domain"
)

// SessionStore persists sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s *domain.Session) (*domain.Session, error)
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	ListSessions(ctx context.Context) ([]domain.Session, error)

	// DeleteSession removes a session and its cascaded artifacts. Used only
	// to roll back a half-finished ingestion; completed sessions are never
	// deleted by the core.
	DeleteSession(ctx context.Context, id string) error
}

// ChunkStore persists vectorized chunks and answers similarity queries.
type ChunkStore interface {
	// StoreChunks writes all chunks for a session in one transaction.
	// Either every chunk is persisted or none is.
	StoreChunks(ctx context.Context, sessionID string, chunks []domain.Chunk) error

	// SearchSimilar returns up to topK chunks of the given session ordered by
	// descending cosine similarity, ties broken by ascending chunk index.
	// A session with no chunks yields an empty slice, not an error.
	SearchSimilar(ctx context.Context, sessionID string, query []float32, topK int) ([]domain.RetrievedChunk, error)
}

// ChatStore persists conversation turns.
type ChatStore interface {
	SaveChatMessage(ctx context.Context, sessionID, role, content string) (*domain.ChatMessage, error)

	// GetChatHistory returns the most recent limit messages in chronological
	// (oldest first) order.
	GetChatHistory(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error)
}

// StudyStore persists generated flashcards and quiz questions.
type StudyStore interface {
	SaveFlashcards(ctx context.Context, sessionID string, cards []domain.Flashcard) ([]domain.Flashcard, error)
	GetFlashcards(ctx context.Context, sessionID string) ([]domain.Flashcard, error)
	SaveQuizQuestions(ctx context.Context, sessionID string, questions []domain.QuizQuestion) ([]domain.QuizQuestion, error)
	GetQuizQuestions(ctx context.Context, sessionID string) ([]domain.QuizQuestion, error)
}
