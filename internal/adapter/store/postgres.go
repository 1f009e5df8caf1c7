package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/domain"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/port"
)

// PostgresStore handles all relational database operations.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// InitSchema creates the pgvector extension and all tables if they do not
// exist. dimension fixes the vector column width; changing it requires a
// migration of the chunks table.
func (s *PostgresStore) InitSchema(ctx context.Context, dimension int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			source_type TEXT NOT NULL CHECK (source_type IN ('youtube', 'pdf')),
			source_url TEXT,
			raw_text TEXT,
			word_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			id UUID PRIMARY KEY,
			session_id UUID REFERENCES sessions(id) ON DELETE CASCADE,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d),
			created_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE (session_id, chunk_index)
		)`, dimension),

		`CREATE INDEX IF NOT EXISTS chunks_embedding_idx
			ON chunks USING ivfflat (embedding vector_cosine_ops)
			WITH (lists = 100)`,

		`CREATE TABLE IF NOT EXISTS chat_messages (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			session_id UUID REFERENCES sessions(id) ON DELETE CASCADE,
			role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS flashcards (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			session_id UUID REFERENCES sessions(id) ON DELETE CASCADE,
			front TEXT NOT NULL,
			back TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS quiz_questions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			session_id UUID REFERENCES sessions(id) ON DELETE CASCADE,
			question TEXT NOT NULL,
			options JSONB NOT NULL,
			correct_answer INTEGER NOT NULL,
			explanation TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS audit_logs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			action TEXT NOT NULL,
			resource TEXT NOT NULL,
			resource_id TEXT,
			details JSONB,
			ip TEXT,
			user_agent TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// --- Sessions ---

// CreateSession inserts a new session record. The caller assigns the ID.
func (s *PostgresStore) CreateSession(ctx context.Context, sess *domain.Session) (*domain.Session, error) {
	query := `INSERT INTO sessions (id, title, source_type, source_url, raw_text, word_count)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, title, source_type, source_url, raw_text, word_count, created_at`

	var result domain.Session
	err := s.db.QueryRowContext(ctx, query,
		sess.ID, sess.Title, sess.SourceType, sess.SourceURL, sess.RawText, sess.WordCount,
	).Scan(
		&result.ID, &result.Title, &result.SourceType, &result.SourceURL,
		&result.RawText, &result.WordCount, &result.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &result, nil
}

// GetSession returns a session by its ID.
func (s *PostgresStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT id, title, source_type, source_url, raw_text, word_count, created_at
	          FROM sessions WHERE id = $1`

	var sess domain.Session
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&sess.ID, &sess.Title, &sess.SourceType, &sess.SourceURL,
		&sess.RawText, &sess.WordCount, &sess.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

// DeleteSession removes a session; chunks, chat history, flashcards, and
// quiz questions cascade.
func (s *PostgresStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ListSessions returns all sessions, newest first. Raw text is omitted.
func (s *PostgresStore) ListSessions(ctx context.Context) ([]domain.Session, error) {
	query := `SELECT id, title, source_type, source_url, word_count, created_at
	          FROM sessions ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var sess domain.Session
		if err := rows.Scan(
			&sess.ID, &sess.Title, &sess.SourceType, &sess.SourceURL,
			&sess.WordCount, &sess.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// --- Chat messages ---

// SaveChatMessage appends one conversation turn.
func (s *PostgresStore) SaveChatMessage(ctx context.Context, sessionID, role, content string) (*domain.ChatMessage, error) {
	query := `INSERT INTO chat_messages (session_id, role, content)
	          VALUES ($1, $2, $3)
	          RETURNING id, session_id, role, content, created_at`

	var msg domain.ChatMessage
	err := s.db.QueryRowContext(ctx, query, sessionID, role, content).Scan(
		&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("save chat message: %w", err)
	}
	return &msg, nil
}

// GetChatHistory returns the most recent limit messages in chronological
// (oldest first) order.
func (s *PostgresStore) GetChatHistory(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	query := `SELECT id, session_id, role, content, created_at FROM (
	              SELECT id, session_id, role, content, created_at
	              FROM chat_messages
	              WHERE session_id = $1
	              ORDER BY created_at DESC
	              LIMIT $2
	          ) recent ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("get chat history: %w", err)
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// --- Flashcards ---

// SaveFlashcards inserts generated flashcards in one transaction.
func (s *PostgresStore) SaveFlashcards(ctx context.Context, sessionID string, cards []domain.Flashcard) ([]domain.Flashcard, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	saved := make([]domain.Flashcard, 0, len(cards))
	for _, card := range cards {
		var fc domain.Flashcard
		err := tx.QueryRowContext(ctx,
			`INSERT INTO flashcards (session_id, front, back) VALUES ($1, $2, $3)
			 RETURNING id, session_id, front, back, created_at`,
			sessionID, card.Front, card.Back,
		).Scan(&fc.ID, &fc.SessionID, &fc.Front, &fc.Back, &fc.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert flashcard: %w", err)
		}
		saved = append(saved, fc)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit flashcards: %w", err)
	}
	return saved, nil
}

// GetFlashcards returns all flashcards for a session.
func (s *PostgresStore) GetFlashcards(ctx context.Context, sessionID string) ([]domain.Flashcard, error) {
	query := `SELECT id, session_id, front, back, created_at
	          FROM flashcards WHERE session_id = $1 ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get flashcards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Flashcard
	for rows.Next() {
		var fc domain.Flashcard
		if err := rows.Scan(&fc.ID, &fc.SessionID, &fc.Front, &fc.Back, &fc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan flashcard: %w", err)
		}
		cards = append(cards, fc)
	}
	return cards, rows.Err()
}

// --- Quiz questions ---

// SaveQuizQuestions inserts generated quiz questions in one transaction.
func (s *PostgresStore) SaveQuizQuestions(ctx context.Context, sessionID string, questions []domain.QuizQuestion) ([]domain.QuizQuestion, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	saved := make([]domain.QuizQuestion, 0, len(questions))
	for _, q := range questions {
		optionsJSON, err := json.Marshal(q.Options)
		if err != nil {
			return nil, fmt.Errorf("marshal options: %w", err)
		}

		var result domain.QuizQuestion
		var rawOptions []byte
		err = tx.QueryRowContext(ctx,
			`INSERT INTO quiz_questions (session_id, question, options, correct_answer, explanation)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, session_id, question, options, correct_answer, explanation, created_at`,
			sessionID, q.Question, optionsJSON, q.CorrectAnswer, q.Explanation,
		).Scan(&result.ID, &result.SessionID, &result.Question, &rawOptions,
			&result.CorrectAnswer, &result.Explanation, &result.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert quiz question: %w", err)
		}
		if err := json.Unmarshal(rawOptions, &result.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		saved = append(saved, result)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit quiz questions: %w", err)
	}
	return saved, nil
}

// GetQuizQuestions returns all quiz questions for a session.
func (s *PostgresStore) GetQuizQuestions(ctx context.Context, sessionID string) ([]domain.QuizQuestion, error) {
	query := `SELECT id, session_id, question, options, correct_answer, explanation, created_at
	          FROM quiz_questions WHERE session_id = $1 ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get quiz questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.QuizQuestion
	for rows.Next() {
		var q domain.QuizQuestion
		var rawOptions []byte
		if err := rows.Scan(&q.ID, &q.SessionID, &q.Question, &rawOptions,
			&q.CorrectAnswer, &q.Explanation, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz question: %w", err)
		}
		if err := json.Unmarshal(rawOptions, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// --- Audit logs ---

// WriteAudit implements middleware.AuditWriter.
func (s *PostgresStore) WriteAudit(action, resource, resourceID, details, ip, userAgent string) error {
	query := `INSERT INTO audit_logs (action, resource, resource_id, details, ip, user_agent)
	          VALUES ($1, $2, $3, $4::jsonb, $5, $6)`
	_, err := s.db.ExecContext(context.Background(), query,
		action, resource, resourceID, details, ip, userAgent,
	)
	return err
}

// ListAuditLogs returns recent audit logs, newest first.
func (s *PostgresStore) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	query := `SELECT id, action, resource, resource_id, details, ip, user_agent, created_at
	          FROM audit_logs ORDER BY created_at DESC LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(&l.ID, &l.Action, &l.Resource, &l.ResourceID,
			&l.Details, &l.IP, &l.UserAgent, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
