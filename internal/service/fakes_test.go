package service

import (
	"context"
	"errors"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/domain"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/port"
)

type fakeEmbedder struct {
	dimension int
	err       error
	embedded  []string
}

func (f *fakeEmbedder) Dimension() int { return f.dimension }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.embedded = append(f.embedded, text)
	return make([]float32, f.dimension), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		f.embedded = append(f.embedded, t)
		out[i] = make([]float32, f.dimension)
	}
	return out, nil
}

type fakeChunkStore struct {
	results   []domain.RetrievedChunk
	searchErr error
	storeErr  error
	stored    map[string][]domain.Chunk
}

func (f *fakeChunkStore) StoreChunks(ctx context.Context, sessionID string, chunks []domain.Chunk) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	if f.stored == nil {
		f.stored = make(map[string][]domain.Chunk)
	}
	f.stored[sessionID] = append(f.stored[sessionID], chunks...)
	return nil
}

func (f *fakeChunkStore) SearchSimilar(ctx context.Context, sessionID string, query []float32, topK int) ([]domain.RetrievedChunk, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

type fakeChatStore struct {
	history []domain.ChatMessage
	saved   []domain.ChatMessage
}

func (f *fakeChatStore) SaveChatMessage(ctx context.Context, sessionID, role, content string) (*domain.ChatMessage, error) {
	msg := domain.ChatMessage{SessionID: sessionID, Role: role, Content: content}
	f.saved = append(f.saved, msg)
	return &msg, nil
}

func (f *fakeChatStore) GetChatHistory(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	if limit < len(f.history) {
		return f.history[len(f.history)-limit:], nil
	}
	return f.history, nil
}

type fakeSessionStore struct {
	sessions map[string]*domain.Session
	deleted  []string
}

func (f *fakeSessionStore) CreateSession(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	if f.sessions == nil {
		f.sessions = make(map[string]*domain.Session)
	}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeSessionStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	if s, ok := f.sessions[id]; ok {
		return s, nil
	}
	return nil, port.ErrSessionNotFound
}

func (f *fakeSessionStore) ListSessions(ctx context.Context) ([]domain.Session, error) {
	var out []domain.Session
	for _, s := range f.sessions {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeSessionStore) DeleteSession(ctx context.Context, id string) error {
	delete(f.sessions, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeStudyStore struct {
	flashcards []domain.Flashcard
	questions  []domain.QuizQuestion
}

func (f *fakeStudyStore) SaveFlashcards(ctx context.Context, sessionID string, cards []domain.Flashcard) ([]domain.Flashcard, error) {
	for i := range cards {
		cards[i].SessionID = sessionID
	}
	f.flashcards = append(f.flashcards, cards...)
	return cards, nil
}

func (f *fakeStudyStore) GetFlashcards(ctx context.Context, sessionID string) ([]domain.Flashcard, error) {
	return f.flashcards, nil
}

func (f *fakeStudyStore) SaveQuizQuestions(ctx context.Context, sessionID string, questions []domain.QuizQuestion) ([]domain.QuizQuestion, error) {
	for i := range questions {
		questions[i].SessionID = sessionID
	}
	f.questions = append(f.questions, questions...)
	return questions, nil
}

func (f *fakeStudyStore) GetQuizQuestions(ctx context.Context, sessionID string) ([]domain.QuizQuestion, error) {
	return f.questions, nil
}

var errStreamBroken = errors.New("stream broken")

// fakeCompleter scripts both one-shot and streaming completions. Streaming
// yields fragments until failAfter (if >= 0), then a terminal error delta.
// It honours context cancellation between fragments.
type fakeCompleter struct {
	chatResponse string
	chatErr      error
	gotMessages  []port.Message
	gotOpts      port.ChatOptions

	fragments []string
	failAfter int // -1 = never fail
}

func (f *fakeCompleter) ModelName() string { return "fake-model" }

func (f *fakeCompleter) Chat(ctx context.Context, messages []port.Message, opts port.ChatOptions) (string, error) {
	f.gotMessages = messages
	f.gotOpts = opts
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.chatResponse, nil
}

func (f *fakeCompleter) ChatStream(ctx context.Context, messages []port.Message, opts port.ChatOptions) (<-chan port.StreamDelta, error) {
	f.gotMessages = messages
	f.gotOpts = opts

	ch := make(chan port.StreamDelta)
	go func() {
		defer close(ch)
		for i, frag := range f.fragments {
			if f.failAfter >= 0 && i == f.failAfter {
				ch <- port.StreamDelta{Err: errStreamBroken}
				return
			}
			select {
			case ch <- port.StreamDelta{Content: frag}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
