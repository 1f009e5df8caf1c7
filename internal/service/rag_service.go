package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/domain"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/port"
)

// systemPrompt is the static domain-grounding instruction for chat. It never
// varies by session.
const systemPrompt = `You are an intelligent learning assistant helping a student understand content they've uploaded or shared.

Your capabilities:
- Answer questions about the provided content accurately
- Explain concepts in simple, clear language
- Provide examples when helpful
- Point out connections between ideas
- Be honest when something isn't covered in the provided context

Always ground your answers in the provided context. If the question cannot be answered from the context, say so clearly but still try to be helpful.`

// RAGService handles retrieval-augmented generation over a session's chunks:
// context building from vector search and streaming chat orchestration.
type RAGService struct {
	embedder  port.Embedder
	completer port.Completer
	chunks    port.ChunkStore
	chat      port.ChatStore

	topK         int
	historyLimit int
	chatOpts     port.ChatOptions
}

// RAGConfig tunes retrieval and generation.
type RAGConfig struct {
	TopK         int
	HistoryLimit int
	Temperature  float64
	MaxTokens    int
}

// NewRAGService creates a RAG service.
func NewRAGService(embedder port.Embedder, completer port.Completer, chunks port.ChunkStore, chat port.ChatStore, cfg RAGConfig) *RAGService {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	return &RAGService{
		embedder:     embedder,
		completer:    completer,
		chunks:       chunks,
		chat:         chat,
		topK:         cfg.TopK,
		historyLimit: cfg.HistoryLimit,
		chatOpts: port.ChatOptions{
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
	}
}

// BuildContext embeds the query, retrieves the top-k most similar chunks of
// the session, and formats them as labelled context blocks. An empty string
// means no grounding is available; callers must not treat that as an error.
func (s *RAGService) BuildContext(ctx context.Context, sessionID, query string) (string, error) {
	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	results, err := s.chunks.SearchSimilar(ctx, sessionID, queryVector, s.topK)
	if err != nil {
		return "", fmt.Errorf("search similar: %w", err)
	}
	if len(results) == 0 {
		return "", nil
	}

	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[Chunk %d (similarity: %.2f)]:\n%s", i+1, r.Similarity, r.Content)
	}
	return strings.Join(blocks, "\n\n"), nil
}

// Respond streams a grounded answer to userMessage. It retrieves context,
// recalls the most recent turns in chronological order, assembles the message
// list, and forwards the provider's incremental output. The stream terminates
// either normally (channel closed) or with a single error-carrying delta.
// Cancelling ctx stops the provider stream.
//
// Persisting the user and assistant turns is the caller's responsibility.
func (s *RAGService) Respond(ctx context.Context, sessionID, userMessage string) (<-chan port.StreamDelta, error) {
	ragContext, err := s.BuildContext(ctx, sessionID, userMessage)
	if err != nil {
		return nil, err
	}

	history, err := s.chat.GetChatHistory(ctx, sessionID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("get chat history: %w", err)
	}

	messages := make([]port.Message, 0, len(history)+3)
	messages = append(messages, port.Message{Role: domain.RoleSystem, Content: systemPrompt})
	if ragContext != "" {
		messages = append(messages, port.Message{
			Role:    domain.RoleSystem,
			Content: "RELEVANT CONTENT FROM THE DOCUMENT:\n\n" + ragContext,
		})
	} else {
		slog.Info("no grounding context retrieved", "session_id", sessionID)
	}
	for _, msg := range history {
		messages = append(messages, port.Message{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, port.Message{Role: domain.RoleUser, Content: userMessage})

	stream, err := s.completer.ChatStream(ctx, messages, s.chatOpts)
	if err != nil {
		return nil, fmt.Errorf("chat stream: %w", err)
	}
	return stream, nil
}
