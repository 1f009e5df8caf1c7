package port

import "context"

// Message is one entry in a chat completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamDelta is one increment of a streaming completion. Exactly one of
// Content or Err is set; a delta with Err != nil is always the last one.
type StreamDelta struct {
	Content string
	Err     error
}

// Embedder generates fixed-dimensional vector embeddings for text.
// EmbedBatch must return one vector per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// ChatOptions tunes a completion call.
type ChatOptions struct {
	Temperature float64
	MaxTokens   int
	JSONFormat  bool
}

// Completer abstracts the chat-completion backend.
// Implementations can target Ollama, OpenAI, or any compatible API.
type Completer interface {
	// ModelName returns the identifier of the chat model being used.
	ModelName() string

	// Chat sends a full message list and returns the complete response.
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error)

	// ChatStream sends a full message list and streams the response
	// incrementally. The channel is closed when the stream ends; a terminal
	// provider failure is delivered as a delta with Err set. Cancelling ctx
	// stops the stream and releases the underlying connection.
	ChatStream(ctx context.Context, messages []Message, opts ChatOptions) (<-chan StreamDelta, error)
}
