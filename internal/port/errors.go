package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrQuestionNotFound  = errors.New("quiz question not found")
	ErrInvalidChunkConfig = errors.New("chunk overlap must be smaller than chunk size")
	ErrDimensionMismatch = errors.New("embedding dimension does not match configured dimension")
	ErrEmptyCompletion   = errors.New("completion returned no content")
	ErrTextTooShort      = errors.New("source text is too short to process")
)
