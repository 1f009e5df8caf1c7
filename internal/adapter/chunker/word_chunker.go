package chunker

import (
	"strings"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/port"
)

// WordChunker splits raw text into overlapping windows of whitespace-delimited
// words. Window i covers words [i*(size-overlap), i*(size-overlap)+size).
type WordChunker struct {
	size    int
	overlap int
}

// NewWordChunker validates the configuration and returns a chunker.
// overlap >= size would never advance, so it is rejected up front.
func NewWordChunker(size, overlap int) (*WordChunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, port.ErrInvalidChunkConfig
	}
	return &WordChunker{size: size, overlap: overlap}, nil
}

// Size returns the configured window size in words.
func (c *WordChunker) Size() int { return c.size }

// Overlap returns the configured overlap in words.
func (c *WordChunker) Overlap() int { return c.overlap }

// Chunk splits text into ordered overlapping chunks. Whitespace-only windows
// are dropped. The output is deterministic for a given input.
func (c *WordChunker) Chunk(text string) []string {
	words := strings.Fields(text)
	var chunks []string
	step := c.size - c.overlap
	for start := 0; start < len(words); start += step {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[start:end], " ")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}
