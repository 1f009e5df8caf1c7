package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/adapter/ai"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/adapter/chunker"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/domain"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/port"
)

func genWords(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("word%d", i)
	}
	return strings.Join(parts, " ")
}

func newIngestService(t *testing.T, sessions *fakeSessionStore, chunks *fakeChunkStore, embedder port.Embedder) *IngestService {
	t.Helper()
	ch, err := chunker.NewWordChunker(800, 100)
	require.NoError(t, err)
	return NewIngestService(sessions, chunks, ch, embedder)
}

func TestIngestCreatesSessionAndChunks(t *testing.T) {
	sessions := &fakeSessionStore{}
	chunks := &fakeChunkStore{}
	svc := newIngestService(t, sessions, chunks, &fakeEmbedder{dimension: 8})

	session, count, err := svc.Ingest(context.Background(),
		"Intro to Vectors", domain.SourceTypeYouTube, "https://youtu.be/dQw4w9WgXcQ", genWords(2000))
	require.NoError(t, err)

	// 2000 words at 800/100 -> windows [0,800), [700,1500), [1400,2000).
	assert.Equal(t, 3, count)
	assert.Equal(t, "Intro to Vectors", session.Title)
	assert.Equal(t, 2000, session.WordCount)
	require.NotEmpty(t, session.ID)

	stored := chunks.stored[session.ID]
	require.Len(t, stored, 3)
	for i, c := range stored {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, session.ID, c.SessionID)
		assert.Len(t, c.Embedding, 8)
		assert.NotEmpty(t, c.ID)
	}
}

func TestIngestRejectsShortText(t *testing.T) {
	svc := newIngestService(t, &fakeSessionStore{}, &fakeChunkStore{}, &fakeEmbedder{dimension: 8})

	_, _, err := svc.Ingest(context.Background(),
		"Too short", domain.SourceTypePDF, "doc.pdf", genWords(49))
	assert.ErrorIs(t, err, port.ErrTextTooShort)
}

func TestIngestSucceedsWhenEmbeddingProviderDown(t *testing.T) {
	// A dead provider must not fail ingestion: the fallback embedder takes
	// over with deterministic vectors of the configured dimensionality.
	sessions := &fakeSessionStore{}
	chunks := &fakeChunkStore{}
	embedder := ai.NewFallbackEmbedder(&downRemote{}, 12)
	svc := newIngestService(t, sessions, chunks, embedder)

	session, count, err := svc.Ingest(context.Background(),
		"One chunk doc", domain.SourceTypePDF, "doc.pdf", genWords(60))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored := chunks.stored[session.ID]
	require.Len(t, stored, 1)
	assert.Len(t, stored[0].Embedding, 12)
}

func TestIngestRollsBackSessionOnChunkWriteFailure(t *testing.T) {
	sessions := &fakeSessionStore{}
	chunks := &fakeChunkStore{storeErr: errors.New("disk full")}
	svc := newIngestService(t, sessions, chunks, &fakeEmbedder{dimension: 8})

	_, _, err := svc.Ingest(context.Background(),
		"Doomed", domain.SourceTypePDF, "doc.pdf", genWords(100))
	require.Error(t, err)

	assert.Empty(t, sessions.sessions)
	assert.Len(t, sessions.deleted, 1)
}

// downRemote always fails, simulating an unreachable embedding provider.
type downRemote struct{}

func (downRemote) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("connection refused")
}

func (downRemote) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("connection refused")
}
