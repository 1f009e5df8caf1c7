package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/domain"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/port"
)

func newRAGService(chunks *fakeChunkStore, chat *fakeChatStore, completer *fakeCompleter) *RAGService {
	return NewRAGService(&fakeEmbedder{dimension: 4}, completer, chunks, chat, RAGConfig{
		TopK:         5,
		HistoryLimit: 10,
		Temperature:  0.7,
		MaxTokens:    1500,
	})
}

func TestBuildContextFormatsRankedBlocks(t *testing.T) {
	chunks := &fakeChunkStore{results: []domain.RetrievedChunk{
		{Index: 2, Content: "vectors encode meaning", Similarity: 0.91234},
		{Index: 0, Content: "chunking splits text", Similarity: 0.5},
	}}
	svc := newRAGService(chunks, &fakeChatStore{}, &fakeCompleter{failAfter: -1})

	out, err := svc.BuildContext(context.Background(), "s1", "what are embeddings?")
	require.NoError(t, err)

	assert.Equal(t,
		"[Chunk 1 (similarity: 0.91)]:\nvectors encode meaning\n\n"+
			"[Chunk 2 (similarity: 0.50)]:\nchunking splits text",
		out)
}

func TestBuildContextEmptyWhenNoResults(t *testing.T) {
	svc := newRAGService(&fakeChunkStore{}, &fakeChatStore{}, &fakeCompleter{failAfter: -1})

	out, err := svc.BuildContext(context.Background(), "s1", "anything")
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestRespondAssemblesMessages(t *testing.T) {
	chunks := &fakeChunkStore{results: []domain.RetrievedChunk{
		{Index: 0, Content: "relevant chunk", Similarity: 0.8},
	}}
	chat := &fakeChatStore{history: []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "earlier question"},
		{Role: domain.RoleAssistant, Content: "earlier answer"},
	}}
	completer := &fakeCompleter{fragments: []string{"Hi"}, failAfter: -1}
	svc := newRAGService(chunks, chat, completer)

	stream, err := svc.Respond(context.Background(), "s1", "new question")
	require.NoError(t, err)
	for range stream {
	}

	msgs := completer.gotMessages
	require.Len(t, msgs, 5)
	assert.Equal(t, domain.RoleSystem, msgs[0].Role)
	assert.Equal(t, systemPrompt, msgs[0].Content)
	assert.Equal(t, domain.RoleSystem, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "RELEVANT CONTENT FROM THE DOCUMENT:")
	assert.Contains(t, msgs[1].Content, "relevant chunk")
	assert.Equal(t, "earlier question", msgs[2].Content)
	assert.Equal(t, "earlier answer", msgs[3].Content)
	assert.Equal(t, port.Message{Role: domain.RoleUser, Content: "new question"}, msgs[4])

	assert.Equal(t, 0.7, completer.gotOpts.Temperature)
	assert.Equal(t, 1500, completer.gotOpts.MaxTokens)
}

func TestRespondOmitsContextBlockWhenSessionEmpty(t *testing.T) {
	completer := &fakeCompleter{fragments: []string{"no grounding here"}, failAfter: -1}
	svc := newRAGService(&fakeChunkStore{}, &fakeChatStore{}, completer)

	stream, err := svc.Respond(context.Background(), "empty-session", "question")
	require.NoError(t, err)

	var collected string
	for delta := range stream {
		require.NoError(t, delta.Err)
		collected += delta.Content
	}
	assert.Equal(t, "no grounding here", collected)

	// System instruction then user turn, no grounding message between.
	require.Len(t, completer.gotMessages, 2)
	assert.Equal(t, domain.RoleSystem, completer.gotMessages[0].Role)
	assert.Equal(t, domain.RoleUser, completer.gotMessages[1].Role)
}

func TestRespondSurfacesGenerationError(t *testing.T) {
	completer := &fakeCompleter{fragments: []string{"a", "b", "c"}, failAfter: 2}
	svc := newRAGService(&fakeChunkStore{}, &fakeChatStore{}, completer)

	stream, err := svc.Respond(context.Background(), "s1", "question")
	require.NoError(t, err)

	var fragments []string
	var streamErr error
	for delta := range stream {
		if delta.Err != nil {
			streamErr = delta.Err
			break
		}
		fragments = append(fragments, delta.Content)
	}

	assert.Equal(t, []string{"a", "b"}, fragments)
	assert.ErrorIs(t, streamErr, errStreamBroken)
}

func TestRespondStopsOnCancellation(t *testing.T) {
	completer := &fakeCompleter{fragments: []string{"1", "2", "3", "4", "5"}, failAfter: -1}
	svc := newRAGService(&fakeChunkStore{}, &fakeChatStore{}, completer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, err := svc.Respond(ctx, "s1", "question")
	require.NoError(t, err)

	var received []string
	for delta := range stream {
		received = append(received, delta.Content)
		if len(received) == 2 {
			cancel()
			break
		}
	}

	assert.Equal(t, []string{"1", "2"}, received)
}
