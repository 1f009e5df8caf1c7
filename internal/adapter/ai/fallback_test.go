package ai

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/port"
)

// stubRemote simulates a provider that is either healthy at a fixed
// dimension or entirely down.
type stubRemote struct {
	dimension int
	down      bool
	calls     int
}

var errProviderDown = errors.New("connection refused")

func (s *stubRemote) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.down {
		return nil, errProviderDown
	}
	vec := make([]float32, s.dimension)
	vec[0] = float32(len(text))
	return vec, nil
}

func (s *stubRemote) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.down {
		return nil, errProviderDown
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, s.dimension)
		vec[0] = float32(len(t))
		out[i] = vec
	}
	return out, nil
}

func TestFallbackEmbedPassesThroughHealthyProvider(t *testing.T) {
	remote := &stubRemote{dimension: 8}
	f := NewFallbackEmbedder(remote, 8)

	vec, err := f.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 8)
	assert.Equal(t, float32(5), vec[0])
}

func TestFallbackEmbedDeterministicWhenProviderDown(t *testing.T) {
	f := NewFallbackEmbedder(&stubRemote{down: true}, 16)

	a, err := f.Embed(context.Background(), "the same text")
	require.NoError(t, err)
	b, err := f.Embed(context.Background(), "the same text")
	require.NoError(t, err)
	other, err := f.Embed(context.Background(), "different text")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)
	assert.Len(t, a, 16)

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestFallbackEmbedBatchPreservesOrder(t *testing.T) {
	texts := []string{"a", "bb", "ccc", "dddd"}

	healthy := NewFallbackEmbedder(&stubRemote{dimension: 4}, 4)
	vectors, err := healthy.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, tx := range texts {
		assert.Equal(t, float32(len(tx)), vectors[i][0])
	}

	down := NewFallbackEmbedder(&stubRemote{down: true}, 4)
	vectors, err = down.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, tx := range texts {
		single, err := down.Embed(context.Background(), tx)
		require.NoError(t, err)
		assert.Equal(t, single, vectors[i], "batch and single fallback must agree for %q", tx)
	}
}

func TestFallbackRejectsDimensionMismatch(t *testing.T) {
	f := NewFallbackEmbedder(&stubRemote{dimension: 32}, 16)

	_, err := f.Embed(context.Background(), "probe")
	assert.ErrorIs(t, err, port.ErrDimensionMismatch)

	_, err = f.EmbedBatch(context.Background(), []string{"probe"})
	assert.ErrorIs(t, err, port.ErrDimensionMismatch)

	assert.ErrorIs(t, f.VerifyDimension(context.Background()), port.ErrDimensionMismatch)
}

func TestVerifyDimensionToleratesOutage(t *testing.T) {
	f := NewFallbackEmbedder(&stubRemote{down: true}, 16)
	assert.NoError(t, f.VerifyDimension(context.Background()))
}
