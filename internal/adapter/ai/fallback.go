package ai

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"log/slog"
	"math"
	"math/rand"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/port"
)

// remoteEmbedder is the slice of the provider the fallback wrapper needs.
type remoteEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// FallbackEmbedder wraps a remote embedder. When the provider is unreachable
// or errors, it substitutes a deterministic content-seeded pseudo-vector of
// the configured dimensionality. The substitute is not semantically
// meaningful: identical text maps to an identical vector, nothing more. A run
// of fallback warnings in the logs means degraded retrieval quality.
//
// A vector of the wrong dimensionality from a live provider is a
// configuration error, not an outage, and is returned as
// port.ErrDimensionMismatch.
type FallbackEmbedder struct {
	remote    remoteEmbedder
	dimension int
}

// NewFallbackEmbedder wraps remote with deterministic degradation at the
// given dimensionality.
func NewFallbackEmbedder(remote remoteEmbedder, dimension int) *FallbackEmbedder {
	return &FallbackEmbedder{remote: remote, dimension: dimension}
}

// Dimension returns the configured embedding dimensionality.
func (f *FallbackEmbedder) Dimension() int { return f.dimension }

// VerifyDimension embeds a probe text against the live provider and checks
// the result against the configured dimensionality. Intended as a startup
// check; an unreachable provider is not an error here (the fallback path
// matches the configured dimension by construction).
func (f *FallbackEmbedder) VerifyDimension(ctx context.Context) error {
	vec, err := f.remote.Embed(ctx, "dimension probe")
	if err != nil {
		slog.Warn("embedding provider unreachable at startup, fallback vectors will be used", "error", err)
		return nil
	}
	if len(vec) != f.dimension {
		return port.ErrDimensionMismatch
	}
	return nil
}

// Embed returns the provider embedding for text, or the deterministic
// fallback vector if the provider fails.
func (f *FallbackEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := f.remote.Embed(ctx, text)
	if err != nil {
		slog.Warn("embed failed, using deterministic fallback vector", "error", err)
		return f.pseudoVector(text), nil
	}
	if len(vec) != f.dimension {
		return nil, port.ErrDimensionMismatch
	}
	return vec, nil
}

// EmbedBatch embeds texts preserving input order. On provider failure every
// text gets its fallback vector; partial provider output is never mixed with
// fallback output.
func (f *FallbackEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := f.remote.EmbedBatch(ctx, texts)
	if err != nil {
		slog.Warn("embed batch failed, using deterministic fallback vectors", "count", len(texts), "error", err)
		vectors = make([][]float32, len(texts))
		for i, t := range texts {
			vectors[i] = f.pseudoVector(t)
		}
		return vectors, nil
	}
	for _, v := range vectors {
		if len(v) != f.dimension {
			return nil, port.ErrDimensionMismatch
		}
	}
	return vectors, nil
}

// pseudoVector derives an L2-normalized vector purely from the text content,
// so repeated calls on identical text always agree.
func (f *FallbackEmbedder) pseudoVector(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	seed := int64(binary.BigEndian.Uint64(sum[:8]))
	rng := rand.New(rand.NewSource(seed))

	vec := make([]float32, f.dimension)
	var norm float64
	for i := range vec {
		v := rng.Float64()*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
