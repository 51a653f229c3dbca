// Package embedding defines the embedding provider contract and wrappers
// shared by every provider implementation.
package embedding

import (
	"context"
	"errors"
)

var (
	// ErrNotReady is returned when Embed is called before Prepare succeeded.
	ErrNotReady = errors.New("embedding provider not ready")

	// ErrEmptyInput indicates empty input text or corpus.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidConfig indicates invalid provider configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates the provider failed to produce a vector.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Embedder converts free text into a fixed-length numeric vector.
// Implementations must be prepared before use; Prepare receives the document
// corpus, which corpus-fitted providers use and model-backed providers ignore.
type Embedder interface {
	Name() string
	Prepare(ctx context.Context, corpus []string) error
	Ready() bool
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Float64s widens a float32 vector returned by model runtimes.
func Float64s(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// Close releases resources held by e or any embedder it wraps.
func Close(e Embedder) error {
	for e != nil {
		if c, ok := e.(interface{ Close() error }); ok {
			return c.Close()
		}
		u, ok := e.(interface{ Unwrap() Embedder })
		if !ok {
			return nil
		}
		e = u.Unwrap()
	}
	return nil
}
