//go:build !cgo

// Package fastembed embeds text with local ONNX sentence-transformer models.
package fastembed

import (
	"context"
	"errors"
	"fmt"

	"docqa/internal/embedding"
)

// ErrUnavailable is returned when the binary was built without cgo.
var ErrUnavailable = errors.New("fastembed: not available (binary built without cgo, use the tfidf, ollama or openai embedder)")

// Embedder is a stub for builds without cgo.
type Embedder struct{}

// New always fails without cgo.
func New(_ Config) (*Embedder, error) {
	return nil, fmt.Errorf("%w: %w", embedding.ErrInvalidConfig, ErrUnavailable)
}

func (e *Embedder) Name() string { return "fastembed" }

func (e *Embedder) Prepare(_ context.Context, _ []string) error { return ErrUnavailable }

func (e *Embedder) Ready() bool { return false }

func (e *Embedder) Dimension() int { return 0 }

func (e *Embedder) Close() error { return nil }

func (e *Embedder) Embed(_ context.Context, _ string) ([]float64, error) {
	return nil, ErrUnavailable
}
