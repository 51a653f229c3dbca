// Package ollama embeds text through a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/llms/ollama"

	"docqa/internal/embedding"
)

const (
	DefaultModel   = "nomic-embed-text:latest"
	DefaultBaseURL = "http://localhost:11434"
)

// Config configures the Ollama embedder.
type Config struct {
	Model   string
	BaseURL string
}

type embedClient interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedder implements embedding.Embedder on top of langchaingo's Ollama client.
type Embedder struct {
	client embedClient
	model  string

	mu        sync.RWMutex
	ready     bool
	dimension int
}

// New creates an Ollama embedder. No request is made until Prepare.
func New(cfg Config) (*Embedder, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	llm, err := ollama.New(ollama.WithModel(cfg.Model), ollama.WithServerURL(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("%w: ollama: %v", embedding.ErrInvalidConfig, err)
	}
	return &Embedder{client: llm, model: cfg.Model}, nil
}

func (e *Embedder) Name() string { return "ollama" }

// Prepare probes the server with a single embedding so a missing model is
// reported at load time rather than on the first question.
func (e *Embedder) Prepare(ctx context.Context, _ []string) error {
	vecs, err := e.client.CreateEmbedding(ctx, []string{"ping"})
	if err != nil {
		return fmt.Errorf("%w: ollama %s: %v", embedding.ErrEmbeddingFailed, e.model, err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return fmt.Errorf("%w: ollama %s: empty probe embedding", embedding.ErrEmbeddingFailed, e.model)
	}
	e.mu.Lock()
	e.ready = true
	e.dimension = len(vecs[0])
	e.mu.Unlock()
	return nil
}

func (e *Embedder) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ready
}

func (e *Embedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dimension
}

// Embed returns the embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if !e.Ready() {
		return nil, fmt.Errorf("ollama: %w", embedding.ErrNotReady)
	}
	vecs, err := e.client.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: ollama: %v", embedding.ErrEmbeddingFailed, err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("%w: ollama: no embedding returned", embedding.ErrEmbeddingFailed)
	}
	return embedding.Float64s(vecs[0]), nil
}
