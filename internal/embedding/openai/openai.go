package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"docqa/internal/embedding"
)

// Client is an OpenAI-compatible embeddings client implementing embedding.Embedder.
// Any server speaking the /embeddings API (OpenAI, vLLM, LM Studio, Ollama's
// OpenAI endpoint) can be targeted through BaseURL.
type Client struct {
	client *goopenai.Client
	model  string

	mu        sync.RWMutex
	dimension int
	ready     bool
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: missing API key in env %s", embedding.ErrInvalidConfig, cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = string(goopenai.SmallEmbedding3)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	clientCfg := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Prepare marks the client ready. The remote model needs no corpus fit; the
// dimension is learned from the first response.
func (c *Client) Prepare(_ context.Context, _ []string) error {
	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
	return nil
}

// Ready reports whether Prepare has been called.
func (c *Client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Dimension returns the dimensionality observed so far, 0 before the first call.
func (c *Client) Dimension() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dimension
}

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if !c.Ready() {
		return nil, fmt.Errorf("openai: %w", embedding.ErrNotReady)
	}
	if text == "" {
		return nil, fmt.Errorf("openai: %w: text cannot be empty", embedding.ErrEmptyInput)
	}
	resp, err := c.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Model: goopenai.EmbeddingModel(c.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai: %v", embedding.ErrEmbeddingFailed, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: openai: no embedding returned", embedding.ErrEmbeddingFailed)
	}
	v := embedding.Float64s(resp.Data[0].Embedding)
	c.mu.Lock()
	if c.dimension == 0 {
		c.dimension = len(v)
	}
	c.mu.Unlock()
	return v, nil
}
