// Package provider builds embedders from application configuration.
package provider

import (
	"fmt"
	"time"

	"docqa/internal/config"
	"docqa/internal/embedding"
	"docqa/internal/embedding/fastembed"
	"docqa/internal/embedding/ollama"
	"docqa/internal/embedding/openai"
	"docqa/internal/embedding/tfidf"
)

// Factory returns the embedder for a new session.
type Factory func() (embedding.Embedder, error)

// New builds an embedder for cfg, wrapped with metrics and, for remote
// providers, the configured rate limit.
func New(cfg config.EmbedderConfig) (embedding.Embedder, error) {
	var (
		e      embedding.Embedder
		remote bool
	)
	switch cfg.Type {
	case "tfidf", "":
		e = tfidf.NewEmbedder()
	case "openai":
		oc := config.OpenAIEmbedderConfig{}
		if cfg.OpenAI != nil {
			oc = *cfg.OpenAI
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   oc.BaseURL,
			APIKeyEnv: oc.APIKeyEnv,
			Model:     oc.Model,
			Timeout:   time.Duration(oc.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		e, remote = client, true
	case "ollama":
		oc := config.OllamaEmbedderConfig{}
		if cfg.Ollama != nil {
			oc = *cfg.Ollama
		}
		client, err := ollama.New(ollama.Config{Model: oc.Model, BaseURL: oc.BaseURL})
		if err != nil {
			return nil, err
		}
		e, remote = client, true
	case "fastembed":
		fc := config.FastEmbedConfig{}
		if cfg.FastEmbed != nil {
			fc = *cfg.FastEmbed
		}
		model, err := fastembed.New(fastembed.Config{
			Model:     fc.Model,
			CacheDir:  fc.CacheDir,
			MaxLength: fc.MaxLength,
		})
		if err != nil {
			return nil, err
		}
		e = model
	default:
		return nil, fmt.Errorf("%w: unknown embedder %q", embedding.ErrInvalidConfig, cfg.Type)
	}
	if remote {
		e = embedding.WithRateLimit(e, cfg.RateLimit, cfg.Burst)
	}
	return embedding.WithMetrics(e), nil
}

// NewFactory validates cfg once and returns a Factory with a release func.
// A corpus-fitted tfidf embedder is bound to the document it was prepared on,
// so every call builds a new one. Model-backed providers hold a model or a
// client that does not depend on the document; those are built once and
// shared, and only release closes them.
func NewFactory(cfg config.EmbedderConfig) (Factory, func() error, error) {
	e, err := New(cfg)
	if err != nil {
		return nil, nil, err
	}
	if corpusFitted(cfg.Type) {
		return func() (embedding.Embedder, error) { return New(cfg) }, func() error { return nil }, nil
	}
	s := shared{e}
	return func() (embedding.Embedder, error) { return s, nil }, func() error { return embedding.Close(e) }, nil
}

func corpusFitted(typ string) bool {
	return typ == "tfidf" || typ == ""
}

// shared hides Close and Unwrap so a session closing its embedder leaves
// the underlying model loaded for the other sessions.
type shared struct {
	embedding.Embedder
}
