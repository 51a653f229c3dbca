//go:build cgo

// Package fastembed embeds text with local ONNX sentence-transformer models.
package fastembed

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	fastembed "github.com/anush008/fastembed-go"

	"docqa/internal/embedding"
)

// Embedder runs a fastembed model in-process. The model is downloaded and
// loaded on the first Prepare.
type Embedder struct {
	cfg       Config
	modelID   fastembed.EmbeddingModel
	dimension int

	mu    sync.RWMutex
	model *fastembed.FlagEmbedding
}

var models = map[string]fastembed.EmbeddingModel{
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-small-en":                      fastembed.BGESmallEN,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
	"BAAI/bge-base-en":                       fastembed.BGEBaseEN,
}

var dimensions = map[fastembed.EmbeddingModel]int{
	fastembed.AllMiniLML6V2: 384,
	fastembed.BGESmallENV15: 384,
	fastembed.BGESmallEN:    384,
	fastembed.BGEBaseENV15:  768,
	fastembed.BGEBaseEN:     768,
}

// New validates the model name. No files are touched until Prepare.
func New(cfg Config) (*Embedder, error) {
	cfg = cfg.withDefaults()
	id, ok := models[cfg.Model]
	if !ok {
		id = fastembed.EmbeddingModel(cfg.Model)
		if _, known := dimensions[id]; !known {
			return nil, fmt.Errorf("%w: unsupported fastembed model %q", embedding.ErrInvalidConfig, cfg.Model)
		}
	}
	return &Embedder{cfg: cfg, modelID: id, dimension: dimensions[id]}, nil
}

func (e *Embedder) Name() string { return "fastembed" }

// Prepare loads the model once. Later calls are no-ops.
func (e *Embedder) Prepare(ctx context.Context, _ []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model != nil {
		return nil
	}
	show := e.cfg.ShowProgress
	m, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                e.modelID,
		CacheDir:             filepath.Clean(e.cfg.CacheDir),
		MaxLength:            e.cfg.MaxLength,
		ShowDownloadProgress: &show,
	})
	if err != nil {
		return fmt.Errorf("%w: loading %s: %v", embedding.ErrEmbeddingFailed, e.cfg.Model, err)
	}
	e.model = m
	return nil
}

func (e *Embedder) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model != nil
}

func (e *Embedder) Dimension() int { return e.dimension }

// Embed returns the model embedding of text. Queries and passages share one
// encoding so the evaluator can compare two answers symmetrically.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.model == nil {
		return nil, fmt.Errorf("fastembed: %w", embedding.ErrNotReady)
	}
	vecs, err := e.model.Embed([]string{text}, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: fastembed: %v", embedding.ErrEmbeddingFailed, err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("%w: fastembed: no embedding returned", embedding.ErrEmbeddingFailed)
	}
	return embedding.Float64s(vecs[0]), nil
}

// Close releases the ONNX session.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model == nil {
		return nil
	}
	err := e.model.Destroy()
	e.model = nil
	return err
}
