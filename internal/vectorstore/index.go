// Package vectorstore holds the in-memory vector index for one loaded document.
package vectorstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"docqa/internal/domain"
	"docqa/internal/embedding"
)

// DefaultTopK is used when Search is called with a non-positive topK.
const DefaultTopK = 3

// ProgressFunc receives (current, total) after each chunk is embedded.
type ProgressFunc func(current, total int)

// Index is a brute-force cosine index over the chunks of one document.
// A build replaces the contents wholesale and only becomes visible once
// every chunk has been embedded.
type Index struct {
	embedder embedding.Embedder
	logger   *zap.Logger

	build   sync.Mutex
	mu      sync.RWMutex
	vectors []domain.IndexedVector
}

// NewIndex creates an empty index that embeds through e.
func NewIndex(e embedding.Embedder, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{embedder: e, logger: logger}
}

// AddDocuments embeds chunks in order and replaces the index contents with
// them. Every vector must have the embedder's reported dimension, or the
// length of the first vector when the embedder does not know it yet. On
// failure the previous contents are kept and the error is returned.
func (x *Index) AddDocuments(ctx context.Context, chunks []domain.Chunk, onProgress ProgressFunc) error {
	x.build.Lock()
	defer x.build.Unlock()

	dim := x.embedder.Dimension()
	built := make([]domain.IndexedVector, 0, len(chunks))
	for i, c := range chunks {
		v, err := x.embedder.Embed(ctx, c.Text)
		if err == nil {
			if dim <= 0 {
				dim = len(v)
			}
			if len(v) != dim {
				err = fmt.Errorf("%w: dimension %d, want %d", embedding.ErrEmbeddingFailed, len(v), dim)
			}
		}
		if err != nil {
			x.logger.Warn("index build failed",
				zap.Int("chunk", c.Index),
				zap.Int("done", i),
				zap.Int("total", len(chunks)),
				zap.Error(err))
			return fmt.Errorf("embed chunk %d: %w", c.Index, err)
		}
		built = append(built, domain.IndexedVector{Chunk: c, Embedding: v})
		if onProgress != nil {
			onProgress(i+1, len(chunks))
		}
	}

	x.mu.Lock()
	x.vectors = built
	x.mu.Unlock()

	x.logger.Info("index built",
		zap.String("embedder", x.embedder.Name()),
		zap.Int("chunks", len(built)),
		zap.Int("dimension", dim))
	return nil
}

// Search returns up to topK chunks ranked by cosine similarity to query,
// highest first. Equal scores keep insertion order. An empty index or a
// blank query yields no results without calling the embedder.
func (x *Index) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if x.Size() == 0 || strings.TrimSpace(query) == "" {
		return []domain.SearchResult{}, nil
	}

	q, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	x.mu.RLock()
	results := make([]domain.SearchResult, len(x.vectors))
	for i, v := range x.vectors {
		results[i] = domain.SearchResult{Chunk: v.Chunk, Score: CosineSimilarity(q, v.Embedding)}
	}
	x.mu.RUnlock()

	slices.SortStableFunc(results, func(a, b domain.SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if topK < len(results) {
		results = results[:topK]
	}

	top := 0.0
	if len(results) > 0 {
		top = results[0].Score
	}
	x.logger.Debug("search",
		zap.Int("query_len", len(query)),
		zap.Int("results", len(results)),
		zap.Float64("top_score", top))
	return results, nil
}

// Clear discards all indexed vectors.
func (x *Index) Clear() {
	x.mu.Lock()
	x.vectors = nil
	x.mu.Unlock()
}

// Size returns the number of indexed vectors.
func (x *Index) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}
