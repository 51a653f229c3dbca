package embedding

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited throttles Embed calls to a remote provider. Building an index
// issues one request per chunk, which quickly trips hosted API quotas.
type RateLimited struct {
	Embedder
	limiter *rate.Limiter
}

// WithRateLimit wraps e with a token bucket of perSecond requests and the
// given burst. A non-positive perSecond returns e unchanged.
func WithRateLimit(e Embedder, perSecond float64, burst int) Embedder {
	if perSecond <= 0 {
		return e
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{Embedder: e, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Unwrap returns the throttled embedder.
func (r *RateLimited) Unwrap() Embedder { return r.Embedder }

func (r *RateLimited) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return r.Embedder.Embed(ctx, text)
}
