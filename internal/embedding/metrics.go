package embedding

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EmbedDuration tracks time spent producing one embedding.
	// Labels: provider
	EmbedDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Subsystem: "embedding",
			Name:      "embed_duration_seconds",
			Help:      "Duration of single-text embedding calls in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"provider"},
	)

	// EmbedTotal counts embedding calls.
	// Labels: provider, result (success, error)
	EmbedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Subsystem: "embedding",
			Name:      "embed_total",
			Help:      "Total number of embedding calls by outcome",
		},
		[]string{"provider", "result"},
	)

	// PrepareTotal counts Prepare calls.
	// Labels: provider, result (success, error)
	PrepareTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Subsystem: "embedding",
			Name:      "prepare_total",
			Help:      "Total number of provider preparations by outcome",
		},
		[]string{"provider", "result"},
	)
)

// Instrumented records Prometheus metrics around another Embedder.
type Instrumented struct {
	Embedder
}

// WithMetrics wraps e so every Prepare and Embed call is counted and timed.
func WithMetrics(e Embedder) *Instrumented {
	return &Instrumented{Embedder: e}
}

// Unwrap returns the instrumented embedder.
func (i *Instrumented) Unwrap() Embedder { return i.Embedder }

func (i *Instrumented) Prepare(ctx context.Context, corpus []string) error {
	err := i.Embedder.Prepare(ctx, corpus)
	PrepareTotal.WithLabelValues(i.Name(), result(err)).Inc()
	return err
}

func (i *Instrumented) Embed(ctx context.Context, text string) ([]float64, error) {
	start := time.Now()
	v, err := i.Embedder.Embed(ctx, text)
	EmbedDuration.WithLabelValues(i.Name()).Observe(time.Since(start).Seconds())
	EmbedTotal.WithLabelValues(i.Name(), result(err)).Inc()
	return v, err
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
