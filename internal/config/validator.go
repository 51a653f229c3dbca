package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var embedderTypes = map[string]bool{
	"tfidf":     true,
	"openai":    true,
	"ollama":    true,
	"fastembed": true,
}

// Validate returns every problem found in c. An empty result means c is usable.
func (c *AppConfig) Validate() []ValidationError {
	var errs []ValidationError

	if !embedderTypes[c.Embedder.Type] {
		errs = append(errs, ValidationError{
			Field:   "embedder.type",
			Message: fmt.Sprintf("unknown embedder %q (want tfidf, openai, ollama or fastembed)", c.Embedder.Type),
		})
	}
	if c.Embedder.RateLimit < 0 {
		errs = append(errs, ValidationError{
			Field:   "embedder.rate_limit",
			Message: "rate_limit must not be negative",
		})
	}

	if c.Chunker.ChunkSize <= 0 {
		errs = append(errs, ValidationError{
			Field:   "chunker.chunk_size",
			Message: "chunk_size must be positive",
		})
	}
	if c.Chunker.Overlap < 0 {
		errs = append(errs, ValidationError{
			Field:   "chunker.overlap",
			Message: "overlap must not be negative",
		})
	}

	if c.Retrieval.TopK <= 0 {
		errs = append(errs, ValidationError{
			Field:   "retrieval.top_k",
			Message: "top_k must be positive",
		})
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level %q", c.Logging.Level),
		})
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: "format must be json or console",
		})
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: "port must be between 1 and 65535",
		})
	}

	return errs
}
