package fastembed

import "path/filepath"

const DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

// Config configures the local fastembed model.
type Config struct {
	Model        string
	CacheDir     string
	MaxLength    int
	ShowProgress bool
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(".", "local_cache")
	}
	if c.MaxLength == 0 {
		c.MaxLength = 512
	}
	return c
}
