package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OllamaEmbedderConfig holds configuration for the Ollama embedder.
type OllamaEmbedderConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// FastEmbedConfig holds configuration for the local ONNX embedder.
type FastEmbedConfig struct {
	Model     string `yaml:"model"`
	CacheDir  string `yaml:"cache_dir"`
	MaxLength int    `yaml:"max_length"`
}

// EmbedderConfig selects and configures the text embedder implementation.
// RateLimit is requests per second for remote providers, 0 disables it.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	RateLimit float64               `yaml:"rate_limit"`
	Burst     int                   `yaml:"burst"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Ollama    *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
	FastEmbed *FastEmbedConfig      `yaml:"fastembed,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
// ChunkSize is in characters; Overlap is a character hint converted to words.
type ChunkerConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

// RetrievalConfig configures question answering.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// SummarizerConfig configures the document overview shown after loading.
type SummarizerConfig struct {
	MaxSentences int `yaml:"max_sentences"`
}

// LoggingConfig configures the process logger.
// File receives the log while the terminal UI owns the screen; when empty
// the UI runs without logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// ServerConfig configures the HTTP API.
// BodyLimit uses echo's size notation, e.g. "2M".
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	BodyLimit string `yaml:"body_limit"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			mergeWithEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	// Overlap may legitimately be 0, so its default is set before decoding
	// rather than filled in afterwards.
	cfg := AppConfig{Chunker: ChunkerConfig{Overlap: defaultOverlap}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	mergeWithEnv(&cfg)
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docqa/config.yaml.
// If neither exists, it writes defaults to ~/.config/docqa/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	mergeWithEnv(cfg)
	applyConfigDefaults(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docqa", "config.yaml"), nil
}

const defaultOverlap = 50

func defaultConfig() *AppConfig {
	return &AppConfig{
		Embedder:   EmbedderConfig{Type: "tfidf"},
		Chunker:    ChunkerConfig{ChunkSize: 500, Overlap: defaultOverlap},
		Retrieval:  RetrievalConfig{TopK: 3},
		Summarizer: SummarizerConfig{MaxSentences: 3},
		Logging:    LoggingConfig{Level: "info", Format: "console"},
		Server:     ServerConfig{Host: "localhost", Port: 8080, BodyLimit: "2M"},
	}
}

func mergeWithEnv(cfg *AppConfig) {
	if t := os.Getenv("DOCQA_EMBEDDER"); t != "" {
		cfg.Embedder.Type = t
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaEmbedderConfig{}
		}
		cfg.Embedder.Ollama.BaseURL = baseURL
	}
	if level := os.Getenv("DOCQA_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 500
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 3
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.BodyLimit == "" {
		cfg.Server.BodyLimit = "2M"
	}
	switch cfg.Embedder.Type {
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	case "ollama":
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaEmbedderConfig{}
		}
		if cfg.Embedder.Ollama.BaseURL == "" {
			cfg.Embedder.Ollama.BaseURL = "http://localhost:11434"
		}
		if cfg.Embedder.Ollama.Model == "" {
			cfg.Embedder.Ollama.Model = "nomic-embed-text:latest"
		}
	case "fastembed":
		if cfg.Embedder.FastEmbed == nil {
			cfg.Embedder.FastEmbed = &FastEmbedConfig{}
		}
		if cfg.Embedder.FastEmbed.Model == "" {
			cfg.Embedder.FastEmbed.Model = "sentence-transformers/all-MiniLM-L6-v2"
		}
	}
}
