// Command docqa answers questions about a text document and grades answers
// against it, from the command line, a terminal UI or an HTTP API.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docqa/internal/config"
	"docqa/internal/embedding/provider"
	"docqa/internal/logging"
	"docqa/internal/service"
)

var (
	cfgPath string
	cfg     *config.AppConfig
	logger  *zap.Logger
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "docqa",
	Short:         "Ask questions about a document and evaluate answers against it",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgPath == "" {
			cfg, _, err = config.LoadDefault()
		} else {
			cfg, err = config.Load(cfgPath)
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			return fmt.Errorf("invalid config:\n  %s", strings.Join(msgs, "\n  "))
		}
		logger, err = logging.New(cfg.Logging)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config file (default ./config.yaml or ~/.config/docqa/config.yaml)")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
}

func sessionOptions() service.Options {
	return service.Options{
		ChunkSize:        cfg.Chunker.ChunkSize,
		Overlap:          cfg.Chunker.Overlap,
		TopK:             cfg.Retrieval.TopK,
		SummarySentences: cfg.Summarizer.MaxSentences,
		Logger:           logger,
	}
}

// newSession builds a session from config and loads path into it, drawing a
// progress bar while the index is built.
func newSession(cmd *cobra.Command, path string) (*service.Session, service.DocumentSummary, error) {
	e, err := provider.New(cfg.Embedder)
	if err != nil {
		return nil, service.DocumentSummary{}, fmt.Errorf("embedder: %w", err)
	}
	s := service.NewSession(e, sessionOptions())

	bar := newBuildProgress(cmd.ErrOrStderr())
	summary, err := s.LoadFile(cmd.Context(), path, bar.update)
	bar.finish()
	if err != nil {
		_ = s.Close()
		return nil, service.DocumentSummary{}, err
	}
	return s, summary, nil
}
