package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docqa/internal/embedding/provider"
	"docqa/internal/logging"
	"docqa/internal/server"
	"docqa/internal/service"
	"docqa/internal/tui"
)

var showSources bool

var askCmd = &cobra.Command{
	Use:   "ask FILE QUESTION...",
	Short: "Answer a question from a .txt or .md document",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runAsk,
}

var (
	evalTopic  string
	evalAnswer string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate FILE",
	Short: "Score an answer against what the document says about a topic",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvaluate,
}

var chatCmd = &cobra.Command{
	Use:   "chat FILE",
	Short: "Open an interactive session over a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runChat,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	askCmd.Flags().BoolVar(&showSources, "sources", false, "Print the retrieved passages and their scores")
	evaluateCmd.Flags().StringVar(&evalTopic, "topic", "", "Topic used to look up reference material")
	evaluateCmd.Flags().StringVar(&evalAnswer, "answer", "", "Answer to evaluate")
	_ = evaluateCmd.MarkFlagRequired("topic")
	_ = evaluateCmd.MarkFlagRequired("answer")
}

func runAsk(cmd *cobra.Command, args []string) error {
	s, _, err := newSession(cmd, args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	question := strings.Join(args[1:], " ")
	ans, err := s.Ask(cmd.Context(), question)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ans.Text)
	if showSources {
		for _, r := range ans.Results {
			fmt.Fprintln(out, color.HiBlackString("[chunk %d, page %d, score %.3f] %s",
				r.Chunk.Index, r.Chunk.PageNumber, r.Score, r.Chunk.Text))
		}
	}
	return nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	s, _, err := newSession(cmd, args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.Evaluate(cmd.Context(), evalAnswer, evalTopic)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	pct := fmt.Sprintf("%d%% match", res.SimilarityPercentage)
	switch {
	case res.SimilarityPercentage >= 80:
		pct = color.GreenString(pct)
	case res.SimilarityPercentage >= 40:
		pct = color.YellowString(pct)
	default:
		pct = color.RedString(pct)
	}
	fmt.Fprintln(out, pct)
	fmt.Fprintln(out, res.Justification)
	if len(res.MissingElements) > 0 {
		fmt.Fprintln(out, "Missing:", strings.Join(res.MissingElements, ", "))
	}
	for _, ex := range res.ReferenceExcerpts {
		fmt.Fprintln(out, color.HiBlackString("> %s", ex))
	}
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	// The alt screen owns the terminal, so session logs go to logging.file or nowhere.
	uiLogger, closeLog, err := logging.NewForTUI(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()
	logger = uiLogger

	s, summary, err := newSession(cmd, args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	_, err = tea.NewProgram(tui.New(s, summary), tea.WithAltScreen()).Run()
	return err
}

func runServe(cmd *cobra.Command, _ []string) error {
	factory, release, err := provider.NewFactory(cfg.Embedder)
	if err != nil {
		return fmt.Errorf("embedder: %w", err)
	}
	defer release()
	registry := service.NewRegistry(factory, sessionOptions())
	defer registry.Close()

	srv, err := server.NewServer(registry, logger, &server.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		BodyLimit: cfg.Server.BodyLimit,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
