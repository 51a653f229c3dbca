// Package service ties chunking, indexing, answering and evaluation together
// into document sessions.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"docqa/internal/answer"
	"docqa/internal/chunker"
	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/evaluator"
	"docqa/internal/summarizer"
	"docqa/internal/vectorstore"
)

var (
	// ErrNoDocument is returned when asking or evaluating before a document is loaded.
	ErrNoDocument = errors.New("no document loaded")

	// ErrUnsupportedFile is returned for files other than plain text or markdown.
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrEmptyDocument is returned when the document has no usable text.
	ErrEmptyDocument = errors.New("document has no text")
)

// Options configures a Session. Zero ChunkSize, TopK and SummarySentences
// fall back to package defaults; a zero Overlap disables overlap.
type Options struct {
	ChunkSize        int
	Overlap          int
	TopK             int
	SummarySentences int
	Logger           *zap.Logger
}

// DocumentSummary describes the document currently loaded in a session.
type DocumentSummary struct {
	Name       string `json:"name"`
	Chunks     int    `json:"chunks"`
	Characters int    `json:"characters"`
	Overview   string `json:"overview"`
}

// Answer is the reply to a question together with the passages it came from.
type Answer struct {
	Text    string
	Results []domain.SearchResult
}

// Session owns one document, its embedder and its index.
type Session struct {
	embedder   embedding.Embedder
	chunker    domain.Chunker
	index      *vectorstore.Index
	evaluator  *evaluator.Evaluator
	summarizer *summarizer.FrequencySummarizer
	topK       int
	sentences  int
	logger     *zap.Logger

	mu  sync.RWMutex
	doc *DocumentSummary
}

// NewSession creates an empty session embedding with e.
func NewSession(e embedding.Embedder, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = vectorstore.DefaultTopK
	}
	index := vectorstore.NewIndex(e, logger)
	return &Session{
		embedder:   e,
		chunker:    chunker.NewSentenceChunker(opts.ChunkSize, opts.Overlap),
		index:      index,
		evaluator:  evaluator.New(index, e, logger),
		summarizer: summarizer.NewFrequencySummarizer(),
		topK:       topK,
		sentences:  opts.SummarySentences,
		logger:     logger,
	}
}

// LoadText replaces the session document with text. If preparing the
// embedder or building the index fails the session is left empty.
func (s *Session) LoadText(ctx context.Context, name, text string, onProgress vectorstore.ProgressFunc) (DocumentSummary, error) {
	if strings.TrimSpace(text) == "" {
		return DocumentSummary{}, ErrEmptyDocument
	}
	chunks := s.chunker.Chunk(text)
	if len(chunks) == 0 {
		return DocumentSummary{}, ErrEmptyDocument
	}
	corpus := make([]string, len(chunks))
	for i, c := range chunks {
		corpus[i] = c.Text
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.embedder.Prepare(ctx, corpus); err != nil {
		s.reset()
		return DocumentSummary{}, fmt.Errorf("prepare %s embedder: %w", s.embedder.Name(), err)
	}
	if err := s.index.AddDocuments(ctx, chunks, onProgress); err != nil {
		s.reset()
		return DocumentSummary{}, fmt.Errorf("build index: %w", err)
	}

	s.doc = &DocumentSummary{
		Name:       name,
		Chunks:     len(chunks),
		Characters: utf8.RuneCountInString(text),
		Overview:   s.summarizer.Summarize(text, s.sentences),
	}
	s.logger.Info("document loaded",
		zap.String("name", name),
		zap.Int("chunks", s.doc.Chunks),
		zap.Int("characters", s.doc.Characters))
	return *s.doc, nil
}

// LoadFile reads a .txt or .md file and loads it with LoadText.
func (s *Session) LoadFile(ctx context.Context, path string, onProgress vectorstore.ProgressFunc) (DocumentSummary, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
	default:
		return DocumentSummary{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return DocumentSummary{}, err
	}
	return s.LoadText(ctx, filepath.Base(path), string(data), onProgress)
}

// Ask answers question from the loaded document.
func (s *Session) Ask(ctx context.Context, question string) (Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return Answer{}, ErrNoDocument
	}
	results, err := s.index.Search(ctx, question, s.topK)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Text: answer.Generate(question, results), Results: results}, nil
}

// Evaluate scores candidate against what the document says about topic.
func (s *Session) Evaluate(ctx context.Context, candidate, topic string) (domain.EvaluationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return domain.EvaluationResult{}, ErrNoDocument
	}
	return s.evaluator.Evaluate(ctx, candidate, topic)
}

// Document returns the loaded document, if any.
func (s *Session) Document() (DocumentSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return DocumentSummary{}, false
	}
	return *s.doc, true
}

// Clear unloads the document.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) reset() {
	s.index.Clear()
	s.doc = nil
}

// Close releases embedder resources, if the embedder holds any.
func (s *Session) Close() error {
	s.Clear()
	return embedding.Close(s.embedder)
}
