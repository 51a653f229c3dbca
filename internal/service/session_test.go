package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"docqa/internal/answer"
	"docqa/internal/embedding"
	"docqa/internal/embedding/tfidf"
)

const biologyText = "The mitochondria is the powerhouse of the cell. " +
	"Photosynthesis occurs in chloroplasts of plant leaves. " +
	"The stock market closed higher on Friday."

var testOptions = Options{ChunkSize: 60, Overlap: 0, TopK: 3, SummarySentences: 2}

// failingEmbedder fails Prepare or Embed on demand.
type failingEmbedder struct {
	prepareErr error
	embedErr   error
}

func (f *failingEmbedder) Name() string { return "failing" }
func (f *failingEmbedder) Prepare(context.Context, []string) error {
	return f.prepareErr
}
func (f *failingEmbedder) Ready() bool    { return f.prepareErr == nil }
func (f *failingEmbedder) Dimension() int { return 1 }
func (f *failingEmbedder) Embed(context.Context, string) ([]float64, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float64{1}, nil
}

func loadedSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(tfidf.NewEmbedder(), testOptions)
	_, err := s.LoadText(context.Background(), "biology.txt", biologyText, nil)
	require.NoError(t, err)
	return s
}

func TestSession_LoadText(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	opts := testOptions
	opts.Logger = zap.New(core)
	s := NewSession(tfidf.NewEmbedder(), opts)

	var progress []int
	summary, err := s.LoadText(context.Background(), "biology.txt", biologyText, func(cur, total int) {
		assert.Equal(t, 3, total)
		progress = append(progress, cur)
	})
	require.NoError(t, err)

	assert.Equal(t, "biology.txt", summary.Name)
	assert.Equal(t, 3, summary.Chunks)
	assert.Equal(t, len(biologyText), summary.Characters)
	assert.NotEmpty(t, summary.Overview)
	assert.Equal(t, []int{1, 2, 3}, progress)
	assert.Equal(t, 1, logs.FilterMessage("document loaded").Len())

	doc, ok := s.Document()
	require.True(t, ok)
	assert.Equal(t, summary, doc)
}

func TestSession_LoadTextRejectsBlank(t *testing.T) {
	s := NewSession(tfidf.NewEmbedder(), testOptions)
	for _, text := range []string{"", "   \n\t", "...!?"} {
		_, err := s.LoadText(context.Background(), "blank", text, nil)
		require.ErrorIs(t, err, ErrEmptyDocument)
	}
}

func TestSession_AskBeforeLoad(t *testing.T) {
	s := NewSession(tfidf.NewEmbedder(), testOptions)
	_, err := s.Ask(context.Background(), "anything")
	require.ErrorIs(t, err, ErrNoDocument)
	_, err = s.Evaluate(context.Background(), "answer", "topic")
	require.ErrorIs(t, err, ErrNoDocument)
}

func TestSession_AskFindsAnswer(t *testing.T) {
	s := loadedSession(t)

	got, err := s.Ask(context.Background(), "What is the powerhouse of the cell?")
	require.NoError(t, err)
	assert.Equal(t, "The mitochondria is the powerhouse of the cell", got.Text)
	require.NotEmpty(t, got.Results)
	assert.Equal(t, 0, got.Results[0].Chunk.Index)
	assert.Greater(t, got.Results[0].Score, 0.6)
}

func TestSession_AskUnrelatedQuestion(t *testing.T) {
	s := loadedSession(t)

	got, err := s.Ask(context.Background(), "Explain quantum entanglement")
	require.NoError(t, err)
	assert.Equal(t, answer.NoAnswer, got.Text)
}

func TestSession_Evaluate(t *testing.T) {
	s := loadedSession(t)

	got, err := s.Evaluate(context.Background(), "The mitochondria is the powerhouse of the cell", "powerhouse cell")
	require.NoError(t, err)
	assert.Equal(t, 100, got.SimilarityPercentage)
	assert.Empty(t, got.MissingElements)
	require.NotEmpty(t, got.ReferenceExcerpts)
	assert.Equal(t, "The mitochondria is the powerhouse of the cell...", got.ReferenceExcerpts[0])
}

func TestSession_FailedLoadLeavesSessionEmpty(t *testing.T) {
	fe := &failingEmbedder{}
	s := NewSession(fe, testOptions)
	_, err := s.LoadText(context.Background(), "first", "A first document sentence.", nil)
	require.NoError(t, err)

	fe.embedErr = errors.New("provider down")
	_, err = s.LoadText(context.Background(), "second", "A second document sentence.", nil)
	require.Error(t, err)

	_, ok := s.Document()
	assert.False(t, ok)
	_, err = s.Ask(context.Background(), "first")
	require.ErrorIs(t, err, ErrNoDocument)
}

func TestSession_PrepareFailure(t *testing.T) {
	s := NewSession(&failingEmbedder{prepareErr: embedding.ErrNotReady}, testOptions)
	_, err := s.LoadText(context.Background(), "doc", "Some text here.", nil)
	require.ErrorIs(t, err, embedding.ErrNotReady)
}

func TestSession_LoadFile(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.TXT")
	require.NoError(t, os.WriteFile(txt, []byte(biologyText), 0o644))
	pdf := filepath.Join(dir, "paper.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644))

	s := NewSession(tfidf.NewEmbedder(), testOptions)
	summary, err := s.LoadFile(context.Background(), txt, nil)
	require.NoError(t, err)
	assert.Equal(t, "notes.TXT", summary.Name)

	_, err = s.LoadFile(context.Background(), pdf, nil)
	require.ErrorIs(t, err, ErrUnsupportedFile)

	_, err = s.LoadFile(context.Background(), filepath.Join(dir, "missing.md"), nil)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSession_Clear(t *testing.T) {
	s := loadedSession(t)
	s.Clear()
	_, ok := s.Document()
	assert.False(t, ok)
	_, err := s.Ask(context.Background(), "cell")
	require.ErrorIs(t, err, ErrNoDocument)
}
