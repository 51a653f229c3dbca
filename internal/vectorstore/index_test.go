package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"docqa/internal/domain"
	"docqa/internal/embedding"
)

// fakeEmbedder maps known texts to fixed vectors and counts calls.
type fakeEmbedder struct {
	vectors   map[string][]float64
	failOn    string
	calls     int
	dimension int // overrides the reported 2 when non-zero, negative reports 0
}

func (f *fakeEmbedder) Name() string                            { return "fake" }
func (f *fakeEmbedder) Prepare(context.Context, []string) error { return nil }
func (f *fakeEmbedder) Ready() bool                             { return true }
func (f *fakeEmbedder) Dimension() int {
	if f.dimension != 0 {
		return max(f.dimension, 0)
	}
	return 2
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	f.calls++
	if f.failOn != "" && text == f.failOn {
		return nil, errors.New("provider unavailable")
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float64{0, 0}, nil
}

func chunks(texts ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		out[i] = domain.Chunk{Text: t, PageNumber: 1, Index: i}
	}
	return out
}

func TestIndex_EmptySearchSkipsEmbedder(t *testing.T) {
	fe := &fakeEmbedder{}
	idx := NewIndex(fe, nil)

	results, err := idx.Search(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, fe.calls)
}

func TestIndex_AddDocumentsReportsProgress(t *testing.T) {
	fe := &fakeEmbedder{}
	idx := NewIndex(fe, nil)

	var seen [][2]int
	err := idx.AddDocuments(context.Background(), chunks("a", "b", "c"), func(cur, total int) {
		seen = append(seen, [2]int{cur, total})
	})
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Size())
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, seen)
}

func TestIndex_AddDocumentsReplacesContents(t *testing.T) {
	idx := NewIndex(&fakeEmbedder{}, nil)
	ctx := context.Background()

	require.NoError(t, idx.AddDocuments(ctx, chunks("a", "b", "c"), nil))
	require.NoError(t, idx.AddDocuments(ctx, chunks("d"), nil))
	assert.Equal(t, 1, idx.Size())
}

func TestIndex_FailedBuildKeepsPreviousContents(t *testing.T) {
	fe := &fakeEmbedder{vectors: map[string][]float64{"old": {1, 0}}}
	core, logs := observer.New(zapcore.WarnLevel)
	idx := NewIndex(fe, zap.New(core))
	ctx := context.Background()

	require.NoError(t, idx.AddDocuments(ctx, chunks("old"), nil))

	fe.failOn = "broken"
	err := idx.AddDocuments(ctx, chunks("new", "broken", "later"), nil)
	require.Error(t, err)
	assert.Equal(t, 1, idx.Size())
	assert.Equal(t, 1, logs.FilterMessage("index build failed").Len())

	results, err := idx.Search(ctx, "old", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "old", results[0].Chunk.Text)
}

func TestIndex_DimensionMismatchFailsBuild(t *testing.T) {
	tests := []struct {
		name    string
		vectors map[string][]float64
	}{
		{"differs from embedder", map[string][]float64{"b": {1, 0, 0}}},
		{"differs within build", map[string][]float64{"a": {1, 0, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := &fakeEmbedder{vectors: tt.vectors}
			idx := NewIndex(fe, nil)

			err := idx.AddDocuments(context.Background(), chunks("a", "b"), nil)
			require.ErrorIs(t, err, embedding.ErrEmbeddingFailed)
			assert.Contains(t, err.Error(), "dimension 3, want 2")
			assert.Zero(t, idx.Size())
		})
	}
}

func TestIndex_DimensionLearnedFromFirstVector(t *testing.T) {
	fe := &fakeEmbedder{dimension: -1, vectors: map[string][]float64{"a": {1, 0, 0}, "b": {1, 0}}}
	idx := NewIndex(fe, nil)

	err := idx.AddDocuments(context.Background(), chunks("a", "b"), nil)
	require.ErrorIs(t, err, embedding.ErrEmbeddingFailed)
	assert.Contains(t, err.Error(), "dimension 2, want 3")
}

func TestIndex_SearchRanksAndLimits(t *testing.T) {
	fe := &fakeEmbedder{vectors: map[string][]float64{
		"far":   {0, 1},
		"near":  {1, 0.1},
		"mid":   {1, 1},
		"query": {1, 0},
	}}
	idx := NewIndex(fe, nil)
	ctx := context.Background()
	require.NoError(t, idx.AddDocuments(ctx, chunks("far", "near", "mid"), nil))

	results, err := idx.Search(ctx, "query", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].Chunk.Text)
	assert.Equal(t, "mid", results[1].Chunk.Text)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)

	all, err := idx.Search(ctx, "query", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].Score, all[i].Score)
	}
}

func TestIndex_SearchTiesKeepInsertionOrder(t *testing.T) {
	fe := &fakeEmbedder{vectors: map[string][]float64{
		"first":  {1, 1},
		"second": {1, 1},
		"third":  {1, 1},
		"query":  {1, 0},
	}}
	idx := NewIndex(fe, nil)
	ctx := context.Background()
	require.NoError(t, idx.AddDocuments(ctx, chunks("first", "second", "third"), nil))

	results, err := idx.Search(ctx, "query", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{results[0].Chunk.Index, results[1].Chunk.Index, results[2].Chunk.Index})
}

func TestIndex_SearchDefaultTopK(t *testing.T) {
	idx := NewIndex(&fakeEmbedder{}, nil)
	ctx := context.Background()
	require.NoError(t, idx.AddDocuments(ctx, chunks("a", "b", "c", "d", "e"), nil))

	results, err := idx.Search(ctx, "q", 0)
	require.NoError(t, err)
	assert.Len(t, results, DefaultTopK)
}

func TestIndex_BlankQuery(t *testing.T) {
	fe := &fakeEmbedder{}
	idx := NewIndex(fe, nil)
	ctx := context.Background()
	require.NoError(t, idx.AddDocuments(ctx, chunks("a"), nil))
	before := fe.calls

	results, err := idx.Search(ctx, "   ", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, before, fe.calls)
}

func TestIndex_QueryEmbedFailure(t *testing.T) {
	fe := &fakeEmbedder{failOn: "q"}
	idx := NewIndex(fe, nil)
	ctx := context.Background()
	require.NoError(t, idx.AddDocuments(ctx, chunks("a"), nil))

	_, err := idx.Search(ctx, "q", 3)
	require.Error(t, err)
}

func TestIndex_Clear(t *testing.T) {
	idx := NewIndex(&fakeEmbedder{}, nil)
	require.NoError(t, idx.AddDocuments(context.Background(), chunks("a", "b"), nil))
	idx.Clear()
	assert.Zero(t, idx.Size())
}

func TestIndex_MitochondriaScenario(t *testing.T) {
	const chunk = "The mitochondria is the powerhouse of the cell."
	const query = "What produces energy in cells?"
	fe := &fakeEmbedder{vectors: map[string][]float64{
		chunk: {0.9, 0.1},
		query: {0.85, 0.2},
	}}
	idx := NewIndex(fe, nil)
	ctx := context.Background()
	require.NoError(t, idx.AddDocuments(ctx, chunks(chunk), nil))

	results, err := idx.Search(ctx, query, 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.GreaterOrEqual(t, results[0].Score, 0.3)
	assert.Equal(t, chunk, results[0].Chunk.Text)
}
