package evaluator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
	"docqa/internal/vectorstore"
)

type fakeSearcher struct {
	results []domain.SearchResult
	err     error
	topK    int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, topK int) ([]domain.SearchResult, error) {
	f.topK = topK
	return f.results, f.err
}

type fakeEmbedder struct {
	vectors map[string][]float64
	calls   int
	err     error
}

func (f *fakeEmbedder) Name() string                            { return "fake" }
func (f *fakeEmbedder) Prepare(context.Context, []string) error { return nil }
func (f *fakeEmbedder) Ready() bool                             { return true }
func (f *fakeEmbedder) Dimension() int                          { return 2 }

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float64{0, 1}, nil
}

func res(text string, score float64) domain.SearchResult {
	return domain.SearchResult{Chunk: domain.Chunk{Text: text, PageNumber: 1}, Score: score}
}

func TestEvaluate_NoReference(t *testing.T) {
	tests := []struct {
		name    string
		results []domain.SearchResult
	}{
		{"empty index", nil},
		{"weak top result", []domain.SearchResult{res("Unrelated text.", 0.29)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := &fakeEmbedder{}
			ev := New(&fakeSearcher{results: tt.results}, fe, nil)

			got, err := ev.Evaluate(context.Background(), "some answer", "topic")
			require.NoError(t, err)
			assert.Equal(t, 0, got.SimilarityPercentage)
			assert.Equal(t, "No relevant reference content found in the document for the given topic.", got.Justification)
			assert.Equal(t, []string{"Unable to find reference material in the uploaded document"}, got.MissingElements)
			assert.Empty(t, got.ReferenceExcerpts)
			assert.Zero(t, fe.calls)
		})
	}
}

func TestEvaluate_RequestsFiveReferences(t *testing.T) {
	fs := &fakeSearcher{}
	_, err := New(fs, &fakeEmbedder{}, nil).Evaluate(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, 5, fs.topK)
}

func TestEvaluate_PerfectAnswer(t *testing.T) {
	const ref = "The mitochondria is the powerhouse of the cell."
	fe := &fakeEmbedder{vectors: map[string][]float64{ref: {1, 0}}}
	ev := New(&fakeSearcher{results: []domain.SearchResult{res(ref, 0.9)}}, fe, nil)

	got, err := ev.Evaluate(context.Background(), ref, "mitochondria")
	require.NoError(t, err)
	assert.Equal(t, 100, got.SimilarityPercentage)
	assert.Equal(t, "Strong match with 100% similarity. The answer covers 3/3 key concepts from the reference material. Semantic alignment is high (100%).", got.Justification)
	assert.Empty(t, got.MissingElements)
	assert.Equal(t, []string{ref + "..."}, got.ReferenceExcerpts)
}

func TestEvaluate_DisjointAnswer(t *testing.T) {
	const ref = "Photosynthesis converts sunlight into chemical energy."
	const answer = "Volcanoes erupt molten rock."
	fe := &fakeEmbedder{vectors: map[string][]float64{ref: {1, 0}, answer: {0, 1}}}
	ev := New(&fakeSearcher{results: []domain.SearchResult{res(ref, 0.8)}}, fe, nil)

	got, err := ev.Evaluate(context.Background(), answer, "photosynthesis")
	require.NoError(t, err)
	assert.Equal(t, 0, got.SimilarityPercentage)
	assert.True(t, strings.HasPrefix(got.Justification, "Low match with 0% similarity. The answer covers only 0/5 reference concepts."))
	assert.Equal(t, []string{"photosynthesis", "converts", "sunlight", "chemical", "energy"}, got.MissingElements)
}

func TestEvaluate_NegativeCosineClampedToZero(t *testing.T) {
	const ref = "Glaciers carve valleys slowly."
	const answer = "Glaciers carve valleys slowly indeed."
	fe := &fakeEmbedder{vectors: map[string][]float64{ref: {1, 0}, answer: {-1, 0}}}
	ev := New(&fakeSearcher{results: []domain.SearchResult{res(ref, 0.8)}}, fe, nil)

	got, err := ev.Evaluate(context.Background(), answer, "glaciers")
	require.NoError(t, err)
	// Coverage 4/4 contributes 40; semantic contributes nothing.
	assert.Equal(t, 40, got.SimilarityPercentage)
	assert.True(t, strings.HasPrefix(got.Justification, "Partial match with 40% similarity. Only 4/4 key concepts are addressed."))
}

func TestEvaluate_ModerateBand(t *testing.T) {
	const ref = "Enzymes speed reactions."
	const answer = "Enzymes matter."
	// cos = 0.8; coverage 1/3 -> 0.48 + 0.1333 = 0.6133
	fe := &fakeEmbedder{vectors: map[string][]float64{ref: {1, 0}, answer: {0.8, 0.6}}}
	ev := New(&fakeSearcher{results: []domain.SearchResult{res(ref, 0.8)}}, fe, nil)

	got, err := ev.Evaluate(context.Background(), answer, "enzymes")
	require.NoError(t, err)
	assert.Equal(t, 61, got.SimilarityPercentage)
	assert.Equal(t, "Moderate match with 61% similarity. The answer captures 1/3 key concepts. Some important points from the reference may be missing or differently expressed.", got.Justification)
	assert.Equal(t, []string{"speed", "reactions"}, got.MissingElements)
}

func TestEvaluate_ReferenceUsesOnlyStrongResults(t *testing.T) {
	strong := res("Alpha bravo charlie delta.", 0.9)
	weak := res("Echo foxtrot golf hotel.", 0.3)
	fe := &fakeEmbedder{}
	ev := New(&fakeSearcher{results: []domain.SearchResult{strong, weak}}, fe, nil)

	got, err := ev.Evaluate(context.Background(), "alpha", "phonetics")
	require.NoError(t, err)
	assert.Equal(t, []string{"bravo", "charlie", "delta"}, got.MissingElements)
	assert.Len(t, got.ReferenceExcerpts, 2)
}

func TestEvaluate_MissingCappedAtFive(t *testing.T) {
	ref := "one1 two2 three3 four4 five5 six6 seven7"
	ev := New(&fakeSearcher{results: []domain.SearchResult{res(ref, 0.9)}}, &fakeEmbedder{}, nil)

	got, err := ev.Evaluate(context.Background(), "unrelated words", "numbers")
	require.NoError(t, err)
	assert.Len(t, got.MissingElements, 5)
}

func TestEvaluate_ExcerptsTruncated(t *testing.T) {
	long := strings.Repeat("x", 250)
	results := []domain.SearchResult{res(long, 0.9), res("short", 0.8), res("third", 0.7)}
	ev := New(&fakeSearcher{results: results}, &fakeEmbedder{}, nil)

	got, err := ev.Evaluate(context.Background(), "answer", "topic")
	require.NoError(t, err)
	require.Len(t, got.ReferenceExcerpts, 2)
	assert.Equal(t, strings.Repeat("x", 200)+"...", got.ReferenceExcerpts[0])
	assert.Equal(t, "short...", got.ReferenceExcerpts[1])
}

func TestEvaluate_BlankCandidateSkipsEmbedding(t *testing.T) {
	fe := &fakeEmbedder{}
	ev := New(&fakeSearcher{results: []domain.SearchResult{res("Reference material text.", 0.9)}}, fe, nil)

	got, err := ev.Evaluate(context.Background(), "   ", "topic")
	require.NoError(t, err)
	assert.Equal(t, 0, got.SimilarityPercentage)
	assert.Zero(t, fe.calls)
}

func TestEvaluate_Errors(t *testing.T) {
	_, err := New(&fakeSearcher{err: errors.New("down")}, &fakeEmbedder{}, nil).
		Evaluate(context.Background(), "a", "b")
	require.Error(t, err)

	fe := &fakeEmbedder{err: errors.New("provider failed")}
	_, err = New(&fakeSearcher{results: []domain.SearchResult{res("Reference text.", 0.9)}}, fe, nil).
		Evaluate(context.Background(), "answer", "topic")
	require.Error(t, err)
}

func TestEvaluate_AgainstIndexedDocument(t *testing.T) {
	const chunk = "The mitochondria is the powerhouse of the cell."
	const topic = "cell energy production"
	const answer = "Mitochondria produce energy"
	fe := &fakeEmbedder{vectors: map[string][]float64{
		chunk:  {0.9, 0.1},
		topic:  {0.85, 0.2},
		answer: {0.9, 0.3},
	}}
	ctx := context.Background()
	idx := vectorstore.NewIndex(fe, nil)
	require.NoError(t, idx.AddDocuments(ctx, []domain.Chunk{{Text: chunk, PageNumber: 1}}, nil))

	got, err := New(idx, fe, nil).Evaluate(ctx, answer, topic)
	require.NoError(t, err)
	// cos 0.978 weighted 0.6, coverage 1/3 weighted 0.4.
	assert.Equal(t, 72, got.SimilarityPercentage)
	assert.NotContains(t, got.MissingElements, "mitochondria")
	assert.NotContains(t, got.MissingElements, "energy")
	assert.Equal(t, []string{"powerhouse", "cell"}, got.MissingElements)
	assert.Equal(t, []string{chunk + "..."}, got.ReferenceExcerpts)
}
