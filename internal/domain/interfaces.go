package domain

import "context"

// Chunk is a bounded passage of the loaded document used for indexing.
type Chunk struct {
	Text       string
	PageNumber int
	Index      int
}

// IndexedVector pairs a chunk with its embedding.
type IndexedVector struct {
	Chunk     Chunk
	Embedding []float64
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// EvaluationResult is the outcome of scoring a candidate answer against
// reference material retrieved from the document.
type EvaluationResult struct {
	SimilarityPercentage int      `json:"similarity_percentage"`
	Justification        string   `json:"justification"`
	MissingElements      []string `json:"missing_elements"`
	ReferenceExcerpts    []string `json:"reference_excerpts"`
}

// Chunker splits raw document text into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(text string) []Chunk
}

// Searcher retrieves the chunks most similar to a query.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]SearchResult, error)
}
