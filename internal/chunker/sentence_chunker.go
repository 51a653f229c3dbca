package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"docqa/internal/domain"
)

const (
	// DefaultChunkSize is the soft upper bound, in characters, of a chunk.
	DefaultChunkSize = 500
	// DefaultOverlap is the overlap hint; a fifth of it is carried over as words.
	DefaultOverlap = 50
)

var sentenceTerminators = regexp.MustCompile(`[.!?]+`)

// SplitSentences splits text on runs of sentence-terminal punctuation and
// returns the trimmed, non-empty fragments in order. The punctuation itself is
// dropped.
func SplitSentences(text string) []string {
	parts := sentenceTerminators.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SentenceChunker greedily packs sentences into chunks of roughly chunkSize
// characters, seeding each new chunk with the trailing words of the previous one.
type SentenceChunker struct {
	chunkSize    int
	overlapWords int
}

// NewSentenceChunker creates a chunker. Non-positive chunkSize and negative
// overlapHint fall back to the defaults.
func NewSentenceChunker(chunkSize, overlapHint int) *SentenceChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlapHint < 0 {
		overlapHint = DefaultOverlap
	}
	return &SentenceChunker{
		chunkSize:    chunkSize,
		overlapWords: overlapHint / 5,
	}
}

// Chunk splits text into chunks with dense zero-based indices. The size bound
// is soft: it is checked against the buffer before a sentence is appended, so a
// single long sentence still becomes its own chunk.
func (c *SentenceChunker) Chunk(text string) []domain.Chunk {
	var chunks []domain.Chunk
	var current string
	emit := func() {
		chunks = append(chunks, domain.Chunk{
			Text:       strings.TrimSpace(current),
			PageNumber: 1,
			Index:      len(chunks),
		})
	}

	for _, sentence := range SplitSentences(text) {
		if current != "" && utf8.RuneCountInString(current)+1+utf8.RuneCountInString(sentence) > c.chunkSize {
			emit()
			previous := current
			current = sentence
			if tail := c.tail(previous); tail != "" {
				current = tail + " " + sentence
			}
			continue
		}
		if current != "" {
			current += " "
		}
		current += sentence
	}
	if strings.TrimSpace(current) != "" {
		emit()
	}
	return chunks
}

// tail returns the last overlapWords words of text.
func (c *SentenceChunker) tail(text string) string {
	if c.overlapWords == 0 {
		return ""
	}
	words := strings.Fields(text)
	if len(words) > c.overlapWords {
		words = words[len(words)-c.overlapWords:]
	}
	return strings.Join(words, " ")
}
