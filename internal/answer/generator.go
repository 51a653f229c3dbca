// Package answer composes extractive answers from ranked search results.
package answer

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"docqa/internal/chunker"
	"docqa/internal/domain"
)

const (
	// RelevanceThreshold is the minimum score for a result to be used.
	RelevanceThreshold = 0.3

	// NoAnswer is returned when no result clears RelevanceThreshold.
	NoAnswer = "The document does not contain this information."

	lowConfidence      = 0.4
	minSentenceLen     = 20
	minQueryWordLen    = 3
	maxAnswerSentences = 3
)

// Generate builds an answer to query from results, which must be ordered by
// descending score. Only sentences already present in the results are used.
func Generate(query string, results []domain.SearchResult) string {
	relevant := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		if r.Score >= RelevanceThreshold {
			relevant = append(relevant, r)
		}
	}
	if len(relevant) == 0 {
		return NoAnswer
	}

	best := relevant[0]
	if len(relevant) == 1 {
		return format(best.Chunk.Text, best.Score)
	}

	texts := make([]string, len(relevant))
	for i, r := range relevant {
		texts[i] = r.Chunk.Text
	}
	words := queryWords(query)

	var picked []string
	for _, s := range chunker.SplitSentences(strings.Join(texts, " ")) {
		if utf8.RuneCountInString(s) <= minSentenceLen {
			continue
		}
		if !containsAny(strings.ToLower(s), words) {
			continue
		}
		picked = append(picked, s)
		if len(picked) == maxAnswerSentences {
			break
		}
	}
	if len(picked) == 0 {
		return format(best.Chunk.Text, best.Score)
	}
	return format(strings.Join(picked, ". ")+".", best.Score)
}

// queryWords returns the lowercased words of query longer than three
// characters, with surrounding punctuation removed. Trimming is deliberate:
// splitting on spaces alone keeps "cells?" as a word, which no sentence
// contains, so the last word of most questions would never match.
func queryWords(query string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.TrimFunc(w, unicode.IsPunct)
		if utf8.RuneCountInString(w) > minQueryWordLen {
			out = append(out, w)
		}
	}
	return out
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func format(text string, score float64) string {
	out := strings.Join(strings.Fields(text), " ")
	if score <= lowConfidence {
		out += fmt.Sprintf("\n\n_Note: This answer has low confidence (%d%% match). The document may not directly address your question._",
			int(math.Round(score*100)))
	}
	return out
}
