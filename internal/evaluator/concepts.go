package evaluator

import (
	"regexp"
	"strings"
)

const maxConcepts = 20

var nonWord = regexp.MustCompile(`[^\w\s]`)

var conceptStopwords = map[string]struct{}{
	"that": {}, "this": {}, "with": {}, "from": {}, "have": {}, "been": {}, "were": {}, "they": {}, "their": {},
	"which": {}, "when": {}, "will": {}, "would": {}, "could": {}, "should": {}, "about": {}, "there": {},
	"these": {}, "those": {}, "than": {}, "then": {}, "only": {}, "also": {}, "more": {}, "such": {}, "some": {},
	"very": {}, "just": {}, "being": {}, "other": {}, "into": {}, "through": {}, "during": {}, "before": {},
	"after": {}, "above": {}, "below": {}, "between": {}, "under": {}, "again": {}, "further": {}, "once": {},
}

// ExtractConcepts returns up to 20 distinct key terms of text in first-seen
// order: lowercased words longer than three characters that are not stopwords.
func ExtractConcepts(text string) []string {
	words := strings.Fields(nonWord.ReplaceAllString(strings.ToLower(text), " "))
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, maxConcepts)
	for _, w := range words {
		if len(w) <= 3 {
			continue
		}
		if _, stop := conceptStopwords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == maxConcepts {
			break
		}
	}
	return out
}

// coverage splits reference concepts into those matched by some candidate
// concept and those that are not. A match is a substring relation in either
// direction, so "cell" and "cellular" cover each other.
func coverage(reference, candidate []string) (covered, missing []string) {
	for _, r := range reference {
		if matchesAny(r, candidate) {
			covered = append(covered, r)
		} else {
			missing = append(missing, r)
		}
	}
	return covered, missing
}

func matchesAny(concept string, others []string) bool {
	for _, o := range others {
		if strings.Contains(o, concept) || strings.Contains(concept, o) {
			return true
		}
	}
	return false
}
