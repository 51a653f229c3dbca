package evaluator

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractConcepts(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{}},
		{"short words dropped", "a cat is on the mat", []string{}},
		{"stopwords dropped", "which would these things have been", []string{"things"}},
		{"punctuation splits", "Cell-division, mitosis!", []string{"cell", "division", "mitosis"}},
		{"dedupe in order", "Energy flows; energy is stored. Flows again", []string{"energy", "flows", "stored"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractConcepts(tt.text))
		})
	}
}

func TestExtractConcepts_CapsAtTwenty(t *testing.T) {
	words := make([]string, 30)
	for i := range words {
		words[i] = fmt.Sprintf("term%02d", i)
	}
	got := ExtractConcepts(strings.Join(words, " "))
	assert.Len(t, got, 20)
	assert.Equal(t, "term00", got[0])
	assert.Equal(t, "term19", got[19])
}

func TestCoverage(t *testing.T) {
	covered, missing := coverage(
		[]string{"mitochondria", "cellular", "energy", "membrane"},
		[]string{"cell", "bioenergy", "mitochondria"},
	)
	assert.Equal(t, []string{"mitochondria", "cellular", "energy"}, covered)
	assert.Equal(t, []string{"membrane"}, missing)
}

func TestCoverage_Empty(t *testing.T) {
	covered, missing := coverage(nil, []string{"anything"})
	assert.Empty(t, covered)
	assert.Empty(t, missing)

	covered, missing = coverage([]string{"energy"}, nil)
	assert.Empty(t, covered)
	assert.Equal(t, []string{"energy"}, missing)
}
