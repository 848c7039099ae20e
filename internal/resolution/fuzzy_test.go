package resolution

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"identical", "cherry", "cherry", 0},
		{"both empty", "", "", 0},
		{"one empty", "", "red", 3},
		{"single substitution", "red", "rad", 1},
		{"insertion", "gateron yelow", "gateron yellow", 1},
		{"full rewrite", "abc", "xyz", 3},
		{"unicode runes", "café", "cafe", 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, levenshteinDistance(tc.a, tc.b))
			assert.Equal(t, tc.expected, levenshteinDistance(tc.b, tc.a), "distance must be symmetric")
		})
	}
}

func TestFuzzySimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"identical ignoring case", "gateron yellow", "Gateron Yellow", 1.0},
		{"both empty", "", "", 1.0},
		{"one char off", "Gateron Yelow", "Gateron Yellow", 0.9286},
		{"trailing char", "cherry mx redd", "Cherry MX Red", 0.9286},
		{"different switches", "Cherry MX Red", "Gateron Red", 0.3846},
		{"whitespace trimmed", "  cherry  ", "cherry", 1.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, fuzzySimilarity(tc.a, tc.b), 0.001)
		})
	}
}

func TestFuzzySimilarityBounds(t *testing.T) {
	inputs := []string{"", "a", "red", "Cherry MX Red", "completely unrelated text"}
	for _, a := range inputs {
		for _, b := range inputs {
			s := fuzzySimilarity(a, b)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}

func TestBestFuzzyMatch(t *testing.T) {
	candidates := []string{"Cherry MX Red", "Cherry MX Brown", "Gateron Yellow", "Kailh Box White"}

	t.Run("picks closest candidate", func(t *testing.T) {
		name, score := bestFuzzyMatch("gateron yelow", candidates)
		assert.Equal(t, "Gateron Yellow", name)
		assert.InDelta(t, 0.9286, score, 0.001)
	})

	t.Run("exact match scores one", func(t *testing.T) {
		name, score := bestFuzzyMatch("cherry mx red", candidates)
		assert.Equal(t, "Cherry MX Red", name)
		assert.Equal(t, 1.0, score)
	})

	t.Run("tie keeps earliest candidate", func(t *testing.T) {
		name, _ := bestFuzzyMatch("zzz", []string{"aaa", "bbb"})
		assert.Equal(t, "aaa", name)
	})

	t.Run("no candidates", func(t *testing.T) {
		name, score := bestFuzzyMatch("anything", nil)
		assert.Equal(t, "", name)
		assert.Equal(t, 0.0, score)
	})
}
