package resolution

import "strings"

// levenshteinDistance computes edit distance with the two-row dynamic
// programming formulation.
func levenshteinDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// fuzzySimilarity returns normalized Levenshtein similarity:
// (maxLen - distance) / maxLen, case-insensitive. Two empty strings are
// identical.
func fuzzySimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}

	dist := levenshteinDistance(a, b)
	return float64(maxLen-dist) / float64(maxLen)
}

// bestFuzzyMatch returns the candidate with the highest similarity to the
// fragment. Ties keep the earliest candidate.
func bestFuzzyMatch(fragment string, candidates []string) (string, float64) {
	bestName := ""
	bestScore := -1.0

	for _, candidate := range candidates {
		score := fuzzySimilarity(fragment, candidate)
		if score > bestScore {
			bestName = candidate
			bestScore = score
		}
	}

	if bestScore < 0 {
		return "", 0
	}
	return bestName, bestScore
}
