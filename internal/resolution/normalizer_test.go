package resolution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchsage/resolution-engine/internal/observability"
)

func newTestNormalizer(gen *scriptedGenerator) *NameNormalizer {
	breaker := NewCircuitBreaker("ai-normalization", time.Minute)
	if gen == nil {
		return NewNameNormalizer(observability.Nop(), nil, breaker)
	}
	return NewNameNormalizer(observability.Nop(), gen, breaker)
}

func TestNormalizeRuleBased(t *testing.T) {
	n := newTestNormalizer(nil)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"whitespace collapse", "  cherry   mx    red ", "Cherry MX Red"},
		{"manufacturer casing", "gateron yellow", "Gateron Yellow"},
		{"abbreviation expanded", "gat yellow", "Gateron Yellow"},
		{"compound term", "holy panda", "Holy Panda"},
		{"compound term mixed case", "HOLY   PANDA", "Holy Panda"},
		{"unknown words title-cased", "mystery switch", "Mystery Switch"},
		{"multibyte leading rune", "été tactile", "Été Tactile"},
		{"zealpc casing", "zealpc zealios v2", "ZealPC Zealios V2"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			results := n.Normalize(context.Background(), []string{tc.input})
			require.Len(t, results, 1)
			assert.Equal(t, tc.input, results[0].Original)
			assert.Equal(t, tc.expected, results[0].Normalized)
			assert.Equal(t, ruleBasedConfidence, results[0].Confidence)
		})
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := newTestNormalizer(nil)
	assert.Nil(t, n.Normalize(context.Background(), nil))
}

func TestNormalizeWithAI(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		`Here are the normalized names:
{"results": [
  {"original": "gat yelow", "normalized": "Gateron Yellow", "confidence": 0.93, "alternatives": ["Gateron Yellow Pro"]},
  {"original": "mx red", "normalized": "Cherry MX Red", "confidence": 0.9, "alternatives": []}
]}`,
	}}
	n := newTestNormalizer(gen)

	results := n.Normalize(context.Background(), []string{"gat yelow", "mx red"})
	require.Len(t, results, 2)

	assert.Equal(t, "Gateron Yellow", results[0].Normalized)
	assert.InDelta(t, 0.93, results[0].Confidence, 0.001)
	assert.Equal(t, []string{"Gateron Yellow Pro"}, results[0].Suggestions)

	assert.Equal(t, "Cherry MX Red", results[1].Normalized)
	assert.Equal(t, 1, gen.calls, "fragments are batched into one call")
}

func TestNormalizeAIFailureFallsBackToRules(t *testing.T) {
	gen := &scriptedGenerator{err: errUnavailable}
	n := newTestNormalizer(gen)

	results := n.Normalize(context.Background(), []string{"gateron yellow"})
	require.Len(t, results, 1)
	assert.Equal(t, "Gateron Yellow", results[0].Normalized)
	assert.Equal(t, ruleBasedConfidence, results[0].Confidence)

	// The breaker is now open, so the next batch goes straight to rules.
	n.Normalize(context.Background(), []string{"cherry mx brown"})
	assert.Equal(t, 1, gen.calls)
}

func TestNormalizeAIMalformedJSONFallsBack(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"no json here at all"}}
	n := newTestNormalizer(gen)

	results := n.Normalize(context.Background(), []string{"gateron yellow"})
	require.Len(t, results, 1)
	assert.Equal(t, "Gateron Yellow", results[0].Normalized)
}

func TestNormalizeAICountMismatchFallsBack(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		`{"results": [{"original": "a", "normalized": "A", "confidence": 0.9}]}`,
	}}
	n := newTestNormalizer(gen)

	results := n.Normalize(context.Background(), []string{"gateron yellow", "cherry mx red"})
	require.Len(t, results, 2)
	assert.Equal(t, "Gateron Yellow", results[0].Normalized)
	assert.Equal(t, "Cherry MX Red", results[1].Normalized)
}

func TestNormalizeAIClampsAndTruncates(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		`{"results": [{"original": "x", "normalized": "X Switch", "confidence": 1.7, "alternatives": ["a", "b", "c"]}]}`,
	}}
	n := newTestNormalizer(gen)

	results := n.Normalize(context.Background(), []string{"x"})
	require.Len(t, results, 1)
	assert.Equal(t, 1.0, results[0].Confidence)
	assert.Len(t, results[0].Suggestions, 2)
}
