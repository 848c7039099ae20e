package resolution

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/switchsage/resolution-engine/internal/llm"
	"github.com/switchsage/resolution-engine/internal/observability"
)

// NormalizedName is one normalization result.
type NormalizedName struct {
	Original    string   `json:"original"`
	Normalized  string   `json:"normalized"`
	Confidence  float64  `json:"confidence"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ruleBasedConfidence is the fixed confidence of the deterministic fallback
// normalizer, which always succeeds.
const ruleBasedConfidence = 0.8

// manufacturerCasing maps lowercase manufacturer tokens to catalog casing.
var manufacturerCasing = map[string]string{
	"cherry":     "Cherry",
	"mx":         "MX",
	"gateron":    "Gateron",
	"gat":        "Gateron",
	"kailh":      "Kailh",
	"outemu":     "Outemu",
	"zealpc":     "ZealPC",
	"zeal":       "Zeal",
	"akko":       "Akko",
	"ttc":        "TTC",
	"jwk":        "JWK",
	"durock":     "Durock",
	"gazzew":     "Gazzew",
	"novelkeys":  "NovelKeys",
	"nk":         "NK",
	"hmx":        "HMX",
	"keychron":   "Keychron",
	"drop":       "Drop",
	"glorious":   "Glorious",
	"epomaker":   "Epomaker",
	"wuque":      "Wuque",
	"tecsee":     "Tecsee",
	"everglide":  "Everglide",
	"huano":      "Huano",
	"greetech":   "Greetech",
	"sp-star":    "SP-Star",
}

// compoundTermCasing maps known multi-word switch terms to catalog casing,
// keyed by their collapsed lowercase form.
var compoundTermCasing = map[string]string{
	"holy panda":       "Holy Panda",
	"glorious panda":   "Glorious Panda",
	"boba u4":          "Boba U4",
	"boba u4t":         "Boba U4T",
	"ink black":        "Ink Black",
	"box jade":         "Box Jade",
	"box navy":         "Box Navy",
	"box white":        "Box White",
	"alpaca v2":        "Alpaca V2",
	"cream jade":       "Cream Jade",
	"oil king":         "Oil King",
	"nk cream":         "NK Cream",
	"hippo deep sea":   "Hippo Deep Sea",
	"tangerine":        "Tangerine",
	"silent alpaca":    "Silent Alpaca",
	"speed silver":     "Speed Silver",
	"zealios v2":       "Zealios V2",
	"tealios v2":       "Tealios V2",
}

// NameNormalizer canonicalizes raw name fragments. The primary path batches
// all fragments into one generation call; the rule-based path is the
// always-succeeding fallback. A circuit breaker disables the AI path after a
// failure.
type NameNormalizer struct {
	logger    *observability.Logger
	generator llm.Generator
	breaker   *CircuitBreaker
}

// NewNameNormalizer creates a normalizer. generator may be nil, in which case
// only the rule-based path runs.
func NewNameNormalizer(logger *observability.Logger, generator llm.Generator, breaker *CircuitBreaker) *NameNormalizer {
	return &NameNormalizer{
		logger:    logger.WithComponent("normalizer"),
		generator: generator,
		breaker:   breaker,
	}
}

// Normalize canonicalizes fragments in input order. The result always has
// exactly one entry per fragment.
func (n *NameNormalizer) Normalize(ctx context.Context, fragments []string) []NormalizedName {
	if len(fragments) == 0 {
		return nil
	}

	if n.generator != nil && n.breaker.Allow() {
		results, err := n.normalizeWithAI(ctx, fragments)
		if err == nil {
			n.breaker.RecordSuccess()
			return results
		}

		n.breaker.RecordFailure()
		n.logger.Warn().
			Err(err).
			Int("fragments", len(fragments)).
			Msg("AI normalization failed, falling back to rules")
	}

	results := make([]NormalizedName, len(fragments))
	for i, fragment := range fragments {
		results[i] = n.normalizeWithRules(fragment)
	}
	return results
}

type aiNormalizationResponse struct {
	Results []struct {
		Original     string   `json:"original"`
		Normalized   string   `json:"normalized"`
		Confidence   float64  `json:"confidence"`
		Alternatives []string `json:"alternatives"`
	} `json:"results"`
}

// normalizeWithAI issues one batched generation call and parses the first
// JSON object substring of the response. The response must map fragments
// one-to-one in order.
func (n *NameNormalizer) normalizeWithAI(ctx context.Context, fragments []string) ([]NormalizedName, error) {
	prompt := buildNormalizationPrompt(fragments)

	raw, err := n.generator.Generate(ctx, prompt, llm.Options{Temperature: 0.1})
	if err != nil {
		return nil, fmt.Errorf("generation call: %w", err)
	}

	obj, err := llm.ExtractJSONObject(raw)
	if err != nil {
		return nil, fmt.Errorf("extract JSON: %w", err)
	}

	var resp aiNormalizationResponse
	if err := json.Unmarshal([]byte(obj), &resp); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}

	if len(resp.Results) != len(fragments) {
		return nil, fmt.Errorf("expected %d results, got %d", len(fragments), len(resp.Results))
	}

	results := make([]NormalizedName, len(fragments))
	for i, r := range resp.Results {
		normalized := strings.TrimSpace(r.Normalized)
		if normalized == "" {
			results[i] = n.normalizeWithRules(fragments[i])
			continue
		}

		confidence := clamp01(r.Confidence)
		suggestions := r.Alternatives
		if len(suggestions) > 2 {
			suggestions = suggestions[:2]
		}

		results[i] = NormalizedName{
			Original:    fragments[i],
			Normalized:  normalized,
			Confidence:  confidence,
			Suggestions: suggestions,
		}
	}
	return results, nil
}

func buildNormalizationPrompt(fragments []string) string {
	var sb strings.Builder
	sb.WriteString("You normalize mechanical keyboard switch names to their canonical catalog form.\n")
	sb.WriteString("Fix abbreviations, casing, and misspellings (e.g. \"gat yellow\" -> \"Gateron Yellow\").\n\n")
	sb.WriteString("Input fragments, in order:\n")
	for i, f := range fragments {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, f)
	}
	sb.WriteString(`
Return ONLY a JSON object of this shape, with exactly one result per input
fragment, in the same order:

{"results": [{"original": "...", "normalized": "...", "confidence": 0.0, "alternatives": ["...", "..."]}]}

Rules:
- confidence is in [0,1]
- at most two alternatives per fragment
- keep the original text in "original" unchanged`)
	return sb.String()
}

// normalizeWithRules applies the deterministic fallback: whitespace collapse,
// known compound-term casing, and per-token manufacturer casing.
func (n *NameNormalizer) normalizeWithRules(fragment string) NormalizedName {
	collapsed := strings.Join(strings.Fields(fragment), " ")

	if canonical, ok := compoundTermCasing[strings.ToLower(collapsed)]; ok {
		return NormalizedName{
			Original:   fragment,
			Normalized: canonical,
			Confidence: ruleBasedConfidence,
		}
	}

	words := strings.Fields(collapsed)
	for i, word := range words {
		if canonical, ok := manufacturerCasing[strings.ToLower(word)]; ok {
			words[i] = canonical
		} else {
			words[i] = capitalize(word)
		}
	}

	return NormalizedName{
		Original:   fragment,
		Normalized: strings.Join(words, " "),
		Confidence: ruleBasedConfidence,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
