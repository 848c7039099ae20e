package resolution

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/switchsage/resolution-engine/internal/catalog"
	"github.com/switchsage/resolution-engine/internal/embedding"
	"github.com/switchsage/resolution-engine/internal/llm"
	"github.com/switchsage/resolution-engine/internal/observability"
)

// maxDisambiguationCandidates bounds the candidate list sent to the
// text-generation model.
const maxDisambiguationCandidates = 20

// Pipeline resolves a single fragment by running the match strategies in
// priority order: exact, brand-completed fuzzy, plain fuzzy, embedding
// similarity, AI disambiguation. The first accepting strategy wins.
type Pipeline struct {
	logger     *observability.Logger
	store      catalog.Store
	embedder   embedding.Embedder
	generator  llm.Generator
	thresholds Thresholds

	enableBrandCompletion  bool
	enableAIDisambiguation bool

	embeddingBreaker *CircuitBreaker
}

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	Thresholds             Thresholds
	EnableBrandCompletion  bool
	EnableAIDisambiguation bool
}

// NewPipeline creates a pipeline. embedder and generator may be nil; the
// corresponding strategies are skipped.
func NewPipeline(
	logger *observability.Logger,
	store catalog.Store,
	embedder embedding.Embedder,
	generator llm.Generator,
	embeddingBreaker *CircuitBreaker,
	opts PipelineOptions,
) *Pipeline {
	return &Pipeline{
		logger:                 logger.WithComponent("pipeline"),
		store:                  store,
		embedder:               embedder,
		generator:              generator,
		thresholds:             opts.Thresholds,
		enableBrandCompletion:  opts.EnableBrandCompletion,
		enableAIDisambiguation: opts.EnableAIDisambiguation,
		embeddingBreaker:       embeddingBreaker,
	}
}

// Resolve runs the strategies in order for one fragment. It never returns an
// error: a fragment no strategy accepts yields the unresolved fallback with
// a fixed low confidence.
func (p *Pipeline) Resolve(ctx context.Context, query ResolutionQuery, names []string) ResolvedSwitch {
	fragment := strings.TrimSpace(query.QueryFragment)

	if resolved, ok := p.matchExact(fragment, names); ok {
		return resolved
	}

	if resolved, ok := p.matchBrandCompletedFuzzy(fragment, query.ImplicitBrand, names); ok {
		return resolved
	}

	if resolved, ok := p.matchFuzzy(fragment, names); ok {
		return resolved
	}

	if resolved, ok := p.matchEmbedding(ctx, fragment); ok {
		return resolved
	}

	if resolved, ok := p.matchAIDisambiguation(ctx, query, names); ok {
		return resolved
	}

	p.logger.Debug().Str("fragment", fragment).Msg("no strategy accepted, returning unresolved fallback")
	return ResolvedSwitch{
		QueryFragment: query.QueryFragment,
		ResolvedName:  query.QueryFragment,
		Confidence:    UnresolvedConfidence,
		MatchMethod:   MatchMethodUnresolved,
		DatabaseMatch: false,
	}
}

func (p *Pipeline) matchExact(fragment string, names []string) (ResolvedSwitch, bool) {
	for _, name := range names {
		if strings.EqualFold(fragment, name) {
			if 1.0 < p.thresholds.Exact {
				return ResolvedSwitch{}, false
			}
			return ResolvedSwitch{
				QueryFragment: fragment,
				ResolvedName:  name,
				Confidence:    1.0,
				MatchMethod:   MatchMethodExact,
				DatabaseMatch: true,
			}, true
		}
	}
	return ResolvedSwitch{}, false
}

func (p *Pipeline) matchBrandCompletedFuzzy(fragment, implicitBrand string, names []string) (ResolvedSwitch, bool) {
	if !p.enableBrandCompletion || implicitBrand == "" {
		return ResolvedSwitch{}, false
	}

	completed := CompleteBrand(fragment, implicitBrand)
	if completed == fragment {
		return ResolvedSwitch{}, false
	}

	name, similarity := bestFuzzyMatch(completed, names)
	if name == "" || similarity < p.thresholds.Fuzzy {
		return ResolvedSwitch{}, false
	}

	p.logger.Debug().
		Str("fragment", fragment).
		Str("completed", completed).
		Str("resolved", name).
		Float64("similarity", similarity).
		Msg("brand-completed fuzzy match accepted")

	return ResolvedSwitch{
		QueryFragment:  fragment,
		ResolvedName:   name,
		Confidence:     similarity,
		MatchMethod:    MatchMethodFuzzy,
		DatabaseMatch:  true,
		BrandCompleted: true,
		Metadata: &MatchMetadata{
			InferredBrand:  implicitBrand,
			NormalizedName: completed,
		},
	}, true
}

func (p *Pipeline) matchFuzzy(fragment string, names []string) (ResolvedSwitch, bool) {
	name, similarity := bestFuzzyMatch(fragment, names)
	if name == "" || similarity < p.thresholds.Fuzzy {
		return ResolvedSwitch{}, false
	}

	return ResolvedSwitch{
		QueryFragment: fragment,
		ResolvedName:  name,
		Confidence:    similarity,
		MatchMethod:   MatchMethodFuzzy,
		DatabaseMatch: true,
	}, true
}

func (p *Pipeline) matchEmbedding(ctx context.Context, fragment string) (ResolvedSwitch, bool) {
	if p.embedder == nil || !p.embeddingBreaker.Allow() {
		return ResolvedSwitch{}, false
	}

	vector, err := p.embedder.EmbedSingle(ctx, fragment)
	if err != nil {
		p.embeddingBreaker.RecordFailure()
		p.logger.Warn().Err(err).Str("fragment", fragment).Msg("embedding call failed, strategy disabled until cooldown")
		return ResolvedSwitch{}, false
	}

	matches, err := p.store.VectorLookup(ctx, vector, 1)
	if err != nil {
		p.embeddingBreaker.RecordFailure()
		p.logger.Warn().Err(err).Str("fragment", fragment).Msg("vector lookup failed")
		return ResolvedSwitch{}, false
	}
	p.embeddingBreaker.RecordSuccess()

	if len(matches) == 0 || matches[0].Similarity < p.thresholds.Embedding {
		return ResolvedSwitch{}, false
	}

	best := matches[0]
	return ResolvedSwitch{
		QueryFragment: fragment,
		ResolvedName:  best.Record.Name,
		Confidence:    clamp01(best.Similarity),
		MatchMethod:   MatchMethodEmbedding,
		DatabaseMatch: true,
	}, true
}

type disambiguationVerdict struct {
	Match      *string `json:"match"`
	Confidence float64 `json:"confidence"`
	Note       string  `json:"note"`
}

// matchAIDisambiguation asks the text-generation model to pick the best
// candidate. Any failure is treated as "no match" and falls through to the
// unresolved default.
func (p *Pipeline) matchAIDisambiguation(ctx context.Context, query ResolutionQuery, names []string) (ResolvedSwitch, bool) {
	if !p.enableAIDisambiguation || p.generator == nil || len(names) == 0 {
		return ResolvedSwitch{}, false
	}

	candidates := names
	if len(candidates) > maxDisambiguationCandidates {
		candidates = candidates[:maxDisambiguationCandidates]
	}

	prompt := buildDisambiguationPrompt(query, candidates)
	raw, err := p.generator.Generate(ctx, prompt, llm.Options{Temperature: 0.1})
	if err != nil {
		p.logger.Warn().Err(err).Str("fragment", query.QueryFragment).Msg("disambiguation call failed")
		return ResolvedSwitch{}, false
	}

	obj, err := llm.ExtractJSONObject(raw)
	if err != nil {
		return ResolvedSwitch{}, false
	}

	var verdict disambiguationVerdict
	if err := json.Unmarshal([]byte(obj), &verdict); err != nil {
		return ResolvedSwitch{}, false
	}

	if verdict.Match == nil || verdict.Confidence < p.thresholds.Disambiguation {
		return ResolvedSwitch{}, false
	}

	// The model must name an actual candidate, not invent one.
	resolved := ""
	for _, name := range candidates {
		if strings.EqualFold(*verdict.Match, name) {
			resolved = name
			break
		}
	}
	if resolved == "" {
		return ResolvedSwitch{}, false
	}

	result := ResolvedSwitch{
		QueryFragment: query.QueryFragment,
		ResolvedName:  resolved,
		Confidence:    clamp01(verdict.Confidence),
		MatchMethod:   MatchMethodDisambiguation,
		DatabaseMatch: true,
	}
	if verdict.Note != "" {
		result.Metadata = &MatchMetadata{AmbiguityNote: verdict.Note}
	}
	return result, true
}

func buildDisambiguationPrompt(query ResolutionQuery, candidates []string) string {
	var sb strings.Builder
	sb.WriteString("A user referred to a mechanical keyboard switch ambiguously.\n\n")
	fmt.Fprintf(&sb, "Fragment: %q\n", query.QueryFragment)
	if query.ImplicitBrand != "" {
		fmt.Fprintf(&sb, "Likely brand from context: %s\n", query.ImplicitBrand)
	}
	if query.ImplicitType != "" {
		fmt.Fprintf(&sb, "Likely switch type from context: %s\n", query.ImplicitType)
	}
	sb.WriteString("\nCandidate catalog entries:\n")
	for _, c := range candidates {
		fmt.Fprintf(&sb, "- %s\n", c)
	}
	sb.WriteString(`
Pick the catalog entry the user most likely means, or null if none fit.
Return ONLY a JSON object:

{"match": "<candidate name or null>", "confidence": 0.0, "note": "<short reasoning>"}`)
	return sb.String()
}
