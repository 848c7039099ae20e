package resolution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/switchsage/resolution-engine/internal/catalog"
	"github.com/switchsage/resolution-engine/internal/embedding"
	"github.com/switchsage/resolution-engine/internal/llm"
	"github.com/switchsage/resolution-engine/internal/observability"
)

// ResolutionResult is the aggregate outcome of resolving a batch of
// fragments. Confidence is the mean over all fragments; ResolutionMethod is
// the method of the highest-confidence fragment.
type ResolutionResult struct {
	ResolvedSwitches []ResolvedSwitch `json:"resolvedSwitches"`
	Confidence       float64          `json:"confidence"`
	ResolutionMethod MatchMethod      `json:"resolutionMethod"`
	Warnings         []string         `json:"warnings,omitempty"`
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Thresholds             Thresholds
	EnableBrandCompletion  bool
	EnableAIDisambiguation bool
	MaxWorkers             int
	FragmentTimeout        time.Duration
	BreakerCooldown        time.Duration
}

// Service is the canonical resolution surface: fragment resolution,
// specification fetch, context enrichment, and conflict arbitration.
type Service struct {
	logger     *observability.Logger
	store      catalog.Store
	pipeline   *Pipeline
	normalizer *NameNormalizer
	cache      *ResponseCache

	maxWorkers      int
	fragmentTimeout time.Duration
}

// NewService wires the pipeline, normalizer, and circuit breakers. embedder,
// generator, and responseCache may be nil; the corresponding behavior is
// skipped.
func NewService(
	logger *observability.Logger,
	store catalog.Store,
	embedder embedding.Embedder,
	generator llm.Generator,
	responseCache *ResponseCache,
	opts ServiceOptions,
) *Service {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 5
	}
	if opts.FragmentTimeout <= 0 {
		opts.FragmentTimeout = 10 * time.Second
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = time.Minute
	}

	embeddingBreaker := NewCircuitBreaker("embedding", opts.BreakerCooldown)
	normalizationBreaker := NewCircuitBreaker("ai-normalization", opts.BreakerCooldown)

	pipeline := NewPipeline(logger, store, embedder, generator, embeddingBreaker, PipelineOptions{
		Thresholds:             opts.Thresholds,
		EnableBrandCompletion:  opts.EnableBrandCompletion,
		EnableAIDisambiguation: opts.EnableAIDisambiguation,
	})

	return &Service{
		logger:          logger.WithComponent("resolution-service"),
		store:           store,
		pipeline:        pipeline,
		normalizer:      NewNameNormalizer(logger, generator, normalizationBreaker),
		cache:           responseCache,
		maxWorkers:      opts.MaxWorkers,
		fragmentTimeout: opts.FragmentTimeout,
	}
}

// ResolveSwitches resolves a batch of fragments against the catalog.
// availableNames may be nil, in which case the full catalog name list is
// loaded. Fragments are resolved concurrently by a bounded worker pool;
// output order matches input order.
func (s *Service) ResolveSwitches(ctx context.Context, queries []ResolutionQuery, availableNames []string) (*ResolutionResult, error) {
	if len(queries) == 0 {
		return &ResolutionResult{ResolvedSwitches: []ResolvedSwitch{}}, nil
	}

	if cached := s.cache.Get(ctx, queries); cached != nil {
		s.logger.Debug().Int("fragments", len(queries)).Msg("resolution cache hit")
		return cached, nil
	}

	var warnings []string
	degraded := false
	names := availableNames
	if names == nil {
		loaded, err := s.store.ListNames(ctx)
		if err != nil {
			// A catalog outage degrades every fragment to the unresolved
			// fallback instead of failing the request.
			s.logger.Warn().Err(err).Msg("catalog name listing failed")
			warnings = append(warnings, fmt.Sprintf("catalog unavailable, resolving without candidates: %v", err))
			degraded = true
		} else {
			names = loaded
		}
	}

	normalized := s.normalizeFragments(ctx, queries, &warnings)

	results := make([]ResolvedSwitch, len(queries))
	workChan := make(chan int, len(queries))
	for i := range queries {
		workChan <- i
	}
	close(workChan)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	workers := s.maxWorkers
	if workers > len(queries) {
		workers = len(queries)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workChan {
				resolved := s.resolveOne(ctx, queries[i], normalized[i], names)

				mu.Lock()
				results[i] = resolved
				if resolved.MatchMethod == MatchMethodUnresolved {
					warnings = append(warnings, fmt.Sprintf("could not resolve %q against the catalog", queries[i].QueryFragment))
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &ResolutionResult{
		ResolvedSwitches: results,
		Warnings:         warnings,
	}
	result.Confidence, result.ResolutionMethod = summarize(results)

	// Degraded results are not cached, so the outage does not outlive the
	// catalog's recovery.
	if !degraded {
		s.cache.Set(ctx, queries, result)
	}
	return result, nil
}

// resolveOne runs the pipeline for one fragment under its own timeout. The
// fragment's result always reflects the original query text, with the
// normalized form recorded in metadata when it differs.
func (s *Service) resolveOne(ctx context.Context, query ResolutionQuery, normalized NormalizedName, names []string) ResolvedSwitch {
	fragCtx, cancel := context.WithTimeout(ctx, s.fragmentTimeout)
	defer cancel()

	pipelineQuery := query
	if normalized.Normalized != "" {
		pipelineQuery.QueryFragment = normalized.Normalized
	}

	resolved := s.pipeline.Resolve(fragCtx, pipelineQuery, names)
	resolved.QueryFragment = query.QueryFragment
	if resolved.MatchMethod == MatchMethodUnresolved {
		resolved.ResolvedName = query.QueryFragment
	}
	if normalized.Normalized != "" && normalized.Normalized != query.QueryFragment {
		if resolved.Metadata == nil {
			resolved.Metadata = &MatchMetadata{}
		}
		if resolved.Metadata.NormalizedName == "" {
			resolved.Metadata.NormalizedName = normalized.Normalized
		}
	}
	return resolved
}

func (s *Service) normalizeFragments(ctx context.Context, queries []ResolutionQuery, warnings *[]string) []NormalizedName {
	fragments := make([]string, len(queries))
	for i, q := range queries {
		fragments[i] = q.QueryFragment
	}

	normalized := s.normalizer.Normalize(ctx, fragments)
	if len(normalized) != len(queries) {
		// Defensive path for a misbehaving normalizer; keep originals.
		*warnings = append(*warnings, "name normalization returned a partial result, using raw fragments")
		normalized = make([]NormalizedName, len(queries))
		for i, q := range queries {
			normalized[i] = NormalizedName{Original: q.QueryFragment, Normalized: q.QueryFragment}
		}
	}
	return normalized
}

func summarize(results []ResolvedSwitch) (float64, MatchMethod) {
	if len(results) == 0 {
		return 0, MatchMethodUnresolved
	}

	sum := 0.0
	best := results[0]
	for _, r := range results {
		sum += r.Confidence
		if r.Confidence > best.Confidence {
			best = r
		}
	}
	return sum / float64(len(results)), best.MatchMethod
}

// FetchSwitchSpecifications loads full catalog records for the given names.
// Names that miss on exact lookup are run through the pipeline first; a name
// that still misses is reported as not found rather than failing the request.
func (s *Service) FetchSwitchSpecifications(ctx context.Context, names []string) (*EnhancedDatabaseContext, error) {
	results := make([]LookupResult, len(names))

	catalogNames, err := s.store.ListNames(ctx)
	if err != nil {
		// Exact lookups may still succeed; the pipeline just has no
		// candidates to recover near-misses against.
		s.logger.Warn().Err(err).Msg("catalog name listing failed")
		catalogNames = nil
	}

	for i, name := range names {
		results[i] = s.lookupOne(ctx, name, catalogNames)
	}

	enhanced := BuildContext(results, names)
	return &enhanced, nil
}

func (s *Service) lookupOne(ctx context.Context, name string, catalogNames []string) LookupResult {
	result := LookupResult{RequestedName: name}

	record, err := s.store.ExactLookup(ctx, name)
	if err == nil {
		resolution := ResolvedSwitch{
			QueryFragment: name,
			ResolvedName:  record.Name,
			Confidence:    1.0,
			MatchMethod:   MatchMethodExact,
			DatabaseMatch: true,
		}
		c := AnalyzeCompleteness(record)
		result.Found = true
		result.Record = record
		result.Resolution = &resolution
		result.Completeness = &c
		return result
	}
	if err != catalog.ErrNotFound {
		s.logger.Warn().Err(err).Str("name", name).Msg("catalog lookup failed")
		return result
	}

	resolved := s.pipeline.Resolve(ctx, ResolutionQuery{QueryFragment: name}, catalogNames)
	if !resolved.DatabaseMatch {
		return result
	}

	record, err = s.store.ExactLookup(ctx, resolved.ResolvedName)
	if err != nil {
		if err != catalog.ErrNotFound {
			s.logger.Warn().Err(err).Str("name", resolved.ResolvedName).Msg("catalog lookup failed")
		}
		return result
	}

	c := AnalyzeCompleteness(record)
	result.Found = true
	result.Record = record
	result.Resolution = &resolved
	result.Completeness = &c
	return result
}

// CreateEnhancedContext aggregates prior lookup results into a quality-scored
// context without touching the catalog again.
func (s *Service) CreateEnhancedContext(results []LookupResult, originalNames []string) EnhancedDatabaseContext {
	return BuildContext(results, originalNames)
}

// ResolveDataConflicts arbitrates a catalog record against externally
// generated specs at the given match confidence.
func (s *Service) ResolveDataConflicts(record *catalog.SwitchRecord, external SwitchSpecs, confidence float64) ConflictResult {
	result := ResolveConflicts(record, external, confidence)
	if len(result.Conflicts) > 0 {
		s.logger.Debug().
			Int("conflicts", len(result.Conflicts)).
			Float64("confidence", confidence).
			Msg("resolved data conflicts")
	}
	return result
}
