// Package resolution implements the tiered switch-name resolution pipeline:
// exact, brand-completed fuzzy, fuzzy, embedding similarity, and AI-assisted
// disambiguation, plus completeness scoring and catalog/external conflict
// arbitration.
package resolution

import (
	"github.com/switchsage/resolution-engine/internal/catalog"
)

// MatchMethod identifies the strategy that produced a resolution.
type MatchMethod string

const (
	MatchMethodExact          MatchMethod = "exact"
	MatchMethodFuzzy          MatchMethod = "fuzzy"
	MatchMethodEmbedding      MatchMethod = "embedding"
	MatchMethodDisambiguation MatchMethod = "ai_disambiguation"
	MatchMethodUnresolved     MatchMethod = "unresolved"
)

// UnresolvedConfidence is the fixed confidence assigned when no strategy
// accepts, so downstream consumers never branch on absence.
const UnresolvedConfidence = 0.3

// Thresholds holds per-strategy acceptance thresholds.
type Thresholds struct {
	Exact          float64
	Fuzzy          float64
	Embedding      float64
	Disambiguation float64
}

// DefaultThresholds returns the stock acceptance thresholds. Callers may
// override them, but these defaults are load-bearing for compatibility.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Exact:          0.95,
		Fuzzy:          0.8,
		Embedding:      0.65,
		Disambiguation: 0.6,
	}
}

// ResolutionQuery is one input unit: a raw fragment plus optional intent
// context inherited from query-level parsing.
type ResolutionQuery struct {
	QueryFragment string `json:"queryFragment"`
	ImplicitBrand string `json:"implicitBrand,omitempty"`
	ImplicitType  string `json:"implicitType,omitempty"`
}

// MatchMetadata carries optional resolution annotations.
type MatchMetadata struct {
	InferredBrand  string `json:"inferredBrand,omitempty"`
	AmbiguityNote  string `json:"ambiguityNote,omitempty"`
	NormalizedName string `json:"normalizedName,omitempty"`
}

// ResolvedSwitch is the output of the pipeline for a single fragment.
type ResolvedSwitch struct {
	QueryFragment  string         `json:"queryFragment"`
	ResolvedName   string         `json:"resolvedName"`
	Confidence     float64        `json:"confidence"`
	MatchMethod    MatchMethod    `json:"matchMethod"`
	DatabaseMatch  bool           `json:"databaseMatch"`
	BrandCompleted bool           `json:"brandCompleted"`
	Metadata       *MatchMetadata `json:"metadata,omitempty"`
}

// DatabaseContext aggregates the catalog records found for one request.
type DatabaseContext struct {
	Switches       []*catalog.SwitchRecord `json:"switches"`
	TotalFound     int                     `json:"totalFound"`
	TotalRequested int                     `json:"totalRequested"`
}

// DataQuality summarizes how reliable the aggregated catalog data is.
type DataQuality struct {
	OverallCompleteness        float64  `json:"overallCompleteness"`
	SwitchesWithIncompleteData int      `json:"switchesWithIncompleteData"`
	SwitchesNotFound           []string `json:"switchesNotFound,omitempty"`
	HasAnyData                 bool     `json:"hasAnyData"`
	RecommendLLMFallback       bool     `json:"recommendLLMFallback"`
}

// UsageStats tracks per-request lookup outcomes.
type UsageStats struct {
	SuccessfulLookups    int `json:"successfulLookups"`
	FailedLookups        int `json:"failedLookups"`
	LowConfidenceLookups int `json:"lowConfidenceLookups"`
	IncompleteDataCount  int `json:"incompleteDataCount"`
}

// EnhancedDatabaseContext is a DatabaseContext annotated with per-name
// lookup results, quality metrics, and usage counters.
type EnhancedDatabaseContext struct {
	DatabaseContext
	Results     []LookupResult `json:"results,omitempty"`
	DataQuality DataQuality    `json:"dataQuality"`
	Stats       UsageStats     `json:"stats"`
}

// ConflictResolution identifies which side of a field disagreement won.
type ConflictResolutionSide string

const (
	ConflictResolutionDatabase ConflictResolutionSide = "database"
	ConflictResolutionExternal ConflictResolutionSide = "external"
	ConflictResolutionBoth     ConflictResolutionSide = "both"
)

// FieldConflict records a per-field disagreement between catalog data and
// externally generated data.
type FieldConflict struct {
	Field         string                 `json:"field"`
	DatabaseValue interface{}            `json:"databaseValue"`
	ExternalValue interface{}            `json:"externalValue"`
	Resolution    ConflictResolutionSide `json:"resolution"`
	Reason        string                 `json:"reason"`
}
