package resolution

import (
	"github.com/switchsage/resolution-engine/internal/catalog"
)

// Completeness describes how fully specified a single catalog record is.
type Completeness struct {
	CompletenessScore     float64  `json:"completenessScore"`
	MissingFields         []string `json:"missingFields,omitempty"`
	CriticalFieldsMissing bool     `json:"criticalFieldsMissing"`
	HasSpecifications     bool     `json:"hasSpecifications"`
}

// LookupResult pairs a requested name with its catalog outcome.
type LookupResult struct {
	RequestedName string                `json:"requestedName"`
	Found         bool                  `json:"found"`
	Record        *catalog.SwitchRecord `json:"record,omitempty"`
	Resolution    *ResolvedSwitch       `json:"resolution,omitempty"`
	Completeness  *Completeness         `json:"completeness,omitempty"`
}

// criticalFieldCount and specFieldCount fix the completeness denominator:
// name and manufacturer are critical, the nine specification fields are
// type, four materials plus mount, and the four numeric force/travel values.
const (
	criticalFieldCount = 2
	specFieldCount     = 9
)

// AnalyzeCompleteness scores a record by the share of its critical and
// specification fields that carry a non-empty value.
func AnalyzeCompleteness(record *catalog.SwitchRecord) Completeness {
	if record == nil {
		return Completeness{CriticalFieldsMissing: true}
	}

	var missing []string
	present := 0

	critical := []struct {
		name  string
		value *string
	}{
		{"manufacturer", record.Manufacturer},
	}
	if record.Name != "" {
		present++
	} else {
		missing = append(missing, "name")
	}
	for _, f := range critical {
		if f.value != nil && *f.value != "" {
			present++
		} else {
			missing = append(missing, f.name)
		}
	}
	criticalMissing := len(missing) > 0

	specPresent := 0
	if record.Type != nil && *record.Type != "" {
		specPresent++
	} else {
		missing = append(missing, "type")
	}
	materials := []struct {
		name  string
		value *string
	}{
		{"topHousing", record.TopHousing},
		{"bottomHousing", record.BottomHousing},
		{"stem", record.Stem},
		{"mount", record.Mount},
		{"spring", record.Spring},
	}
	for _, f := range materials {
		if f.value != nil && *f.value != "" {
			specPresent++
		} else {
			missing = append(missing, f.name)
		}
	}
	numerics := []struct {
		name  string
		value *float64
	}{
		{"actuationForceG", record.ActuationForceG},
		{"bottomOutForceG", record.BottomOutForceG},
		{"preTravelMm", record.PreTravelMm},
		{"totalTravelMm", record.TotalTravelMm},
	}
	for _, f := range numerics {
		if f.value != nil {
			specPresent++
		} else {
			missing = append(missing, f.name)
		}
	}
	present += specPresent

	return Completeness{
		CompletenessScore:     float64(present) / float64(criticalFieldCount+specFieldCount),
		MissingFields:         missing,
		CriticalFieldsMissing: criticalMissing,
		HasSpecifications:     specPresent > 0,
	}
}

// BuildContext aggregates per-record lookup results into the context handed
// to downstream generation, including the fallback recommendation.
func BuildContext(results []LookupResult, requestedNames []string) EnhancedDatabaseContext {
	var (
		switches   []*catalog.SwitchRecord
		notFound   []string
		stats      UsageStats
		scoreSum   float64
		incomplete int
	)

	for i := range results {
		r := &results[i]
		if !r.Found || r.Record == nil {
			stats.FailedLookups++
			notFound = append(notFound, r.RequestedName)
			continue
		}

		stats.SuccessfulLookups++
		switches = append(switches, r.Record)

		c := AnalyzeCompleteness(r.Record)
		if r.Completeness == nil {
			r.Completeness = &c
		}
		scoreSum += c.CompletenessScore
		if c.CriticalFieldsMissing || !c.HasSpecifications {
			incomplete++
			stats.IncompleteDataCount++
		}
		if r.Resolution != nil && r.Resolution.Confidence < DefaultThresholds().Fuzzy {
			stats.LowConfidenceLookups++
		}
	}

	overall := 0.0
	if stats.SuccessfulLookups > 0 {
		overall = scoreSum / float64(stats.SuccessfulLookups)
	}

	recommendFallback := stats.FailedLookups > stats.SuccessfulLookups ||
		overall < 0.4 ||
		float64(incomplete) > float64(stats.SuccessfulLookups)/2

	return EnhancedDatabaseContext{
		DatabaseContext: DatabaseContext{
			Switches:       switches,
			TotalFound:     stats.SuccessfulLookups,
			TotalRequested: len(requestedNames),
		},
		Results: results,
		DataQuality: DataQuality{
			OverallCompleteness:        overall,
			SwitchesWithIncompleteData: incomplete,
			SwitchesNotFound:           notFound,
			HasAnyData:                 stats.SuccessfulLookups > 0,
			RecommendLLMFallback:       recommendFallback,
		},
		Stats: stats,
	}
}
