package resolution

import (
	"math"
	"strings"

	"github.com/switchsage/resolution-engine/internal/catalog"
)

// Confidence bands for conflict arbitration.
const (
	highConfidence   = 0.8
	mediumConfidence = 0.6

	// numericProximity is the relative difference under which two numeric
	// values are considered close enough to annotate both sides.
	numericProximity = 0.15
)

// SwitchSpecs is the factual subset of switch data that conflict resolution
// arbitrates. It doubles as the externally-generated input shape and the
// resolved output shape. Subjective prose (sound, feel, use cases) is never
// arbitrated and stays with the external generator.
type SwitchSpecs struct {
	Manufacturer    *string  `json:"manufacturer,omitempty"`
	Type            *string  `json:"type,omitempty"`
	TopHousing      *string  `json:"topHousing,omitempty"`
	BottomHousing   *string  `json:"bottomHousing,omitempty"`
	Stem            *string  `json:"stem,omitempty"`
	Mount           *string  `json:"mount,omitempty"`
	Spring          *string  `json:"spring,omitempty"`
	ActuationForceG *float64 `json:"actuationForceG,omitempty"`
	BottomOutForceG *float64 `json:"bottomOutForceG,omitempty"`
	PreTravelMm     *float64 `json:"preTravelMm,omitempty"`
	TotalTravelMm   *float64 `json:"totalTravelMm,omitempty"`
}

// ConflictResult pairs the arbitrated specs with every recorded disagreement.
type ConflictResult struct {
	ResolvedSpecs SwitchSpecs     `json:"resolvedSpecs"`
	Conflicts     []FieldConflict `json:"conflicts,omitempty"`
}

// ResolveConflicts arbitrates field-by-field between a catalog record and
// externally generated specs. confidence is the resolution confidence of the
// catalog match: high confidence favors the catalog, low confidence favors
// the external data.
func ResolveConflicts(record *catalog.SwitchRecord, external SwitchSpecs, confidence float64) ConflictResult {
	var out ConflictResult
	if record == nil {
		out.ResolvedSpecs = external
		return out
	}

	typeStr := recordTypeString(record)

	out.ResolvedSpecs.Manufacturer = out.resolveString("manufacturer", record.Manufacturer, external.Manufacturer, confidence)
	out.ResolvedSpecs.Type = out.resolveString("type", typeStr, external.Type, confidence)
	out.ResolvedSpecs.TopHousing = out.resolveString("topHousing", record.TopHousing, external.TopHousing, confidence)
	out.ResolvedSpecs.BottomHousing = out.resolveString("bottomHousing", record.BottomHousing, external.BottomHousing, confidence)
	out.ResolvedSpecs.Stem = out.resolveString("stem", record.Stem, external.Stem, confidence)
	out.ResolvedSpecs.Mount = out.resolveString("mount", record.Mount, external.Mount, confidence)
	out.ResolvedSpecs.Spring = out.resolveString("spring", record.Spring, external.Spring, confidence)
	out.ResolvedSpecs.ActuationForceG = out.resolveNumeric("actuationForceG", record.ActuationForceG, external.ActuationForceG, confidence)
	out.ResolvedSpecs.BottomOutForceG = out.resolveNumeric("bottomOutForceG", record.BottomOutForceG, external.BottomOutForceG, confidence)
	out.ResolvedSpecs.PreTravelMm = out.resolveNumeric("preTravelMm", record.PreTravelMm, external.PreTravelMm, confidence)
	out.ResolvedSpecs.TotalTravelMm = out.resolveNumeric("totalTravelMm", record.TotalTravelMm, external.TotalTravelMm, confidence)

	return out
}

func recordTypeString(record *catalog.SwitchRecord) *string {
	if record.Type == nil {
		return nil
	}
	s := string(*record.Type)
	return &s
}

// resolveString arbitrates a text field. Values are compared
// case-insensitively; a difference is only a conflict when both sides carry a
// non-empty value.
func (r *ConflictResult) resolveString(field string, dbValue, extValue *string, confidence float64) *string {
	dbSet := dbValue != nil && *dbValue != ""
	extSet := extValue != nil && *extValue != ""

	switch {
	case dbSet && !extSet:
		return dbValue
	case !dbSet && extSet:
		return extValue
	case !dbSet && !extSet:
		return nil
	}

	if strings.EqualFold(*dbValue, *extValue) {
		return dbValue
	}

	if confidence < mediumConfidence {
		r.record(field, *dbValue, *extValue, ConflictResolutionExternal,
			"low match confidence, deferring to external data")
		return extValue
	}

	r.record(field, *dbValue, *extValue, ConflictResolutionDatabase,
		"catalog value preferred at this confidence")
	return dbValue
}

// resolveNumeric arbitrates a numeric field. At medium confidence, values
// within 15% of the larger are kept from the catalog but annotated as "both".
func (r *ConflictResult) resolveNumeric(field string, dbValue, extValue *float64, confidence float64) *float64 {
	switch {
	case dbValue != nil && extValue == nil:
		return dbValue
	case dbValue == nil && extValue != nil:
		return extValue
	case dbValue == nil && extValue == nil:
		return nil
	}

	if *dbValue == *extValue {
		return dbValue
	}

	if confidence < mediumConfidence {
		r.record(field, *dbValue, *extValue, ConflictResolutionExternal,
			"low match confidence, deferring to external data")
		return extValue
	}

	if confidence < highConfidence && withinProximity(*dbValue, *extValue) {
		r.record(field, *dbValue, *extValue, ConflictResolutionBoth,
			"values within tolerance, keeping catalog value but reporting both")
		return dbValue
	}

	r.record(field, *dbValue, *extValue, ConflictResolutionDatabase,
		"catalog value preferred at this confidence")
	return dbValue
}

func withinProximity(a, b float64) bool {
	larger := math.Max(math.Abs(a), math.Abs(b))
	if larger == 0 {
		return true
	}
	return math.Abs(a-b) <= numericProximity*larger
}

func (r *ConflictResult) record(field string, dbValue, extValue interface{}, side ConflictResolutionSide, reason string) {
	r.Conflicts = append(r.Conflicts, FieldConflict{
		Field:         field,
		DatabaseValue: dbValue,
		ExternalValue: extValue,
		Resolution:    side,
		Reason:        reason,
	})
}
