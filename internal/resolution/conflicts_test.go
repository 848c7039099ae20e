package resolution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConflictsHighConfidenceDatabaseWins(t *testing.T) {
	record := fullRecord("Cherry MX Red")
	external := SwitchSpecs{
		ActuationForceG: f64Ptr(54), // 20% off the catalog's 45
		Manufacturer:    strPtr("Gateron"),
	}

	result := ResolveConflicts(record, external, 0.9)

	require.NotNil(t, result.ResolvedSpecs.ActuationForceG)
	assert.Equal(t, 45.0, *result.ResolvedSpecs.ActuationForceG)
	assert.Equal(t, "Cherry", *result.ResolvedSpecs.Manufacturer)

	require.Len(t, result.Conflicts, 2)
	for _, c := range result.Conflicts {
		assert.Equal(t, ConflictResolutionDatabase, c.Resolution)
	}
}

func TestResolveConflictsMediumConfidenceCloseNumericsAnnotateBoth(t *testing.T) {
	record := fullRecord("Cherry MX Red")
	external := SwitchSpecs{
		ActuationForceG: f64Ptr(48), // within 15% of 45
		BottomOutForceG: f64Ptr(80), // 25% off 60
	}

	result := ResolveConflicts(record, external, 0.7)

	assert.Equal(t, 45.0, *result.ResolvedSpecs.ActuationForceG)
	assert.Equal(t, 60.0, *result.ResolvedSpecs.BottomOutForceG)

	require.Len(t, result.Conflicts, 2)
	byField := map[string]ConflictResolutionSide{}
	for _, c := range result.Conflicts {
		byField[c.Field] = c.Resolution
	}
	assert.Equal(t, ConflictResolutionBoth, byField["actuationForceG"])
	assert.Equal(t, ConflictResolutionDatabase, byField["bottomOutForceG"])
}

func TestResolveConflictsLowConfidenceExternalWins(t *testing.T) {
	record := fullRecord("Cherry MX Red")
	external := SwitchSpecs{
		ActuationForceG: f64Ptr(50),
		Stem:            strPtr("UHMWPE"),
	}

	result := ResolveConflicts(record, external, 0.4)

	assert.Equal(t, 50.0, *result.ResolvedSpecs.ActuationForceG)
	assert.Equal(t, "UHMWPE", *result.ResolvedSpecs.Stem)

	require.Len(t, result.Conflicts, 2)
	for _, c := range result.Conflicts {
		assert.Equal(t, ConflictResolutionExternal, c.Resolution)
	}
}

func TestResolveConflictsCatalogOnlyValueAdoptedSilently(t *testing.T) {
	record := fullRecord("Cherry MX Red")

	result := ResolveConflicts(record, SwitchSpecs{}, 0.9)

	assert.Equal(t, "Cherry", *result.ResolvedSpecs.Manufacturer)
	assert.Equal(t, 45.0, *result.ResolvedSpecs.ActuationForceG)
	assert.Equal(t, "nylon", *result.ResolvedSpecs.TopHousing)
	assert.Empty(t, result.Conflicts)
}

func TestResolveConflictsExternalOnlyValueAdoptedSilently(t *testing.T) {
	record := fullRecord("Cherry MX Red")
	record.Spring = nil
	external := SwitchSpecs{Spring: strPtr("gold-plated")}

	result := ResolveConflicts(record, external, 0.9)

	assert.Equal(t, "gold-plated", *result.ResolvedSpecs.Spring)
	assert.Empty(t, result.Conflicts)
}

func TestResolveConflictsEqualValuesNoConflict(t *testing.T) {
	record := fullRecord("Cherry MX Red")
	external := SwitchSpecs{
		Manufacturer:    strPtr("CHERRY"), // case-insensitive equality
		ActuationForceG: f64Ptr(45),
	}

	result := ResolveConflicts(record, external, 0.7)
	assert.Empty(t, result.Conflicts)
	assert.Equal(t, "Cherry", *result.ResolvedSpecs.Manufacturer)
}

func TestResolveConflictsNilRecordKeepsExternal(t *testing.T) {
	external := SwitchSpecs{Manufacturer: strPtr("Gateron")}
	result := ResolveConflicts(nil, external, 0.9)
	assert.Equal(t, external, result.ResolvedSpecs)
	assert.Empty(t, result.Conflicts)
}

func TestResolveConflictsTypeField(t *testing.T) {
	record := fullRecord("Cherry MX Red") // linear
	external := SwitchSpecs{Type: strPtr("tactile")}

	result := ResolveConflicts(record, external, 0.9)
	assert.Equal(t, "linear", *result.ResolvedSpecs.Type)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "type", result.Conflicts[0].Field)
	assert.Equal(t, ConflictResolutionDatabase, result.Conflicts[0].Resolution)
}

func TestWithinProximity(t *testing.T) {
	assert.True(t, withinProximity(45, 48))
	assert.True(t, withinProximity(100, 115))
	assert.False(t, withinProximity(100, 120))
	assert.False(t, withinProximity(45, 54))
	assert.True(t, withinProximity(0, 0))
}
