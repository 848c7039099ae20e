package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchsage/resolution-engine/internal/embedding"
)

func testRecord(name, manufacturer string, swType SwitchType, force float64) *SwitchRecord {
	return &SwitchRecord{
		Name:            name,
		Manufacturer:    &manufacturer,
		Type:            &swType,
		ActuationForceG: &force,
	}
}

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	store.Add(
		testRecord("Cherry MX Red", "Cherry", SwitchTypeLinear, 45),
		testRecord("Cherry MX Blue", "Cherry", SwitchTypeClicky, 50),
		testRecord("Gateron Yellow", "Gateron", SwitchTypeLinear, 50),
		testRecord("Holy Panda", "Drop", SwitchTypeTactile, 67),
	)
	return store
}

func TestMemoryStoreAddAssignsIDs(t *testing.T) {
	store := NewMemoryStore()
	rec := testRecord("Cherry MX Red", "Cherry", SwitchTypeLinear, 45)
	require.Equal(t, uuid.Nil, rec.ID)

	store.Add(rec)
	assert.NotEqual(t, uuid.Nil, rec.ID)
}

func TestMemoryStoreExactLookup(t *testing.T) {
	store := seededStore(t)

	rec, err := store.ExactLookup(context.Background(), "cherry mx red")
	require.NoError(t, err)
	assert.Equal(t, "Cherry MX Red", rec.Name)

	_, err = store.ExactLookup(context.Background(), "Does Not Exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreLikeLookup(t *testing.T) {
	store := seededStore(t)

	recs, err := store.LikeLookup(context.Background(), "cherry")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Cherry MX Blue", recs[0].Name, "results are name-sorted")
	assert.Equal(t, "Cherry MX Red", recs[1].Name)

	recs, err = store.LikeLookup(context.Background(), "zzz")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestMemoryStoreVectorLookup(t *testing.T) {
	store := NewMemoryStore()
	embedder := embedding.NewMockClient(64)

	names := []string{"Cherry MX Red", "Gateron Yellow", "Holy Panda"}
	for _, name := range names {
		vec, err := embedder.EmbedSingle(context.Background(), name)
		require.NoError(t, err)
		rec := testRecord(name, "X", SwitchTypeLinear, 50)
		rec.Embedding = vec
		store.Add(rec)
	}

	query, err := embedder.EmbedSingle(context.Background(), "Gateron Yellow")
	require.NoError(t, err)

	matches, err := store.VectorLookup(context.Background(), query, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Gateron Yellow", matches[0].Record.Name)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
	assert.GreaterOrEqual(t, matches[0].Similarity, matches[1].Similarity)
}

func TestMemoryStoreVectorLookupSkipsDimensionMismatch(t *testing.T) {
	store := NewMemoryStore()
	rec := testRecord("Cherry MX Red", "Cherry", SwitchTypeLinear, 45)
	rec.Embedding = []float32{1, 0}
	store.Add(rec)

	matches, err := store.VectorLookup(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemoryStoreSearch(t *testing.T) {
	store := seededStore(t)

	t.Run("by manufacturer", func(t *testing.T) {
		recs, err := store.Search(context.Background(), Filter{Manufacturer: "cherry"})
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("by type", func(t *testing.T) {
		recs, err := store.Search(context.Background(), Filter{Type: SwitchTypeLinear})
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("by force range", func(t *testing.T) {
		min, max := 60.0, 70.0
		recs, err := store.Search(context.Background(), Filter{ActuationForceG: &FloatRange{Min: &min, Max: &max}})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "Holy Panda", recs[0].Name)
	})

	t.Run("manufacturer list", func(t *testing.T) {
		recs, err := store.Search(context.Background(), Filter{Manufacturers: []string{"Gateron", "Drop"}})
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("pagination", func(t *testing.T) {
		recs, err := store.Search(context.Background(), Filter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "Cherry MX Red", recs[0].Name)
	})

	t.Run("offset past end", func(t *testing.T) {
		recs, err := store.Search(context.Background(), Filter{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, recs)
	})
}

func TestMemoryStoreListNames(t *testing.T) {
	store := seededStore(t)

	names, err := store.ListNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Cherry MX Blue", "Cherry MX Red", "Gateron Yellow", "Holy Panda"}, names)
}
