package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/switchsage/resolution-engine/internal/embedding"
)

// MemoryStore is an in-memory Store used in development and tests. Vector
// lookup is a linear cosine scan over stored embeddings.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*SwitchRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]*SwitchRecord)}
}

// Add stores records. Records without an ID get one assigned.
func (s *MemoryStore) Add(records ...*SwitchRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
		s.records[rec.ID] = rec
	}
}

// ExactLookup finds a record by case-insensitive name equality.
func (s *MemoryStore) ExactLookup(ctx context.Context, name string) (*SwitchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if strings.EqualFold(rec.Name, name) {
			return rec, nil
		}
	}
	return nil, ErrNotFound
}

// LikeLookup finds records whose name contains the pattern.
func (s *MemoryStore) LikeLookup(ctx context.Context, pattern string) ([]*SwitchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(pattern)
	var out []*SwitchRecord
	for _, rec := range s.records {
		if strings.Contains(strings.ToLower(rec.Name), lower) {
			out = append(out, rec)
		}
	}
	sortByName(out)
	return out, nil
}

// VectorLookup scans stored embeddings by cosine similarity.
func (s *MemoryStore) VectorLookup(ctx context.Context, query []float32, limit int) ([]VectorMatch, error) {
	if limit <= 0 {
		limit = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []VectorMatch
	for _, rec := range s.records {
		if len(rec.Embedding) == 0 || len(rec.Embedding) != len(query) {
			continue
		}
		matches = append(matches, VectorMatch{
			Record:     rec,
			Similarity: embedding.CosineSimilarity(query, rec.Embedding),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if limit < len(matches) {
		matches = matches[:limit]
	}
	return matches, nil
}

// Search applies a characteristic filter.
func (s *MemoryStore) Search(ctx context.Context, f Filter) ([]*SwitchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*SwitchRecord
	for _, rec := range s.records {
		if matchesFilter(rec, f) {
			out = append(out, rec)
		}
	}
	sortByName(out)

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

// ListNames returns every catalog name, sorted.
func (s *MemoryStore) ListNames(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.records))
	for _, rec := range s.records {
		names = append(names, rec.Name)
	}
	sort.Strings(names)
	return names, nil
}

func sortByName(records []*SwitchRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
}

func matchesFilter(rec *SwitchRecord, f Filter) bool {
	if f.NamePattern != "" && !strings.Contains(strings.ToLower(rec.Name), strings.ToLower(f.NamePattern)) {
		return false
	}
	if f.Manufacturer != "" && !equalFoldPtr(rec.Manufacturer, f.Manufacturer) {
		return false
	}
	if len(f.Manufacturers) > 0 {
		found := false
		for _, m := range f.Manufacturers {
			if equalFoldPtr(rec.Manufacturer, m) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Type != "" && (rec.Type == nil || *rec.Type != f.Type) {
		return false
	}
	if f.TopHousing != "" && !equalFoldPtr(rec.TopHousing, f.TopHousing) {
		return false
	}
	if f.BottomHousing != "" && !equalFoldPtr(rec.BottomHousing, f.BottomHousing) {
		return false
	}
	if f.Stem != "" && !equalFoldPtr(rec.Stem, f.Stem) {
		return false
	}
	if f.Mount != "" && !equalFoldPtr(rec.Mount, f.Mount) {
		return false
	}
	if f.Spring != "" && !equalFoldPtr(rec.Spring, f.Spring) {
		return false
	}
	if !inRange(rec.ActuationForceG, f.ActuationForceG) {
		return false
	}
	if !inRange(rec.BottomOutForceG, f.BottomOutForceG) {
		return false
	}
	if !inRange(rec.PreTravelMm, f.PreTravelMm) {
		return false
	}
	if !inRange(rec.TotalTravelMm, f.TotalTravelMm) {
		return false
	}
	return true
}

func equalFoldPtr(have *string, want string) bool {
	return have != nil && strings.EqualFold(*have, want)
}

func inRange(v *float64, r *FloatRange) bool {
	if r == nil {
		return true
	}
	if v == nil {
		return false
	}
	if r.Min != nil && *v < *r.Min {
		return false
	}
	if r.Max != nil && *v > *r.Max {
		return false
	}
	return true
}

var _ Store = (*MemoryStore)(nil)
