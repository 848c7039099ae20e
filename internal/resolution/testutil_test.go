package resolution

import (
	"context"
	"errors"

	"github.com/switchsage/resolution-engine/internal/catalog"
	"github.com/switchsage/resolution-engine/internal/llm"
)

func strPtr(s string) *string                          { return &s }
func f64Ptr(f float64) *float64                        { return &f }
func typePtr(t catalog.SwitchType) *catalog.SwitchType { return &t }

// scriptedGenerator returns canned responses in order; once exhausted, or
// when err is set, every call fails.
type scriptedGenerator struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string, _ llm.Options) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if len(g.responses) == 0 {
		return "", errUnavailable
	}
	resp := g.responses[0]
	g.responses = g.responses[1:]
	return resp, nil
}

// fakeEmbedder returns a fixed vector or an error.
type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (e *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = e.vector
	}
	return out, nil
}

func (e *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.vector, nil
}

func (e *fakeEmbedder) Model() string  { return "fake" }
func (e *fakeEmbedder) Dimension() int { return len(e.vector) }

// fakeVectorStore wraps a MemoryStore but serves canned vector matches, so
// embedding-stage tests do not depend on hash-embedding geometry.
type fakeVectorStore struct {
	*catalog.MemoryStore
	matches   []catalog.VectorMatch
	vectorErr error
}

func (s *fakeVectorStore) VectorLookup(ctx context.Context, embedding []float32, limit int) ([]catalog.VectorMatch, error) {
	if s.vectorErr != nil {
		return nil, s.vectorErr
	}
	if limit > 0 && len(s.matches) > limit {
		return s.matches[:limit], nil
	}
	return s.matches, nil
}

var errUnavailable = errors.New("service unavailable")

// outageStore refuses every catalog operation, simulating a total database
// outage.
type outageStore struct{}

func (outageStore) ExactLookup(context.Context, string) (*catalog.SwitchRecord, error) {
	return nil, errUnavailable
}

func (outageStore) LikeLookup(context.Context, string) ([]*catalog.SwitchRecord, error) {
	return nil, errUnavailable
}

func (outageStore) VectorLookup(context.Context, []float32, int) ([]catalog.VectorMatch, error) {
	return nil, errUnavailable
}

func (outageStore) Search(context.Context, catalog.Filter) ([]*catalog.SwitchRecord, error) {
	return nil, errUnavailable
}

func (outageStore) ListNames(context.Context) ([]string, error) {
	return nil, errUnavailable
}

func fullRecord(name string) *catalog.SwitchRecord {
	return &catalog.SwitchRecord{
		Name:            name,
		Manufacturer:    strPtr("Cherry"),
		Type:            typePtr(catalog.SwitchTypeLinear),
		TopHousing:      strPtr("nylon"),
		BottomHousing:   strPtr("nylon"),
		Stem:            strPtr("POM"),
		Mount:           strPtr("plate"),
		Spring:          strPtr("stainless steel"),
		ActuationForceG: f64Ptr(45),
		BottomOutForceG: f64Ptr(60),
		PreTravelMm:     f64Ptr(2.0),
		TotalTravelMm:   f64Ptr(4.0),
	}
}
