package resolution

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/switchsage/resolution-engine/internal/cache"
	"github.com/switchsage/resolution-engine/internal/observability"
)

// ResponseCache stores resolution results keyed by a digest of the request.
// It fails open: cache errors are logged and treated as misses.
type ResponseCache struct {
	logger *observability.Logger
	client cache.Client
	ttl    time.Duration
}

// NewResponseCache creates a response cache. client may be nil, in which case
// every lookup is a miss.
func NewResponseCache(logger *observability.Logger, client cache.Client, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ResponseCache{
		logger: logger.WithComponent("response-cache"),
		client: client,
		ttl:    ttl,
	}
}

// requestKey digests the normalized request: lowercased, trimmed fragments
// plus intent context, so equivalent requests share an entry.
func requestKey(queries []ResolutionQuery) string {
	normalized := make([]ResolutionQuery, len(queries))
	for i, q := range queries {
		normalized[i] = ResolutionQuery{
			QueryFragment: strings.ToLower(strings.TrimSpace(q.QueryFragment)),
			ImplicitBrand: strings.ToLower(strings.TrimSpace(q.ImplicitBrand)),
			ImplicitType:  strings.ToLower(strings.TrimSpace(q.ImplicitType)),
		}
	}
	payload, _ := json.Marshal(normalized)
	sum := sha256.Sum256(payload)
	return cache.Key("resolve", hex.EncodeToString(sum[:]))
}

// Get returns the cached result for the request, or nil on a miss.
func (c *ResponseCache) Get(ctx context.Context, queries []ResolutionQuery) *ResolutionResult {
	if c == nil || c.client == nil {
		return nil
	}

	raw, err := c.client.Get(ctx, requestKey(queries))
	if err != nil {
		if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Msg("cache read failed")
		}
		return nil
	}

	var result ResolutionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Warn().Err(err).Msg("cached result corrupt, discarding")
		return nil
	}
	return &result
}

// Set stores a result. Errors are logged and ignored.
func (c *ResponseCache) Set(ctx context.Context, queries []ResolutionQuery, result *ResolutionResult) {
	if c == nil || c.client == nil || result == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, requestKey(queries), payload, c.ttl); err != nil {
		c.logger.Warn().Err(err).Msg("cache write failed")
	}
}
