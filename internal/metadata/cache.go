package metadata

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedMatch is a stored resolution together with the time it was stored
type CachedMatch struct {
	Result   MatchResult `json:"result"`
	StoredAt time.Time   `json:"stored_at"`
}

// CacheStats is a snapshot of cache activity
type CacheStats struct {
	Hits            int64 `json:"hits"`
	Misses          int64 `json:"misses"`
	Matches         int   `json:"matches"`
	Recommendations int   `json:"recommendations"`
}

// Cache memoizes resolutions keyed by the exact normalized query tuple and
// recommendation lists keyed by kind, id and count. A non-positive TTL
// disables the corresponding store.
type Cache struct {
	matches      *gocache.Cache
	recs         *gocache.Cache
	resolveTTL   time.Duration
	recommendTTL time.Duration
	hits         atomic.Int64
	misses       atomic.Int64
	now          func() time.Time
}

// NewCache creates a cache with the given freshness windows
func NewCache(resolveTTL, recommendTTL time.Duration) *Cache {
	return &Cache{
		matches:      gocache.New(resolveTTL, cleanupInterval(resolveTTL)),
		recs:         gocache.New(recommendTTL, cleanupInterval(recommendTTL)),
		resolveTTL:   resolveTTL,
		recommendTTL: recommendTTL,
		now:          time.Now,
	}
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	return 2 * ttl
}

// GetMatch returns the stored resolution for a normalized query
func (c *Cache) GetMatch(q MediaQuery) (CachedMatch, bool) {
	if c.resolveTTL <= 0 {
		c.misses.Add(1)
		return CachedMatch{}, false
	}
	v, ok := c.matches.Get(q.cacheKey())
	if !ok {
		c.misses.Add(1)
		return CachedMatch{}, false
	}
	c.hits.Add(1)
	return v.(CachedMatch), true
}

// PutMatch stores a resolution, including "no match" outcomes
func (c *Cache) PutMatch(q MediaQuery, res MatchResult) {
	if c.resolveTTL <= 0 {
		return
	}
	c.matches.Set(q.cacheKey(), CachedMatch{Result: res, StoredAt: c.now()}, gocache.DefaultExpiration)
}

// GetRecommendations returns a stored recommendation list
func (c *Cache) GetRecommendations(kind CandidateKind, id int64, count int) ([]Candidate, bool) {
	if c.recommendTTL <= 0 {
		c.misses.Add(1)
		return nil, false
	}
	v, ok := c.recs.Get(recsKey(kind, id, count))
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return v.([]Candidate), true
}

// PutRecommendations stores a recommendation list. Empty lists are not
// stored since they are indistinguishable from a failed request.
func (c *Cache) PutRecommendations(kind CandidateKind, id int64, count int, recs []Candidate) {
	if c.recommendTTL <= 0 || len(recs) == 0 {
		return
	}
	c.recs.Set(recsKey(kind, id, count), recs, gocache.DefaultExpiration)
}

func recsKey(kind CandidateKind, id int64, count int) string {
	return fmt.Sprintf("%s|%d|%d", kind, id, count)
}

// Invalidate drops every stored entry. Hit and miss counters are kept.
func (c *Cache) Invalidate() {
	c.matches.Flush()
	c.recs.Flush()
}

// Stats returns current counters and sizes
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:            c.hits.Load(),
		Misses:          c.misses.Load(),
		Matches:         c.matches.ItemCount(),
		Recommendations: c.recs.ItemCount(),
	}
}

// CachingResolver consults a Cache before delegating to a Resolver
type CachingResolver struct {
	resolver *Resolver
	cache    *Cache
}

// NewCachingResolver wraps resolver with cache
func NewCachingResolver(resolver *Resolver, cache *Cache) *CachingResolver {
	return &CachingResolver{resolver: resolver, cache: cache}
}

// Cache exposes the underlying cache for stats and invalidation
func (cr *CachingResolver) Cache() *Cache {
	return cr.cache
}

// Resolve behaves like Resolver.Resolve, serving fresh results from the cache.
// Validation happens before the cache lookup so invalid queries never hit it.
func (cr *CachingResolver) Resolve(ctx context.Context, q MediaQuery) (MatchResult, error) {
	nq, err := q.Normalize()
	if err != nil {
		return MatchResult{}, err
	}
	if hit, ok := cr.cache.GetMatch(nq); ok {
		return hit.Result, nil
	}
	res := cr.resolver.resolveNormalized(ctx, nq)
	cr.cache.PutMatch(nq, res)
	return res, nil
}

// RecommendationsFor behaves like Resolver.RecommendationsFor with caching
func (cr *CachingResolver) RecommendationsFor(ctx context.Context, id int64, kind CandidateKind, count int) []Candidate {
	if !kind.Valid() || count <= 0 {
		return []Candidate{}
	}
	if recs, ok := cr.cache.GetRecommendations(kind, id, count); ok {
		return recs
	}
	recs := cr.resolver.RecommendationsFor(ctx, id, kind, count)
	cr.cache.PutRecommendations(kind, id, count, recs)
	return recs
}

// Normalize converts a candidate, such as a recommendation, for display
func (cr *CachingResolver) Normalize(c Candidate) MatchResult {
	return cr.resolver.Normalize(c)
}
