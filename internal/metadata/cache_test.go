package metadata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/filmybuddy/internal/models"
)

func TestCachingResolverServesHits(t *testing.T) {
	mock := &MockProvider{
		movies: []Candidate{{ID: 1, Kind: CandidateMovie, Title: "Alpha", ReleaseDate: "1999-01-01", PosterPath: "/a.jpg"}},
	}
	cr := NewCachingResolver(NewResolver(mock, nil), NewCache(time.Minute, time.Hour))
	q := MediaQuery{Title: "Alpha", Kind: models.KindMovie, Year: "1999"}

	first, err := cr.Resolve(context.Background(), q)
	require.NoError(t, err)
	second, err := cr.Resolve(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, mock.calls["movie"])

	stats := cr.Cache().Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Matches)
}

func TestCachingResolverKeysOnNormalizedTuple(t *testing.T) {
	mock := &MockProvider{}
	cr := NewCachingResolver(NewResolver(mock, nil), NewCache(time.Minute, time.Hour))

	_, err := cr.Resolve(context.Background(), MediaQuery{Title: "Alpha ", Kind: "movie", Language: "ko"})
	require.NoError(t, err)
	_, err = cr.Resolve(context.Background(), MediaQuery{Title: "Alpha", Kind: models.KindMovie, Language: "KO"})
	require.NoError(t, err)
	_, err = cr.Resolve(context.Background(), MediaQuery{Title: "Alpha", Kind: models.KindMovie, Language: "EN"})
	require.NoError(t, err)

	assert.Equal(t, 2, mock.calls["movie"])
}

func TestCachingResolverCachesNoMatch(t *testing.T) {
	mock := &MockProvider{}
	cr := NewCachingResolver(NewResolver(mock, nil), NewCache(time.Minute, time.Hour))
	q := MediaQuery{Title: "Nothing"}

	for i := 0; i < 3; i++ {
		res, err := cr.Resolve(context.Background(), q)
		require.NoError(t, err)
		assert.False(t, res.Found)
	}
	assert.Equal(t, 1, mock.calls["multi"])
}

func TestCachingResolverInvalidate(t *testing.T) {
	mock := &MockProvider{}
	cache := NewCache(time.Minute, time.Hour)
	cr := NewCachingResolver(NewResolver(mock, nil), cache)
	q := MediaQuery{Title: "Alpha"}

	_, _ = cr.Resolve(context.Background(), q)
	cache.Invalidate()
	assert.Zero(t, cache.Stats().Matches)

	_, _ = cr.Resolve(context.Background(), q)
	assert.Equal(t, 2, mock.calls["multi"])
	assert.Equal(t, int64(2), cache.Stats().Misses)
}

func TestCachingResolverRejectsInvalidBeforeCache(t *testing.T) {
	mock := &MockProvider{}
	cache := NewCache(time.Minute, time.Hour)
	cr := NewCachingResolver(NewResolver(mock, nil), cache)

	_, err := cr.Resolve(context.Background(), MediaQuery{Title: "Memories of Murder", Year: "03"})

	assert.ErrorIs(t, err, ErrInvalidQuery)
	assert.Zero(t, mock.totalCalls())
	assert.Equal(t, CacheStats{}, cache.Stats())
}

func TestCacheDisabledWithZeroTTL(t *testing.T) {
	mock := &MockProvider{}
	cr := NewCachingResolver(NewResolver(mock, nil), NewCache(0, 0))
	q := MediaQuery{Title: "Alpha"}

	_, _ = cr.Resolve(context.Background(), q)
	_, _ = cr.Resolve(context.Background(), q)

	assert.Equal(t, 2, mock.calls["multi"])
	assert.Zero(t, cr.Cache().Stats().Hits)
}

func TestCacheStoresTimestamp(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCache(time.Minute, time.Hour)
	cache.now = func() time.Time { return fixed }

	q := MediaQuery{Title: "Alpha", Kind: models.KindOther}
	cache.PutMatch(q, MatchResult{Found: true, ID: 9})

	got, ok := cache.GetMatch(q)
	require.True(t, ok)
	assert.Equal(t, fixed, got.StoredAt)
	assert.Equal(t, int64(9), got.Result.ID)
}

func TestCachingResolverRecommendations(t *testing.T) {
	mock := &MockProvider{recs: []Candidate{{ID: 1, Kind: CandidateMovie, Title: "One"}, {ID: 2, Kind: CandidateMovie, Title: "Two"}}}
	cr := NewCachingResolver(NewResolver(mock, nil), NewCache(time.Minute, time.Hour))

	first := cr.RecommendationsFor(context.Background(), 7, CandidateMovie, 1)
	second := cr.RecommendationsFor(context.Background(), 7, CandidateMovie, 1)

	assert.Equal(t, first, second)
	assert.Len(t, first, 1)
	assert.Equal(t, 1, mock.calls["recommendations"])
	assert.Equal(t, 1, cr.Cache().Stats().Recommendations)

	assert.Empty(t, cr.RecommendationsFor(context.Background(), 7, "person", 1))
	assert.Equal(t, 1, mock.calls["recommendations"])
}

func TestCachingResolverDoesNotCacheFailedRecommendations(t *testing.T) {
	mock := &MockProvider{recsErr: ErrProviderDown}
	cr := NewCachingResolver(NewResolver(mock, nil), NewCache(time.Minute, time.Hour))

	assert.Empty(t, cr.RecommendationsFor(context.Background(), 7, CandidateMovie, 3))
	assert.Empty(t, cr.RecommendationsFor(context.Background(), 7, CandidateMovie, 3))
	assert.Equal(t, 2, mock.calls["recommendations"])
}
