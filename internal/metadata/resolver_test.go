package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/filmybuddy/internal/models"
)

// MockProvider implements Provider interface for testing
type MockProvider struct {
	movies    []Candidate
	shows     []Candidate
	multi     []Candidate
	recs      []Candidate
	searchErr error
	recsErr   error

	calls    map[string]int
	lastKind CandidateKind
}

func (m *MockProvider) record(name string) {
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[name]++
}

func (m *MockProvider) totalCalls() int {
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) SearchMovie(ctx context.Context, title string) ([]Candidate, error) {
	m.record("movie")
	return m.movies, m.searchErr
}

func (m *MockProvider) SearchTV(ctx context.Context, title string) ([]Candidate, error) {
	m.record("tv")
	return m.shows, m.searchErr
}

func (m *MockProvider) SearchMulti(ctx context.Context, title string) ([]Candidate, error) {
	m.record("multi")
	return m.multi, m.searchErr
}

func (m *MockProvider) Recommendations(ctx context.Context, kind CandidateKind, id int64) ([]Candidate, error) {
	m.record("recommendations")
	m.lastKind = kind
	return m.recs, m.recsErr
}

func (m *MockProvider) PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return "https://img.test/w500" + path
}

func TestResolveExactYearAndLanguage(t *testing.T) {
	mock := &MockProvider{
		movies: []Candidate{
			{ID: 2, Kind: CandidateMovie, Title: "Memories", ReleaseDate: "2010-05-01", OriginalLanguage: "en", PosterPath: "/b.jpg"},
			{ID: 1, Kind: CandidateMovie, Title: "Memories of Murder", ReleaseDate: "2003-05-02", OriginalLanguage: "ko", PosterPath: "/a.jpg", Rating: 8.1},
		},
	}
	resolver := NewResolver(mock, nil)

	result, err := resolver.Resolve(context.Background(), MediaQuery{
		Title: "Memories of Murder", Kind: models.KindMovie, Year: "2003", Language: "KO",
	})

	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, int64(1), result.ID)
	assert.Equal(t, "Memories of Murder", result.Title)
	assert.Equal(t, "2003", result.Year)
	assert.Equal(t, models.KindMovie, result.Kind)
	assert.Equal(t, "KO", result.Language)
	assert.Equal(t, "https://img.test/w500/a.jpg", result.PosterURL)
	assert.Equal(t, 8.1, result.Rating)
	assert.Equal(t, 1, mock.calls["movie"])
}

func TestResolveLowercaseLanguageInQuery(t *testing.T) {
	mock := &MockProvider{
		movies: []Candidate{
			{ID: 2, Kind: CandidateMovie, Title: "Murder", ReleaseDate: "2003-01-01", OriginalLanguage: "en", PosterPath: "/b.jpg"},
			{ID: 1, Kind: CandidateMovie, Title: "Murder", ReleaseDate: "2003-01-01", OriginalLanguage: "ko", PosterPath: "/a.jpg"},
		},
	}
	result, err := NewResolver(mock, nil).Resolve(context.Background(), MediaQuery{
		Title: "Murder", Kind: models.KindMovie, Year: "2003", Language: "kor",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), result.ID)
}

func TestResolveNoPosterIsNoMatch(t *testing.T) {
	mock := &MockProvider{
		movies: []Candidate{
			{ID: 1, Kind: CandidateMovie, Title: "Alpha", ReleaseDate: "1999-01-01", OriginalLanguage: "en"},
			{ID: 2, Kind: CandidateMovie, Title: "Alpha", ReleaseDate: "1999-01-01", OriginalLanguage: "en", PosterPath: "  "},
		},
	}

	result, err := NewResolver(mock, nil).Resolve(context.Background(), MediaQuery{
		Title: "Alpha", Kind: models.KindMovie, Year: "1999", Language: "EN",
	})

	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Equal(t, MatchResult{}, result)
}

func TestResolveFallbackPicksFirstPosterBearing(t *testing.T) {
	// Neither candidate is a strict match for a 1999 English movie, so the
	// fallback takes index 0 even though it is a series.
	cands := []Candidate{
		{ID: 10, Kind: CandidateSeries, Title: "Alpha", ReleaseDate: "1999-02-03", OriginalLanguage: "de", PosterPath: "/tv.jpg"},
		{ID: 11, Kind: CandidateMovie, Title: "Alpha", ReleaseDate: "2005-06-07", OriginalLanguage: "en", PosterPath: "/movie.jpg"},
	}
	mock := &MockProvider{movies: cands}

	result, err := NewResolver(mock, nil).Resolve(context.Background(), MediaQuery{
		Title: "Alpha", Kind: models.KindMovie, Year: "1999", Language: "EN",
	})

	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, int64(10), result.ID)
	assert.Equal(t, models.KindShow, result.Kind)
	assert.Equal(t, CandidateSeries, result.ProviderKind)
	assert.Equal(t, "1999", result.Year)
}

func TestResolveFallbackSkipsPosterless(t *testing.T) {
	mock := &MockProvider{
		shows: []Candidate{
			{ID: 1, Kind: CandidateSeries, Title: "Beta", ReleaseDate: "2001-01-01"},
			{ID: 2, Kind: CandidateSeries, Title: "Beta", ReleaseDate: "2002-01-01", PosterPath: "/b.jpg"},
			{ID: 3, Kind: CandidateSeries, Title: "Beta", ReleaseDate: "2003-01-01", PosterPath: "/c.jpg"},
		},
	}

	result, err := NewResolver(mock, nil).Resolve(context.Background(), MediaQuery{
		Title: "Beta", Kind: models.KindShow, Year: "1990",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2), result.ID)
}

func TestResolveIsIdempotent(t *testing.T) {
	mock := &MockProvider{
		multi: []Candidate{
			{ID: 5, Kind: CandidateSeries, Title: "Gamma", ReleaseDate: "2011-01-01", PosterPath: "/g.jpg"},
			{ID: 6, Kind: CandidateMovie, Title: "Gamma", ReleaseDate: "2012-01-01", PosterPath: "/h.jpg"},
		},
	}
	resolver := NewResolver(mock, nil)
	q := MediaQuery{Title: "Gamma", Year: "2012"}

	first, err := resolver.Resolve(context.Background(), q)
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(6), first.ID)
	assert.Equal(t, 2, mock.calls["multi"])
}

func TestResolveEndpointByKind(t *testing.T) {
	tests := []struct {
		kind     models.MediaKind
		endpoint string
	}{
		{models.KindMovie, "movie"},
		{models.KindDocumentary, "movie"},
		{models.KindShow, "tv"},
		{models.KindAnime, "tv"},
		{models.KindOther, "multi"},
		{"", "multi"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"->"+tt.endpoint, func(t *testing.T) {
			mock := &MockProvider{}
			_, err := NewResolver(mock, nil).Resolve(context.Background(), MediaQuery{Title: "x", Kind: tt.kind})
			require.NoError(t, err)
			assert.Equal(t, 1, mock.calls[tt.endpoint])
			assert.Equal(t, 1, mock.totalCalls())
		})
	}
}

func TestResolveProviderErrorIsNoMatch(t *testing.T) {
	mock := &MockProvider{searchErr: errors.New("connection refused")}

	result, err := NewResolver(mock, nil).Resolve(context.Background(), MediaQuery{Title: "Delta", Kind: models.KindMovie})

	assert.NoError(t, err)
	assert.False(t, result.Found)
}

func TestResolveNilProvider(t *testing.T) {
	result, err := NewResolver(nil, nil).Resolve(context.Background(), MediaQuery{Title: "Delta"})
	assert.NoError(t, err)
	assert.False(t, result.Found)
}

func TestResolveRejectsInvalidQueryWithoutCalling(t *testing.T) {
	tests := []struct {
		name  string
		query MediaQuery
		field string
	}{
		{"two digit year", MediaQuery{Title: "Memories of Murder", Kind: models.KindMovie, Year: "03"}, "year"},
		{"non numeric year", MediaQuery{Title: "x", Year: "20o3"}, "year"},
		{"blank title", MediaQuery{Title: "   "}, "title"},
		{"unknown kind", MediaQuery{Title: "x", Kind: "Podcast"}, "kind"},
		{"long language", MediaQuery{Title: "x", Language: "korean"}, "language"},
		{"digit language", MediaQuery{Title: "x", Language: "k0"}, "language"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockProvider{}
			_, err := NewResolver(mock, nil).Resolve(context.Background(), tt.query)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidQuery)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, mock.totalCalls())
		})
	}
}

func TestSelectCandidate(t *testing.T) {
	movie2003 := Candidate{ID: 1, Kind: CandidateMovie, ReleaseDate: "2003-01-01", OriginalLanguage: "KO", PosterPath: "/1.jpg"}
	series2003 := Candidate{ID: 2, Kind: CandidateSeries, ReleaseDate: "2003-01-01", OriginalLanguage: "KO", PosterPath: "/2.jpg"}
	noPoster := Candidate{ID: 3, Kind: CandidateMovie, ReleaseDate: "2003-01-01", OriginalLanguage: "KO"}

	tests := []struct {
		name   string
		cands  []Candidate
		query  MediaQuery
		wantID int64
		wantOK bool
	}{
		{"empty", nil, MediaQuery{Kind: models.KindMovie}, 0, false},
		{"strict skips wrong kind", []Candidate{series2003, movie2003}, MediaQuery{Kind: models.KindMovie, Year: "2003"}, 1, true},
		{"strict show kind", []Candidate{movie2003, series2003}, MediaQuery{Kind: models.KindAnime, Year: "2003"}, 2, true},
		{"other accepts either", []Candidate{series2003, movie2003}, MediaQuery{Kind: models.KindOther, Year: "2003"}, 2, true},
		{"strict skips posterless", []Candidate{noPoster, movie2003}, MediaQuery{Kind: models.KindMovie, Year: "2003", Language: "KO"}, 1, true},
		{"fallback ignores language", []Candidate{movie2003}, MediaQuery{Kind: models.KindMovie, Language: "EN"}, 1, true},
		{"only posterless", []Candidate{noPoster}, MediaQuery{Kind: models.KindMovie}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectCandidate(tt.cands, tt.query)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestRecommendationsFor(t *testing.T) {
	recs := []Candidate{
		{ID: 1, Kind: CandidateMovie, Title: "One"},
		{ID: 2, Kind: CandidateMovie, Title: "Two"},
		{ID: 3, Kind: CandidateMovie, Title: "Three"},
	}

	t.Run("truncates in provider order", func(t *testing.T) {
		mock := &MockProvider{recs: recs}
		got := NewResolver(mock, nil).RecommendationsFor(context.Background(), 42, CandidateMovie, 2)
		require.Len(t, got, 2)
		assert.Equal(t, "One", got[0].Title)
		assert.Equal(t, "Two", got[1].Title)
		assert.Equal(t, CandidateMovie, mock.lastKind)
	})

	t.Run("count larger than results", func(t *testing.T) {
		mock := &MockProvider{recs: recs}
		got := NewResolver(mock, nil).RecommendationsFor(context.Background(), 42, CandidateSeries, 10)
		assert.Len(t, got, 3)
		assert.Equal(t, CandidateSeries, mock.lastKind)
	})

	t.Run("invalid kind is empty without calling", func(t *testing.T) {
		for _, kind := range []CandidateKind{"", "person", "Movie", "series"} {
			mock := &MockProvider{recs: recs}
			got := NewResolver(mock, nil).RecommendationsFor(context.Background(), 42, kind, 3)
			assert.NotNil(t, got)
			assert.Empty(t, got)
			assert.Zero(t, mock.totalCalls())
		}
	})

	t.Run("non-positive count is empty", func(t *testing.T) {
		mock := &MockProvider{recs: recs}
		assert.Empty(t, NewResolver(mock, nil).RecommendationsFor(context.Background(), 42, CandidateMovie, 0))
	})

	t.Run("provider error is empty", func(t *testing.T) {
		mock := &MockProvider{recsErr: ErrProviderDown}
		got := NewResolver(mock, nil).RecommendationsFor(context.Background(), 42, CandidateMovie, 3)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}
