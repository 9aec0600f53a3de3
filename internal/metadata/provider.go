package metadata

import (
	"context"
	"errors"
	"strings"
)

// Common errors
var (
	ErrNoMatch      = errors.New("no matching metadata found")
	ErrRateLimited  = errors.New("rate limited by provider")
	ErrProviderDown = errors.New("metadata provider unavailable")
	ErrUnauthorized = errors.New("metadata provider rejected credentials")
)

// CandidateKind discriminates provider results
type CandidateKind string

const (
	CandidateMovie  CandidateKind = "movie"
	CandidateSeries CandidateKind = "tv"
)

// ParseCandidateKind accepts the provider tags plus "series" and "show"
func ParseCandidateKind(s string) (CandidateKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie":
		return CandidateMovie, true
	case "tv", "series", "show":
		return CandidateSeries, true
	}
	return "", false
}

// Valid reports whether k is one of the two result kinds
func (k CandidateKind) Valid() bool {
	return k == CandidateMovie || k == CandidateSeries
}

// Candidate is one validated search or recommendation result
type Candidate struct {
	ID               int64         `json:"id"`
	Kind             CandidateKind `json:"kind"`
	Title            string        `json:"title"`
	ReleaseDate      string        `json:"release_date,omitempty"`
	OriginalLanguage string        `json:"original_language,omitempty"`
	PosterPath       string        `json:"poster_path,omitempty"`
	Rating           float64       `json:"rating,omitempty"` // 0-10
	Overview         string        `json:"overview,omitempty"`
}

// Year returns the first four characters of the release or air date
func (c Candidate) Year() string {
	if len(c.ReleaseDate) < 4 {
		return ""
	}
	return c.ReleaseDate[:4]
}

// HasPoster reports whether the candidate carries artwork
func (c Candidate) HasPoster() bool {
	return strings.TrimSpace(c.PosterPath) != ""
}

// Provider defines the interface for movie/show metadata services
type Provider interface {
	// Name returns the provider identifier (e.g., "tmdb")
	Name() string

	// SearchMovie searches movie titles
	SearchMovie(ctx context.Context, title string) ([]Candidate, error)

	// SearchTV searches series titles
	SearchTV(ctx context.Context, title string) ([]Candidate, error)

	// SearchMulti searches movies and series together
	SearchMulti(ctx context.Context, title string) ([]Candidate, error)

	// Recommendations lists titles the provider recommends for an id
	Recommendations(ctx context.Context, kind CandidateKind, id int64) ([]Candidate, error)

	// PosterURL composes a displayable URL from a poster path fragment
	PosterURL(path string) string
}
