package metadata

import (
	"context"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/justyntemme/filmybuddy/internal/models"
)

// MatchResult is the normalized outcome of a resolution. Found is false for
// "no match", in which case every other field is zero.
type MatchResult struct {
	Found        bool             `json:"found"`
	ID           int64            `json:"id,omitempty"`
	Title        string           `json:"title,omitempty"`
	Year         string           `json:"year,omitempty"`
	Kind         models.MediaKind `json:"kind,omitempty"`
	ProviderKind CandidateKind    `json:"provider_kind,omitempty"`
	Language     string           `json:"language,omitempty"`
	PosterURL    string           `json:"poster_url,omitempty"`
	Rating       float64          `json:"rating,omitempty"`
	Overview     string           `json:"overview,omitempty"`
}

// Resolver picks the single best provider candidate for a MediaQuery
type Resolver struct {
	provider Provider
	log      logrus.FieldLogger
}

// NewResolver creates a resolver over provider. A nil provider resolves
// everything to "no match".
func NewResolver(provider Provider, log logrus.FieldLogger) *Resolver {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Resolver{provider: provider, log: log}
}

// Resolve validates q, searches the provider endpoint for its kind and
// selects a candidate with a strict pass followed by a poster-only fallback.
// The only error returned is a validation error wrapping ErrInvalidQuery;
// provider failures become a zero MatchResult.
func (r *Resolver) Resolve(ctx context.Context, q MediaQuery) (MatchResult, error) {
	nq, err := q.Normalize()
	if err != nil {
		return MatchResult{}, err
	}
	return r.resolveNormalized(ctx, nq), nil
}

func (r *Resolver) resolveNormalized(ctx context.Context, q MediaQuery) MatchResult {
	if r.provider == nil {
		return MatchResult{}
	}

	candidates, err := r.search(ctx, q)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"provider": r.provider.Name(),
			"title":    q.Title,
			"kind":     q.Kind,
		}).WithError(err).Warn("metadata search failed")
		return MatchResult{}
	}

	c, ok := SelectCandidate(candidates, q)
	if !ok {
		r.log.WithFields(logrus.Fields{
			"title":      q.Title,
			"candidates": len(candidates),
		}).Debug("no poster-bearing candidate")
		return MatchResult{}
	}
	return r.Normalize(c)
}

func (r *Resolver) search(ctx context.Context, q MediaQuery) ([]Candidate, error) {
	switch {
	case q.Kind.IsMovieLike():
		return r.provider.SearchMovie(ctx, q.Title)
	case q.Kind.IsShowLike():
		return r.provider.SearchTV(ctx, q.Title)
	default:
		return r.provider.SearchMulti(ctx, q.Title)
	}
}

// SelectCandidate applies the two-pass policy to candidates in provider
// order. q must already be normalized.
func SelectCandidate(candidates []Candidate, q MediaQuery) (Candidate, bool) {
	for _, c := range candidates {
		if strictMatch(c, q) {
			return c, true
		}
	}
	for _, c := range candidates {
		if c.HasPoster() {
			return c, true
		}
	}
	return Candidate{}, false
}

func strictMatch(c Candidate, q MediaQuery) bool {
	if !kindMatches(c.Kind, q.Kind) {
		return false
	}
	if q.Year != "" && c.Year() != q.Year {
		return false
	}
	if q.Language != "" && strings.ToUpper(c.OriginalLanguage) != q.Language {
		return false
	}
	return c.HasPoster()
}

func kindMatches(ck CandidateKind, k models.MediaKind) bool {
	switch {
	case k.IsMovieLike():
		return ck == CandidateMovie
	case k.IsShowLike():
		return ck == CandidateSeries
	default:
		return ck.Valid()
	}
}

// Normalize converts an accepted candidate into a MatchResult
func (r *Resolver) Normalize(c Candidate) MatchResult {
	res := MatchResult{
		Found:        true,
		ID:           c.ID,
		Title:        c.Title,
		Year:         c.Year(),
		Kind:         resolvedKind(c.Kind),
		ProviderKind: c.Kind,
		Language:     strings.ToUpper(c.OriginalLanguage),
		Rating:       c.Rating,
		Overview:     c.Overview,
	}
	if r.provider != nil {
		res.PosterURL = r.provider.PosterURL(c.PosterPath)
	}
	return res
}

func resolvedKind(ck CandidateKind) models.MediaKind {
	if ck == CandidateSeries {
		return models.KindShow
	}
	return models.KindMovie
}

// RecommendationsFor returns at most count provider recommendations for a
// resolved id in provider order. Unknown kinds, non-positive counts and
// request failures all yield an empty slice.
func (r *Resolver) RecommendationsFor(ctx context.Context, id int64, kind CandidateKind, count int) []Candidate {
	if !kind.Valid() || count <= 0 || r.provider == nil {
		return []Candidate{}
	}

	recs, err := r.provider.Recommendations(ctx, kind, id)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"provider": r.provider.Name(),
			"id":       id,
			"kind":     kind,
		}).WithError(err).Warn("recommendations lookup failed")
		return []Candidate{}
	}
	if len(recs) > count {
		recs = recs[:count]
	}
	return recs
}
