package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/justyntemme/filmybuddy/internal/config"
)

// TMDBProvider implements the Provider interface for The Movie Database v3 API
type TMDBProvider struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	language   string
	imageBase  string
	posterSize string
	limiter    *RateLimiter
}

var _ Provider = (*TMDBProvider)(nil)

// Option configures a TMDBProvider
type Option func(*TMDBProvider)

// WithHTTPClient overrides the default HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(p *TMDBProvider) {
		if client != nil {
			p.client = client
		}
	}
}

// WithRateLimiter overrides the limiter built from config
func WithRateLimiter(limiter *RateLimiter) Option {
	return func(p *TMDBProvider) {
		p.limiter = limiter
	}
}

// NewTMDBProvider creates a TMDb provider from explicit configuration
func NewTMDBProvider(cfg config.TMDB, opts ...Option) (*TMDBProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	p := &TMDBProvider{
		client:     &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		language:   strings.TrimSpace(cfg.Language),
		imageBase:  cfg.ImageBaseURL,
		posterSize: cfg.PosterSize,
	}
	if cfg.RequestsPerSec > 0 {
		p.limiter = NewRateLimiter(cfg.RequestsPerSec, cfg.Burst)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the provider identifier
func (p *TMDBProvider) Name() string {
	return "tmdb"
}

// tmdbPage represents a paginated TMDb search or recommendations response
type tmdbPage struct {
	Page         int          `json:"page"`
	Results      []tmdbResult `json:"results"`
	TotalPages   int          `json:"total_pages"`
	TotalResults int          `json:"total_results"`
}

// tmdbResult covers both movie and tv result shapes
type tmdbResult struct {
	ID               int64   `json:"id"`
	MediaType        string  `json:"media_type"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	OriginalTitle    string  `json:"original_title"`
	OriginalName     string  `json:"original_name"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	OriginalLanguage string  `json:"original_language"`
	PosterPath       string  `json:"poster_path"`
	VoteAverage      float64 `json:"vote_average"`
	Overview         string  `json:"overview"`
}

// SearchMovie searches /search/movie
func (p *TMDBProvider) SearchMovie(ctx context.Context, title string) ([]Candidate, error) {
	return p.search(ctx, "/search/movie", title, CandidateMovie)
}

// SearchTV searches /search/tv
func (p *TMDBProvider) SearchTV(ctx context.Context, title string) ([]Candidate, error) {
	return p.search(ctx, "/search/tv", title, CandidateSeries)
}

// SearchMulti searches /search/multi; people and other non-title results are dropped
func (p *TMDBProvider) SearchMulti(ctx context.Context, title string) ([]Candidate, error) {
	return p.search(ctx, "/search/multi", title, "")
}

// Recommendations fetches /movie/{id}/recommendations or /tv/{id}/recommendations
func (p *TMDBProvider) Recommendations(ctx context.Context, kind CandidateKind, id int64) ([]Candidate, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("recommendations: unsupported kind %q", kind)
	}
	if id <= 0 {
		return nil, errors.New("recommendations: id must be positive")
	}
	page, err := p.get(ctx, fmt.Sprintf("/%s/%d/recommendations", kind, id), url.Values{})
	if err != nil {
		return nil, err
	}
	return convertResults(page.Results, kind), nil
}

// PosterURL returns the image-size-prefixed URL for a poster path fragment
func (p *TMDBProvider) PosterURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(p.imageBase, "/") + "/" + p.posterSize + path
}

func (p *TMDBProvider) search(ctx context.Context, endpoint, title string, kind CandidateKind) ([]Candidate, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", title)
	params.Set("include_adult", "false")

	page, err := p.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	return convertResults(page.Results, kind), nil
}

func (p *TMDBProvider) get(ctx context.Context, path string, params url.Values) (*tmdbPage, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params.Set("api_key", p.apiKey)
	if p.language != "" {
		params.Set("language", p.language)
	}
	endpoint := p.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNoMatch
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: tmdb returned %d (latency=%v)", ErrProviderDown, resp.StatusCode, latency)
	default:
		return nil, fmt.Errorf("unexpected status: %d (latency=%v)", resp.StatusCode, latency)
	}

	var page tmdbPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode tmdb response: %w", err)
	}
	return &page, nil
}

// convertResults validates raw results into candidates. fallbackKind is used
// when the endpoint omits media_type; results of any other type are dropped.
func convertResults(results []tmdbResult, fallbackKind CandidateKind) []Candidate {
	candidates := make([]Candidate, 0, len(results))
	for i := range results {
		if c, ok := convertResult(&results[i], fallbackKind); ok {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

func convertResult(r *tmdbResult, fallbackKind CandidateKind) (Candidate, bool) {
	kind := fallbackKind
	if r.MediaType != "" {
		kind = CandidateKind(r.MediaType)
	}
	if !kind.Valid() || r.ID <= 0 {
		return Candidate{}, false
	}

	c := Candidate{
		ID:               r.ID,
		Kind:             kind,
		OriginalLanguage: strings.ToUpper(strings.TrimSpace(r.OriginalLanguage)),
		PosterPath:       strings.TrimSpace(r.PosterPath),
		Rating:           r.VoteAverage,
		Overview:         r.Overview,
	}
	switch kind {
	case CandidateMovie:
		c.Title = firstNonEmpty(r.Title, r.Name, r.OriginalTitle)
		c.ReleaseDate = firstNonEmpty(r.ReleaseDate, r.FirstAirDate)
	case CandidateSeries:
		c.Title = firstNonEmpty(r.Name, r.Title, r.OriginalName)
		c.ReleaseDate = firstNonEmpty(r.FirstAirDate, r.ReleaseDate)
	}
	if c.Title == "" {
		return Candidate{}, false
	}
	return c, true
}

// firstNonEmpty returns the first non-blank value or empty string
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
