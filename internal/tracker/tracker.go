// Package tracker ties the media log to metadata resolution: it validates
// and appends entries, annotates the grid with TMDb matches and produces
// both TMDb and from-your-log recommendations.
package tracker

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/justyntemme/filmybuddy/internal/metadata"
	"github.com/justyntemme/filmybuddy/internal/models"
)

// ErrInvalidEntry is wrapped by every entry validation failure
var ErrInvalidEntry = errors.New("invalid entry")

// EntryStore is the append-only log the tracker writes to
type EntryStore interface {
	AppendEntry(ctx context.Context, entry *models.Entry) error
	ListEntries(ctx context.Context) ([]models.Entry, error)
	SearchEntries(ctx context.Context, query string) ([]models.Entry, error)
	CountEntries(ctx context.Context) (int, error)
}

// EntryInput is the raw add-form submission
type EntryInput struct {
	User     string `json:"user" form:"user"`
	Title    string `json:"title" form:"title"`
	Kind     string `json:"kind" form:"kind"`
	Status   string `json:"status" form:"status"`
	Year     string `json:"year" form:"year"`
	Language string `json:"language" form:"language"`
	Note     string `json:"note" form:"note"`
}

// GridRow is one log entry with its resolved metadata
type GridRow struct {
	Entry models.Entry         `json:"entry"`
	Match metadata.MatchResult `json:"match"`
}

// Recommendations are the TMDb suggestions for the last logged entry
type Recommendations struct {
	Source *models.Entry          `json:"source,omitempty"`
	Match  metadata.MatchResult   `json:"match"`
	Items  []metadata.MatchResult `json:"items"`
}

// Tracker orchestrates the store and the caching resolver
type Tracker struct {
	store    EntryStore
	resolver *metadata.CachingResolver
	log      logrus.FieldLogger
	recCount int
	now      func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configures a Tracker
type Option func(*Tracker)

// WithRand sets the random source used for log recommendations
func WithRand(rnd *rand.Rand) Option {
	return func(t *Tracker) {
		if rnd != nil {
			t.rnd = rnd
		}
	}
}

// WithRecommendationCount sets how many TMDb recommendations to show
func WithRecommendationCount(n int) Option {
	return func(t *Tracker) {
		t.recCount = n
	}
}

// WithClock overrides the timestamp source for new entries
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New creates a tracker
func New(store EntryStore, resolver *metadata.CachingResolver, log logrus.FieldLogger, opts ...Option) *Tracker {
	t := &Tracker{
		store:    store,
		resolver: resolver,
		log:      log,
		recCount: 5,
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// AddEntry validates in, appends it and invalidates cached resolutions
func (t *Tracker) AddEntry(ctx context.Context, in EntryInput) (*models.Entry, error) {
	entry, err := t.buildEntry(in)
	if err != nil {
		return nil, err
	}
	if err := t.store.AppendEntry(ctx, entry); err != nil {
		return nil, err
	}
	t.resolver.Cache().Invalidate()

	t.log.WithFields(logrus.Fields{
		"entry_id": entry.ID,
		"title":    entry.Title,
		"kind":     entry.Kind,
	}).Info("entry added")
	return entry, nil
}

func (t *Tracker) buildEntry(in EntryInput) (*models.Entry, error) {
	user := strings.TrimSpace(in.User)
	if user == "" {
		return nil, invalid("user", "is required")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title", "is required")
	}

	kind := models.KindMovie
	if k := strings.TrimSpace(in.Kind); k != "" {
		parsed, ok := models.ParseMediaKind(k)
		if !ok {
			return nil, invalid("kind", "is not a known kind")
		}
		kind = parsed
	}
	status, ok := models.ParseWatchStatus(strings.TrimSpace(in.Status))
	if !ok {
		return nil, invalid("status", "is not a known status")
	}

	year, err := metadata.NormalizeYear(in.Year)
	if err != nil {
		return nil, invalid("year", err.Error())
	}
	lang, err := metadata.NormalizeLanguage(in.Language)
	if err != nil {
		return nil, invalid("language", err.Error())
	}

	return &models.Entry{
		User:      user,
		Title:     title,
		Kind:      kind,
		Status:    status,
		Year:      year,
		Language:  lang,
		Note:      strings.TrimSpace(in.Note),
		CreatedAt: t.now(),
	}, nil
}

func invalid(field, reason string) error {
	return &metadata.ValidationError{Err: ErrInvalidEntry, Field: field, Reason: reason}
}

// Entries reads the log, filtered by a title substring when search is set
func (t *Tracker) Entries(ctx context.Context, search string) ([]models.Entry, error) {
	if strings.TrimSpace(search) != "" {
		return t.store.SearchEntries(ctx, search)
	}
	return t.store.ListEntries(ctx)
}

// Count returns the number of logged entries
func (t *Tracker) Count(ctx context.Context) (int, error) {
	return t.store.CountEntries(ctx)
}

// Resolve resolves a single query through the cache
func (t *Tracker) Resolve(ctx context.Context, q metadata.MediaQuery) (metadata.MatchResult, error) {
	return t.resolver.Resolve(ctx, q)
}

// Annotate resolves each entry in order. Entries whose stored fields no
// longer validate are shown without a match.
func (t *Tracker) Annotate(ctx context.Context, entries []models.Entry) []GridRow {
	rows := make([]GridRow, 0, len(entries))
	for _, e := range entries {
		match, err := t.resolver.Resolve(ctx, queryFor(e))
		if err != nil {
			t.log.WithField("entry_id", e.ID).WithError(err).Debug("skipping resolution for entry")
		}
		rows = append(rows, GridRow{Entry: e, Match: match})
	}
	return rows
}

func queryFor(e models.Entry) metadata.MediaQuery {
	return metadata.MediaQuery{Title: e.Title, Kind: e.Kind, Year: e.Year, Language: e.Language}
}

// Recommendations resolves the most recently added entry and returns TMDb
// recommendations for its match. count <= 0 uses the configured default.
func (t *Tracker) Recommendations(ctx context.Context, count int) (Recommendations, error) {
	if count <= 0 {
		count = t.recCount
	}
	out := Recommendations{Items: []metadata.MatchResult{}}

	entries, err := t.store.ListEntries(ctx)
	if err != nil {
		return out, err
	}
	if len(entries) == 0 {
		return out, nil
	}

	last := entries[len(entries)-1]
	out.Source = &last
	match, err := t.resolver.Resolve(ctx, queryFor(last))
	if err != nil || !match.Found {
		return out, nil
	}
	out.Match = match
	out.Items = t.RecommendationsFor(ctx, match.ID, match.ProviderKind, count)
	return out, nil
}

// RecommendationsFor returns normalized recommendations for a provider id
func (t *Tracker) RecommendationsFor(ctx context.Context, id int64, kind metadata.CandidateKind, count int) []metadata.MatchResult {
	cands := t.resolver.RecommendationsFor(ctx, id, kind, count)
	items := make([]metadata.MatchResult, 0, len(cands))
	for _, c := range cands {
		items = append(items, t.resolver.Normalize(c))
	}
	return items
}

// LogRecommendations samples up to n distinct titles from the log whose
// kind differs from the most recently added entry. Titles also logged under
// that kind are excluded. Fewer than two entries yields nothing.
func (t *Tracker) LogRecommendations(entries []models.Entry, n int) []string {
	if len(entries) < 2 || n <= 0 {
		return []string{}
	}

	lastKind := entries[len(entries)-1].Kind
	sameKind := make(map[string]bool)
	for _, e := range entries {
		if e.Kind == lastKind {
			sameKind[e.Title] = true
		}
	}

	seen := make(map[string]bool)
	pool := []string{}
	for _, e := range entries {
		if sameKind[e.Title] || seen[e.Title] {
			continue
		}
		seen[e.Title] = true
		pool = append(pool, e.Title)
	}

	t.mu.Lock()
	t.rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	t.mu.Unlock()

	if len(pool) > n {
		pool = pool[:n]
	}
	return pool
}

// CacheStats reports resolution cache activity
func (t *Tracker) CacheStats() metadata.CacheStats {
	return t.resolver.Cache().Stats()
}

// InvalidateCache drops every cached resolution
func (t *Tracker) InvalidateCache() {
	t.resolver.Cache().Invalidate()
}
