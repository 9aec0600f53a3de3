package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/justyntemme/filmybuddy/internal/metadata"
	"github.com/justyntemme/filmybuddy/internal/models"
	"github.com/justyntemme/filmybuddy/internal/tracker"
)

const (
	metadataTimeout    = 10 * time.Second
	logRecommendations = 3
	missingFieldsMsg   = "Please fill at least your name and the movie title."
)

// Handler contains all HTTP handlers
type Handler struct {
	tracker         *tracker.Tracker
	log             logrus.FieldLogger
	metadataEnabled bool
}

// NewHandler creates a new handler instance. metadataEnabled only changes
// what the page and health check report; resolution degrades on its own.
func NewHandler(tr *tracker.Tracker, log logrus.FieldLogger, metadataEnabled bool) *Handler {
	return &Handler{
		tracker:         tr,
		log:             log,
		metadataEnabled: metadataEnabled,
	}
}

// pageData feeds templates/index.html
type pageData struct {
	Form            tracker.EntryInput
	Warning         string
	Search          string
	Rows            []tracker.GridRow
	Total           int
	Recs            tracker.Recommendations
	LogRecs         []string
	Kinds           []models.MediaKind
	Statuses        []models.WatchStatus
	MetadataEnabled bool
}

// Index renders the add form, the annotated grid and recommendations
func (h *Handler) Index(c *gin.Context) {
	h.renderPage(c, http.StatusOK, tracker.EntryInput{}, "")
}

// SubmitEntry handles the add form
func (h *Handler) SubmitEntry(c *gin.Context) {
	var in tracker.EntryInput
	if err := c.ShouldBind(&in); err != nil {
		h.renderPage(c, http.StatusBadRequest, in, "Invalid form submission")
		return
	}

	if _, err := h.tracker.AddEntry(c.Request.Context(), in); err != nil {
		if errors.Is(err, tracker.ErrInvalidEntry) {
			h.renderPage(c, http.StatusBadRequest, in, warningFor(err))
			return
		}
		h.log.WithError(err).Error("failed to append entry")
		h.renderPage(c, http.StatusInternalServerError, in, "Failed to save entry")
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// warningFor turns a validation error into the message shown above the form
func warningFor(err error) string {
	var verr *metadata.ValidationError
	if errors.As(err, &verr) {
		switch verr.Field {
		case "user", "title":
			return missingFieldsMsg
		}
		return "Invalid " + verr.Field + ": " + verr.Reason
	}
	return err.Error()
}

func (h *Handler) renderPage(c *gin.Context, status int, form tracker.EntryInput, warning string) {
	ctx := c.Request.Context()
	search := c.Query("q")

	all, err := h.tracker.Entries(ctx, "")
	if err != nil {
		h.log.WithError(err).Error("failed to read entries")
		c.String(http.StatusInternalServerError, "Failed to read entries")
		return
	}
	shown := all
	if search != "" {
		if shown, err = h.tracker.Entries(ctx, search); err != nil {
			h.log.WithError(err).Error("failed to search entries")
			c.String(http.StatusInternalServerError, "Failed to search entries")
			return
		}
	}

	recs, err := h.tracker.Recommendations(ctx, 0)
	if err != nil {
		h.log.WithError(err).Warn("failed to load recommendations")
	}

	c.HTML(status, "index.html", pageData{
		Form:            form,
		Warning:         warning,
		Search:          search,
		Rows:            h.tracker.Annotate(ctx, shown),
		Total:           len(all),
		Recs:            recs,
		LogRecs:         h.tracker.LogRecommendations(all, logRecommendations),
		Kinds:           models.MediaKinds,
		Statuses:        models.WatchStatuses,
		MetadataEnabled: h.metadataEnabled,
	})
}

// ListEntries returns the log, optionally filtered by ?q= and annotated
// with matches when ?annotate=true
func (h *Handler) ListEntries(c *gin.Context) {
	ctx := c.Request.Context()
	entries, err := h.tracker.Entries(ctx, c.Query("q"))
	if err != nil {
		h.log.WithError(err).Error("failed to read entries")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read entries"})
		return
	}

	if annotate, _ := strconv.ParseBool(c.Query("annotate")); annotate {
		rows := h.tracker.Annotate(ctx, entries)
		c.JSON(http.StatusOK, gin.H{"entries": rows, "count": len(rows)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// CreateEntry appends an entry from a JSON body
func (h *Handler) CreateEntry(c *gin.Context) {
	var in tracker.EntryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	entry, err := h.tracker.AddEntry(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, tracker.ErrInvalidEntry) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.WithError(err).Error("failed to append entry")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save entry"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// Resolve runs the match resolver for ?title=&kind=&year=&language=
func (h *Handler) Resolve(c *gin.Context) {
	q := metadata.MediaQuery{
		Title:    c.Query("title"),
		Kind:     models.MediaKind(c.Query("kind")),
		Year:     c.Query("year"),
		Language: c.Query("language"),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), metadataTimeout)
	defer cancel()

	match, err := h.tracker.Resolve(ctx, q)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": match})
}

// LatestRecommendations returns TMDb recommendations for the last entry and
// titles sampled from the log
func (h *Handler) LatestRecommendations(c *gin.Context) {
	count, ok := parseCount(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), metadataTimeout)
	defer cancel()

	recs, err := h.tracker.Recommendations(ctx, count)
	if err != nil {
		h.log.WithError(err).Error("failed to read entries")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read entries"})
		return
	}
	entries, err := h.tracker.Entries(ctx, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tmdb":     recs,
		"from_log": h.tracker.LogRecommendations(entries, logRecommendations),
	})
}

// RecommendationsFor returns TMDb recommendations for /:kind/:id. Unknown
// kinds yield an empty list rather than an error.
func (h *Handler) RecommendationsFor(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}
	count, ok := parseCount(c)
	if !ok {
		return
	}

	kind, _ := metadata.ParseCandidateKind(c.Param("kind"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), metadataTimeout)
	defer cancel()

	items := h.tracker.RecommendationsFor(ctx, id, kind, count)
	c.JSON(http.StatusOK, gin.H{"results": items, "count": len(items)})
}

// parseCount reads ?count=, writing a 400 when it is malformed. Zero means
// the configured default.
func parseCount(c *gin.Context) (int, bool) {
	raw := c.Query("count")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > 20 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must be between 0 and 20"})
		return 0, false
	}
	return n, true
}

// CacheStats reports resolution cache hits, misses and size
func (h *Handler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.CacheStats())
}

// InvalidateCache drops every cached resolution
func (h *Handler) InvalidateCache(c *gin.Context) {
	h.tracker.InvalidateCache()
	c.JSON(http.StatusOK, gin.H{"message": "Cache invalidated"})
}

// HealthCheck returns server health status
func (h *Handler) HealthCheck(c *gin.Context) {
	count, err := h.tracker.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "store unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"time":     time.Now(),
		"entries":  count,
		"metadata": h.metadataEnabled,
	})
}

// APIInfo returns API documentation
func (h *Handler) APIInfo(c *gin.Context) {
	endpoints := []gin.H{
		{"method": "GET", "path": "/health", "description": "Health check"},
		{"method": "GET", "path": "/api", "description": "API documentation"},

		// Log
		{"method": "GET", "path": "/api/entries", "description": "List logged entries", "query": "q, annotate"},
		{"method": "POST", "path": "/api/entries", "description": "Append an entry", "body": "user, title, kind, status, year, language, note"},

		// Metadata
		{"method": "GET", "path": "/api/resolve", "description": "Resolve a title against TMDb", "query": "title, kind, year, language"},
		{"method": "GET", "path": "/api/recommendations", "description": "Recommendations for the last entry", "query": "count"},
		{"method": "GET", "path": "/api/recommendations/:kind/:id", "description": "TMDb recommendations for a movie or tv id", "query": "count"},

		// Cache
		{"method": "GET", "path": "/api/cache", "description": "Resolution cache stats"},
		{"method": "DELETE", "path": "/api/cache", "description": "Invalidate resolution cache"},
	}

	c.JSON(http.StatusOK, gin.H{
		"name":        "FilmyBuddy API",
		"version":     "1.0.0",
		"description": "Personal movie and show log with TMDb posters and recommendations",
		"endpoints":   endpoints,
	})
}
