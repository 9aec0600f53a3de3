package api

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/justyntemme/filmybuddy/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"fmtRating": func(r float64) string {
		if r <= 0 {
			return "-"
		}
		return fmt.Sprintf("%.1f", r)
	},
	"fmtTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2006-01-02 15:04")
	},
}

// NewRouter wires middleware and routes onto a gin engine
func NewRouter(h *Handler, log logrus.FieldLogger) (*gin.Engine, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.Recovery())
	r.Use(logging.GinMiddleware(log))
	r.Use(corsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Health check
	r.GET("/health", h.HealthCheck)

	// Page and form
	r.GET("/", h.Index)
	r.POST("/entries", h.SubmitEntry)

	// API routes
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("", h.APIInfo)

		apiGroup.GET("/entries", h.ListEntries)
		apiGroup.POST("/entries", h.CreateEntry)

		apiGroup.GET("/resolve", h.Resolve)
		apiGroup.GET("/recommendations", h.LatestRecommendations)
		apiGroup.GET("/recommendations/:kind/:id", h.RecommendationsFor)

		apiGroup.GET("/cache", h.CacheStats)
		apiGroup.DELETE("/cache", h.InvalidateCache)
	}

	return r, nil
}

// corsMiddleware allows any origin so the JSON API can back other clients
func corsMiddleware() gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	config.ExposeHeaders = []string{logging.RequestIDHeader}
	return cors.New(config)
}
