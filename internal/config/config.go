// Package config loads FilmyBuddy settings from an optional TOML file,
// FILMYBUDDY_* environment variables and defaults. The result is passed
// explicitly to the store, the TMDb client and the server; nothing reads
// process-wide settings after startup.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Server contains the HTTP bind address and data directory.
type Server struct {
	Bind    string `toml:"bind"`
	DataDir string `toml:"data_dir"`
}

// DBPath returns the sqlite file inside the data directory.
func (s Server) DBPath() string {
	return filepath.Join(s.DataDir, "filmybuddy.db")
}

// TMDB contains configuration for The Movie Database API.
// An empty APIKey disables metadata lookups; the tracker still works.
type TMDB struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	ImageBaseURL   string  `toml:"image_base_url"`
	PosterSize     string  `toml:"poster_size"`
	Language       string  `toml:"language"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RequestsPerSec float64 `toml:"requests_per_second"`
	Burst          int     `toml:"burst"`
}

// Timeout returns the HTTP client timeout.
func (t TMDB) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// Enabled reports whether an API key is configured.
func (t TMDB) Enabled() bool {
	return t.APIKey != ""
}

// Cache contains freshness windows for memoized lookups.
type Cache struct {
	ResolveTTLMinutes  int `toml:"resolve_ttl_minutes"`
	RecommendTTLHours  int `toml:"recommend_ttl_hours"`
	RecommendationSize int `toml:"recommendation_count"`
}

// ResolveTTL is how long a resolved match stays fresh.
func (c Cache) ResolveTTL() time.Duration {
	return time.Duration(c.ResolveTTLMinutes) * time.Minute
}

// RecommendTTL is how long a recommendation list stays fresh.
func (c Cache) RecommendTTL() time.Duration {
	return time.Duration(c.RecommendTTLHours) * time.Hour
}

// Logging contains configuration for log output.
type Logging struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Config encapsulates all configuration values.
type Config struct {
	Server  Server  `toml:"server"`
	TMDB    TMDB    `toml:"tmdb"`
	Cache   Cache   `toml:"cache"`
	Logging Logging `toml:"logging"`
}

// Load parses the file at path (when it exists), applies environment
// overrides, fills defaults and validates. An empty path looks for
// filmybuddy.toml in the working directory.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = "filmybuddy.toml"
	}
	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("open config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Bind = getEnv("FILMYBUDDY_BIND", c.Server.Bind)
	if port := os.Getenv("FILMYBUDDY_PORT"); port != "" {
		c.Server.Bind = ":" + port
	}
	c.Server.DataDir = getEnv("FILMYBUDDY_DATA_DIR", c.Server.DataDir)

	c.TMDB.APIKey = getEnv("FILMYBUDDY_TMDB_API_KEY", c.TMDB.APIKey)
	if c.TMDB.APIKey == "" {
		c.TMDB.APIKey = os.Getenv("TMDB_API_KEY")
	}
	c.TMDB.BaseURL = getEnv("FILMYBUDDY_TMDB_BASE_URL", c.TMDB.BaseURL)
	c.TMDB.Language = getEnv("FILMYBUDDY_TMDB_LANGUAGE", c.TMDB.Language)

	if v := os.Getenv("FILMYBUDDY_RESOLVE_TTL_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FILMYBUDDY_RESOLVE_TTL_MINUTES: %w", err)
		}
		c.Cache.ResolveTTLMinutes = n
	}

	c.Logging.Level = getEnv("FILMYBUDDY_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("FILMYBUDDY_LOG_FORMAT", c.Logging.Format)
	c.Logging.File = getEnv("FILMYBUDDY_LOG_FILE", c.Logging.File)
	return nil
}

func (c *Config) normalize() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.DataDir = strings.TrimSpace(c.Server.DataDir)
	if c.Server.DataDir == "" {
		c.Server.DataDir = defaultDataDir
	}

	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.ImageBaseURL = strings.TrimSpace(c.TMDB.ImageBaseURL)
	if c.TMDB.ImageBaseURL == "" {
		c.TMDB.ImageBaseURL = defaultTMDBImageBaseURL
	}
	if !strings.HasSuffix(c.TMDB.ImageBaseURL, "/") {
		c.TMDB.ImageBaseURL += "/"
	}
	c.TMDB.PosterSize = strings.Trim(strings.TrimSpace(c.TMDB.PosterSize), "/")
	if c.TMDB.PosterSize == "" {
		c.TMDB.PosterSize = defaultPosterSize
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
