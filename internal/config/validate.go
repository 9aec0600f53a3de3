package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTMDB() error {
	if _, err := url.ParseRequestURI(c.TMDB.BaseURL); err != nil {
		return fmt.Errorf("tmdb.base_url: %w", err)
	}
	if _, err := url.ParseRequestURI(c.TMDB.ImageBaseURL); err != nil {
		return fmt.Errorf("tmdb.image_base_url: %w", err)
	}
	if c.TMDB.TimeoutSeconds <= 0 {
		return errors.New("tmdb.timeout_seconds must be positive")
	}
	if c.TMDB.RequestsPerSec <= 0 {
		return errors.New("tmdb.requests_per_second must be positive")
	}
	if c.TMDB.Burst <= 0 {
		return errors.New("tmdb.burst must be positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.ResolveTTLMinutes < 0 {
		return errors.New("cache.resolve_ttl_minutes must not be negative")
	}
	if c.Cache.RecommendTTLHours < 0 {
		return errors.New("cache.recommend_ttl_hours must not be negative")
	}
	if c.Cache.RecommendationSize < 0 || c.Cache.RecommendationSize > 20 {
		return errors.New("cache.recommendation_count must be between 0 and 20")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognised", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}
