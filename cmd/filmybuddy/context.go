package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/justyntemme/filmybuddy/internal/config"
	"github.com/justyntemme/filmybuddy/internal/logging"
	"github.com/justyntemme/filmybuddy/internal/metadata"
	"github.com/justyntemme/filmybuddy/internal/storage"
	"github.com/justyntemme/filmybuddy/internal/tracker"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

// app is everything a command needs, built from explicit configuration
type app struct {
	cfg             *config.Config
	log             *logrus.Logger
	db              *storage.Database
	tracker         *tracker.Tracker
	metadataEnabled bool
}

func (a *app) Close() error {
	return a.db.Close()
}

// openApp builds the logger, store, TMDb client and tracker
func (c *commandContext) openApp() (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	db, err := storage.NewDatabase(cfg.Server.DBPath())
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	var provider metadata.Provider
	if cfg.TMDB.Enabled() {
		tmdb, err := metadata.NewTMDBProvider(cfg.TMDB)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("initialize tmdb client: %w", err)
		}
		provider = tmdb
	} else {
		log.Warn("no TMDb API key configured; posters and recommendations are disabled")
	}

	resolver := metadata.NewCachingResolver(
		metadata.NewResolver(provider, log),
		metadata.NewCache(cfg.Cache.ResolveTTL(), cfg.Cache.RecommendTTL()),
	)
	tr := tracker.New(db, resolver, log, tracker.WithRecommendationCount(cfg.Cache.RecommendationSize))

	return &app{
		cfg:             cfg,
		log:             log,
		db:              db,
		tracker:         tr,
		metadataEnabled: provider != nil,
	}, nil
}
