package config

const (
	defaultBind              = ":8080"
	defaultDataDir           = "./data"
	defaultTMDBBaseURL       = "https://api.themoviedb.org/3"
	defaultTMDBImageBaseURL  = "https://image.tmdb.org/t/p/"
	defaultPosterSize        = "w500"
	defaultTMDBTimeout       = 10
	defaultRequestsPerSecond = 4
	defaultBurst             = 2
	defaultResolveTTLMinutes = 10
	defaultRecommendTTLHours = 24
	defaultRecommendCount    = 5
	defaultLogLevel          = "info"
	defaultLogFormat         = "text"
	defaultLogMaxSizeMB      = 50
	defaultLogMaxBackups     = 3
	defaultLogMaxAgeDays     = 28
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:    defaultBind,
			DataDir: defaultDataDir,
		},
		TMDB: TMDB{
			BaseURL:        defaultTMDBBaseURL,
			ImageBaseURL:   defaultTMDBImageBaseURL,
			PosterSize:     defaultPosterSize,
			TimeoutSeconds: defaultTMDBTimeout,
			RequestsPerSec: defaultRequestsPerSecond,
			Burst:          defaultBurst,
		},
		Cache: Cache{
			ResolveTTLMinutes:  defaultResolveTTLMinutes,
			RecommendTTLHours:  defaultRecommendTTLHours,
			RecommendationSize: defaultRecommendCount,
		},
		Logging: Logging{
			Level:      defaultLogLevel,
			Format:     defaultLogFormat,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
