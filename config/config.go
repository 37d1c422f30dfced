package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pevans/technews/collection"
	"github.com/pevans/technews/newsapi"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
	StorageMongo    = "mongo"
)

// Upstream article sources.
const (
	UpstreamNewsAPI = "newsapi"
	UpstreamRSS     = "rss"
)

var (
	storageTypes  = []string{StorageMemory, StorageSQLite, StoragePostgres, StorageRedis, StorageMongo}
	upstreamTypes = []string{UpstreamNewsAPI, UpstreamRSS}
)

// NewsAPIConfig configures the NewsAPI client. Query is the search term
// sent upstream and applies to the newsapi upstream only.
type NewsAPIConfig struct {
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Query    string `yaml:"query"`
	PageSize int    `yaml:"page_size"`
}

// UpstreamConfig selects where articles come from. Feeds maps a language
// code (pt, en, es) to RSS or Atom URLs and Query filters their items; both
// are used by the rss upstream only. An empty Query keeps every item.
type UpstreamConfig struct {
	Type  string              `yaml:"type"`
	Feeds map[string][]string `yaml:"feeds"`
	Query string              `yaml:"query"`
}

// StorageConfig selects the backend of the recent-items store. QuotaBytes
// bounds the size of each stored value, that is one browser's list, on every
// backend; zero means unlimited.
type StorageConfig struct {
	Type       string `yaml:"type"`
	DSN        string `yaml:"dsn"`
	Prefix     string `yaml:"prefix"`
	QuotaBytes int    `yaml:"quota_bytes"`
}

// TelemetryConfig configures where web-vital reports are written.
type TelemetryConfig struct {
	Path        string `yaml:"path"`
	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Config is the full technews configuration.
type Config struct {
	Listen      string          `yaml:"listen"`
	CORSOrigins []string        `yaml:"cors_origins"`
	CacheTTL    time.Duration   `yaml:"cache_ttl"`
	NewsAPI     NewsAPIConfig   `yaml:"newsapi"`
	Upstream    UpstreamConfig  `yaml:"upstream"`
	Storage     StorageConfig   `yaml:"storage"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Log         LogConfig       `yaml:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Listen:      "localhost:3000",
		CORSOrigins: []string{"*"},
		CacheTTL:    collection.DefaultCacheTTL,
		NewsAPI: NewsAPIConfig{
			BaseURL:  newsapi.DefaultBaseURL,
			Query:    newsapi.DefaultQuery,
			PageSize: newsapi.DefaultPageSize,
		},
		Upstream: UpstreamConfig{Type: UpstreamNewsAPI},
		Storage: StorageConfig{
			Type:   StorageMemory,
			Prefix: "technews:",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, then ~/.technews/config.yaml,
// then TECHNEWS_* environment variables, and validates the result.
func Load() (*Config, error) {
	cfg, err := LoadConfigFile()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = Default()
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for unknown backends and missing
// settings.
func (c *Config) Validate() error {
	var errs []error

	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if !slices.Contains(storageTypes, c.Storage.Type) {
		errs = append(errs, fmt.Errorf("invalid storage type: %q (must be one of %s)",
			c.Storage.Type, strings.Join(storageTypes, ", ")))
	}
	if c.Storage.Type != StorageMemory && c.Storage.DSN == "" {
		errs = append(errs, fmt.Errorf("storage dsn is required for %s", c.Storage.Type))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("invalid cache_ttl: %s", c.CacheTTL))
	}
	if c.Storage.QuotaBytes < 0 {
		errs = append(errs, fmt.Errorf("invalid storage quota_bytes: %d", c.Storage.QuotaBytes))
	}
	if c.NewsAPI.PageSize < 1 || c.NewsAPI.PageSize > 100 {
		errs = append(errs, fmt.Errorf("invalid newsapi page_size: %d (must be between 1 and 100)", c.NewsAPI.PageSize))
	}

	switch c.Upstream.Type {
	case UpstreamNewsAPI:
	case UpstreamRSS:
		for _, lang := range []newsapi.Lang{newsapi.LangPT, newsapi.LangEN} {
			if len(c.Upstream.Feeds[string(lang)]) == 0 {
				errs = append(errs, fmt.Errorf("rss upstream needs feeds for language %s", lang))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("invalid upstream type: %q (must be one of %s)",
			c.Upstream.Type, strings.Join(upstreamTypes, ", ")))
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level: %q", c.Log.Level))
	}

	return errors.Join(errs...)
}

// FeedsByLang returns the configured feeds keyed by language.
func (u UpstreamConfig) FeedsByLang() map[newsapi.Lang][]string {
	out := make(map[newsapi.Lang][]string, len(u.Feeds))
	for lang, urls := range u.Feeds {
		out[newsapi.Lang(strings.ToLower(lang))] = urls
	}
	return out
}

// Build creates the logger described by c.
func (c LogConfig) Build() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %q", c.Level)
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
