package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfigFile loads configuration from ~/.technews/config.yaml on top of
// the defaults. Returns nil if the file doesn't exist (not an error). Returns
// error if the file exists but cannot be parsed.
func LoadConfigFile() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".technews", "config.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// applyEnv overrides cfg with any TECHNEWS_* variables that are set.
func applyEnv(cfg *Config) error {
	cfg.Listen = getEnv("TECHNEWS_LISTEN", cfg.Listen)
	cfg.NewsAPI.BaseURL = getEnv("TECHNEWS_NEWSAPI_URL", cfg.NewsAPI.BaseURL)
	cfg.NewsAPI.Key = getEnv("TECHNEWS_NEWSAPI_KEY", cfg.NewsAPI.Key)
	cfg.NewsAPI.Query = getEnv("TECHNEWS_QUERY", cfg.NewsAPI.Query)
	cfg.Upstream.Type = getEnv("TECHNEWS_UPSTREAM", cfg.Upstream.Type)
	cfg.Upstream.Query = getEnv("TECHNEWS_RSS_QUERY", cfg.Upstream.Query)
	cfg.Storage.Type = getEnv("TECHNEWS_STORAGE_TYPE", cfg.Storage.Type)
	cfg.Storage.DSN = getEnv("TECHNEWS_STORAGE_DSN", cfg.Storage.DSN)
	cfg.Storage.Prefix = getEnv("TECHNEWS_STORAGE_PREFIX", cfg.Storage.Prefix)
	cfg.Telemetry.Path = getEnv("TECHNEWS_METRICS_PATH", cfg.Telemetry.Path)
	cfg.Telemetry.NATSURL = getEnv("TECHNEWS_NATS_URL", cfg.Telemetry.NATSURL)
	cfg.Telemetry.NATSSubject = getEnv("TECHNEWS_NATS_SUBJECT", cfg.Telemetry.NATSSubject)
	cfg.Log.Level = getEnv("TECHNEWS_LOG_LEVEL", cfg.Log.Level)

	if v := os.Getenv("TECHNEWS_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TECHNEWS_PAGE_SIZE: %q", v)
		}
		cfg.NewsAPI.PageSize = n
	}
	if v := os.Getenv("TECHNEWS_STORAGE_QUOTA"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TECHNEWS_STORAGE_QUOTA: %q", v)
		}
		cfg.Storage.QuotaBytes = n
	}
	if v := os.Getenv("TECHNEWS_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TECHNEWS_CACHE_TTL: %q", v)
		}
		cfg.CacheTTL = d
	}
	if v := os.Getenv("TECHNEWS_LOG_DEV"); v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid TECHNEWS_LOG_DEV: %q", v)
		}
		cfg.Log.Development = dev
	}

	return nil
}
