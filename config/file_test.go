package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestHome points HOME at a fresh directory and, when content is not
// empty, writes it as ~/.technews/config.yaml.
func setupTestHome(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	if content != "" {
		dir := filepath.Join(tmpDir, ".technews")
		require.NoError(t, os.MkdirAll(dir, 0o700))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
	}
	return tmpDir
}

func TestLoadConfigFile_NoFile(t *testing.T) {
	setupTestHome(t, "")

	cfg, err := LoadConfigFile()
	require.NoError(t, err)
	assert.Nil(t, cfg, "Should return nil when config file doesn't exist")
}

func TestLoadConfigFile_ValidConfig(t *testing.T) {
	setupTestHome(t, `listen: ":8080"
newsapi:
  key: "secret"
  query: "golang"
  page_size: 50
upstream:
  type: rss
  feeds:
    pt: ["https://g1.example.com/rss"]
    en: ["https://hn.example.com/rss", "https://lobste.rs/rss"]
storage:
  type: "sqlite"
  dsn: "/path/to/recent.db"
  quota_bytes: 5242880
telemetry:
  path: "/var/log/vitals.ndjson"
  nats_url: "nats://localhost:4222"
log:
  level: debug
  development: true
`)

	cfg, err := LoadConfigFile()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "secret", cfg.NewsAPI.Key)
	assert.Equal(t, "golang", cfg.NewsAPI.Query)
	assert.Equal(t, 50, cfg.NewsAPI.PageSize)
	assert.Equal(t, UpstreamRSS, cfg.Upstream.Type)
	assert.Len(t, cfg.Upstream.Feeds["en"], 2)
	assert.Equal(t, StorageSQLite, cfg.Storage.Type)
	assert.Equal(t, "/path/to/recent.db", cfg.Storage.DSN)
	assert.Equal(t, 5242880, cfg.Storage.QuotaBytes)
	assert.Equal(t, "/var/log/vitals.ndjson", cfg.Telemetry.Path)
	assert.Equal(t, "nats://localhost:4222", cfg.Telemetry.NATSURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFile_PartialConfigKeepsDefaults(t *testing.T) {
	setupTestHome(t, `storage:
  type: "postgres"
  dsn: "postgres://localhost/db"
`)

	cfg, err := LoadConfigFile()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, StoragePostgres, cfg.Storage.Type)
	assert.Equal(t, "technews:", cfg.Storage.Prefix, "unspecified fields keep their defaults")
	assert.Equal(t, "localhost:3000", cfg.Listen)
	assert.Equal(t, "tecnologia", cfg.NewsAPI.Query)
	assert.Equal(t, 100, cfg.NewsAPI.PageSize)
}

func TestLoadConfigFile_InvalidYAML(t *testing.T) {
	setupTestHome(t, `storage:
  - this is invalid because storage should be an object not a list
`)

	cfg, err := LoadConfigFile()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TECHNEWS_TEST_VALUE", "set")
	assert.Equal(t, "set", getEnv("TECHNEWS_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", getEnv("TECHNEWS_TEST_UNSET", "fallback"))
}
