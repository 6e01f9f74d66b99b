package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 12, config.Pagination.PageSize)
	assert.Equal(t, time.Second, config.Download.Delay)
	assert.Equal(t, 1, config.Download.Workers)
	assert.Equal(t, "markers", config.Extraction.Strategy)
	assert.Equal(t, `"user":{`, config.Extraction.Profile.Start)
	assert.True(t, config.Extraction.Profile.Wrap)
	assert.False(t, config.Extraction.Timeline.Wrap)
	assert.NoError(t, config.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IGARCHIVER_SESSION_ID", "test-session-id")
	t.Setenv("IGARCHIVER_OUTPUT_DIR", "/tmp/archive")
	t.Setenv("IGARCHIVER_DOWNLOAD_DELAY", "250ms")
	t.Setenv("IGARCHIVER_PAGE_SIZE", "24")
	t.Setenv("IGARCHIVER_LOG_LEVEL", "DEBUG")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "test-session-id", config.Instagram.SessionID)
	assert.Equal(t, "/tmp/archive", config.Output.BaseDirectory)
	assert.Equal(t, 250*time.Millisecond, config.Download.Delay)
	assert.Equal(t, 24, config.Pagination.PageSize)
	assert.Equal(t, "debug", config.Logging.Level)

	// untouched values keep their defaults
	assert.Equal(t, "markers", config.Extraction.Strategy)
	assert.Equal(t, 3, config.Retry.MaxAttempts)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
extraction:
  strategy: script
  profile:
    start: '"owner":{'
    end: ',"next_sibling"'
    wrap: true
pagination:
  page_size: 50
download:
  delay: 0s
  workers: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, "script", config.Extraction.Strategy)
	assert.Equal(t, `"owner":{`, config.Extraction.Profile.Start)
	assert.Equal(t, `,"next_sibling"`, config.Extraction.Profile.End)
	assert.Equal(t, 50, config.Pagination.PageSize)
	assert.Equal(t, time.Duration(0), config.Download.Delay)
	assert.Equal(t, 4, config.Download.Workers)
	// timeline markers were not in the file
	assert.Equal(t, `,"edge_saved_media"`, config.Extraction.Timeline.End)
	assert.NoError(t, config.Validate())
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	err := config.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero delay is allowed", func(c *Config) { c.Download.Delay = 0 }, false},
		{"negative delay", func(c *Config) { c.Download.Delay = -time.Second }, true},
		{"unknown strategy", func(c *Config) { c.Extraction.Strategy = "regex" }, true},
		{"missing profile marker", func(c *Config) { c.Extraction.Profile.Start = "" }, true},
		{"identical timeline markers", func(c *Config) { c.Extraction.Timeline.End = c.Extraction.Timeline.Start }, true},
		{"page size too large", func(c *Config) { c.Pagination.PageSize = 100 }, true},
		{"too many workers", func(c *Config) { c.Download.Workers = 15 }, true},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"bad base url", func(c *Config) { c.Instagram.BaseURL = "not a url" }, true},
		{"retry delays inverted", func(c *Config) { c.Retry.MaxDelay = time.Millisecond }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"output":    "/data",
		"delay":     time.Duration(0),
		"workers":   3,
		"max-pages": 2,
		"log-level": "WARN",
		"overwrite": true,
	})

	assert.Equal(t, "/data", config.Output.BaseDirectory)
	assert.Equal(t, time.Duration(0), config.Download.Delay)
	assert.Equal(t, 3, config.Download.Workers)
	assert.Equal(t, 2, config.Pagination.MaxPages)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.True(t, config.Download.OverwriteExisting)
}

func TestLoadPrecedence(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(home, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  base_directory: /from-file\nlogging:\n  level: warn\n"), 0644))
	t.Setenv("IGARCHIVER_OUTPUT_DIR", "/from-env")

	config, err := Load(path, map[string]interface{}{"log-level": "error"})
	require.NoError(t, err)

	assert.Equal(t, "/from-env", config.Output.BaseDirectory)
	assert.Equal(t, "error", config.Logging.Level)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	config := DefaultConfig()
	config.Output.BaseDirectory = "/archive"
	require.NoError(t, config.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "/archive", loaded.Output.BaseDirectory)
	assert.Equal(t, config.Extraction, loaded.Extraction)
}
