package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"YTANALYZER_CREDENTIALS",
	"YTANALYZER_API_KEYS",
	"YTANALYZER_CALL_INTERVAL",
	"YTANALYZER_BULK_INTERVAL",
	"YTANALYZER_ROTATION_PAUSE",
	"YTANALYZER_REQUEST_TIMEOUT",
	"YTANALYZER_LOG_LEVEL",
	"YTANALYZER_SESSION_DIR",
}

// isolate points HOME and the working directory at empty temp dirs and
// clears the YTANALYZER_ variables. It returns the working directory.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, name := range envVars {
		t.Setenv(name, "")
	}
	wd := t.TempDir()
	t.Chdir(wd)
	return wd
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefaultConfig(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 100*time.Millisecond, cfg.CallInterval)
	assert.Equal(t, 50*time.Millisecond, cfg.BulkInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "credentials.json", filepath.Base(cfg.CredentialsPath))
	assert.Equal(t, "sessions", filepath.Base(cfg.SessionDir))
	assert.Equal(t, 500, cfg.Tuning.CompleteListingPages)
	assert.Equal(t, 2010, cfg.Thresholds.EarlyYear)
	assert.Empty(t, cfg.APIKeys)
}

func TestLoadYAMLFromWorkingDir(t *testing.T) {
	wd := isolate(t)
	writeFile(t, filepath.Join(wd, "ytanalyzer.yaml"), `
api_keys: [k1, k2]
call_interval: 250ms
log_level: debug
tuning:
  fast_listing_pages: 10
  rotation_pause: 1s
thresholds:
  early_year: 2012
`)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"k1", "k2"}, cfg.APIKeys)
	assert.Equal(t, 250*time.Millisecond, cfg.CallInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 10, cfg.Tuning.FastListingPages)
	assert.Equal(t, time.Second, cfg.Tuning.RotationPause)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, 60, cfg.Tuning.SmartMediumListingPages)
	assert.Equal(t, 2012, cfg.Thresholds.EarlyYear)
	assert.Equal(t, 0.5, cfg.Thresholds.MissingRatio)
}

func TestLoadJSONFromHome(t *testing.T) {
	isolate(t)
	home := os.Getenv("HOME")
	writeFile(t, filepath.Join(home, ".config", "ytanalyzer", "ytanalyzer.json"),
		`{"session_dir": "/tmp/sessions", "memo_size": 42}`)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/sessions", cfg.SessionDir)
	assert.Equal(t, 42, cfg.MemoSize)
}

func TestLoadExplicitPath(t *testing.T) {
	wd := isolate(t)

	_, err := Load(filepath.Join(wd, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(wd, "custom.json")
	writeFile(t, path, `{"log_level": "warn"}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)

	writeFile(t, path, `{"log_level": `)
	_, err = Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	wd := isolate(t)
	writeFile(t, filepath.Join(wd, "ytanalyzer.json"), `{"api_keys": ["file-key"], "log_level": "debug"}`)

	t.Setenv("YTANALYZER_API_KEYS", " env-a, ,env-b ")
	t.Setenv("YTANALYZER_CREDENTIALS", "/etc/creds.json")
	t.Setenv("YTANALYZER_CALL_INTERVAL", "1s")
	t.Setenv("YTANALYZER_BULK_INTERVAL", "500ms")
	t.Setenv("YTANALYZER_ROTATION_PAUSE", "0s")
	t.Setenv("YTANALYZER_REQUEST_TIMEOUT", "5s")
	t.Setenv("YTANALYZER_LOG_LEVEL", "error")
	t.Setenv("YTANALYZER_SESSION_DIR", "/var/sessions")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"env-a", "env-b"}, cfg.APIKeys)
	assert.Equal(t, "/etc/creds.json", cfg.CredentialsPath)
	assert.Equal(t, time.Second, cfg.CallInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.BulkInterval)
	assert.Equal(t, time.Duration(0), cfg.Tuning.RotationPause)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "/var/sessions", cfg.SessionDir)
}

func TestEnvRejectsBadDuration(t *testing.T) {
	isolate(t)
	t.Setenv("YTANALYZER_CALL_INTERVAL", "fast")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YTANALYZER_CALL_INTERVAL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty credentials path", func(c *Config) { c.CredentialsPath = "" }},
		{"empty session dir", func(c *Config) { c.SessionDir = "" }},
		{"zero call interval", func(c *Config) { c.CallInterval = 0 }},
		{"bulk slower than normal", func(c *Config) { c.BulkInterval = time.Second }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"zero memo", func(c *Config) { c.MemoSize = 0 }},
		{"negative buffer", func(c *Config) { c.ProgressBuffer = -1 }},
		{"unknown level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad tuning", func(c *Config) { c.Tuning.FastListingPages = 0 }},
		{"bad thresholds", func(c *Config) { c.Thresholds.MissingRatio = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			require.NoError(t, cfg.Validate())
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLevel(t *testing.T) {
	cfg := DefaultConfig()

	cfg.LogLevel = "DEBUG"
	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, lvl)

	cfg.LogLevel = ""
	lvl, err = cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)
}
