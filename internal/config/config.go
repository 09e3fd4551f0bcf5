// Package config manages application configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"ytanalyzer/internal/credpool"
	"ytanalyzer/internal/diagnose"
	"ytanalyzer/internal/enumerate"
	"ytanalyzer/internal/filter"
)

// AppName names the config directory and file.
const AppName = "ytanalyzer"

// Config holds all application configuration.
type Config struct {
	// Credentials
	CredentialsPath string   `json:"credentials_path" yaml:"credentials_path"`
	APIKeys         []string `json:"api_keys,omitempty" yaml:"api_keys"`

	// Call pacing
	CallInterval   time.Duration `json:"call_interval" yaml:"call_interval"`
	BulkInterval   time.Duration `json:"bulk_interval" yaml:"bulk_interval"`
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`

	LogLevel   string `json:"log_level" yaml:"log_level"`
	SessionDir string `json:"session_dir" yaml:"session_dir"`

	// MemoSize bounds each of the duration and keyword memo tables.
	MemoSize int `json:"memo_size" yaml:"memo_size"`
	// ProgressBuffer is the number of progress events queued for a slow
	// consumer before events are dropped.
	ProgressBuffer int `json:"progress_buffer" yaml:"progress_buffer"`

	Tuning     enumerate.Tuning    `json:"tuning" yaml:"tuning"`
	Thresholds diagnose.Thresholds `json:"thresholds" yaml:"thresholds"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	dir := configDir()
	return &Config{
		CredentialsPath: filepath.Join(dir, "credentials.json"),
		CallInterval:    credpool.DefaultInterval,
		BulkInterval:    credpool.DefaultBulkInterval,
		RequestTimeout:  30 * time.Second,
		LogLevel:        "info",
		SessionDir:      filepath.Join(dir, "sessions"),
		MemoSize:        filter.DefaultMemoSize,
		ProgressBuffer:  64,
		Tuning:          enumerate.DefaultTuning(),
		Thresholds:      diagnose.DefaultThresholds(),
	}
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "." + AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// Load loads configuration from the config file and environment variables
// on top of the defaults. Priority: env vars > config file > defaults.
// An explicit path must exist; otherwise the standard locations are searched
// and a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	} else if err := cfg.loadFromFile(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load config file: %w", err)
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// searchPaths lists the candidate config files in lookup order.
func searchPaths() []string {
	var paths []string
	for _, dir := range []string{".", configDir()} {
		for _, ext := range []string{".json", ".yaml", ".yml"} {
			paths = append(paths, filepath.Join(dir, AppName+ext))
		}
	}
	return paths
}

// loadFromFile loads the first config file found in the standard locations.
func (c *Config) loadFromFile() error {
	for _, path := range searchPaths() {
		err := c.loadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		return err
	}
	return os.ErrNotExist
}

// loadFile decodes path as YAML or JSON, chosen by extension.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// loadFromEnv overrides config with environment variables. Malformed
// durations are reported rather than ignored.
func (c *Config) loadFromEnv() error {
	if v := os.Getenv("YTANALYZER_CREDENTIALS"); v != "" {
		c.CredentialsPath = v
	}
	if v := os.Getenv("YTANALYZER_API_KEYS"); v != "" {
		c.APIKeys = nil
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				c.APIKeys = append(c.APIKeys, k)
			}
		}
	}
	if v := os.Getenv("YTANALYZER_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("YTANALYZER_SESSION_DIR"); v != "" {
		c.SessionDir = v
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"YTANALYZER_CALL_INTERVAL", &c.CallInterval},
		{"YTANALYZER_BULK_INTERVAL", &c.BulkInterval},
		{"YTANALYZER_ROTATION_PAUSE", &c.Tuning.RotationPause},
		{"YTANALYZER_REQUEST_TIMEOUT", &c.RequestTimeout},
	}
	for _, d := range durations {
		v := os.Getenv(d.name)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = parsed
	}
	return nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.CredentialsPath == "" {
		return fmt.Errorf("credentials_path must be set")
	}
	if c.SessionDir == "" {
		return fmt.Errorf("session_dir must be set")
	}
	if c.CallInterval <= 0 {
		return fmt.Errorf("call_interval must be positive")
	}
	if c.BulkInterval <= 0 {
		return fmt.Errorf("bulk_interval must be positive")
	}
	if c.BulkInterval > c.CallInterval {
		return fmt.Errorf("bulk_interval must be <= call_interval")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.MemoSize <= 0 {
		return fmt.Errorf("memo_size must be positive")
	}
	if c.ProgressBuffer < 0 {
		return fmt.Errorf("progress_buffer must be non-negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if err := c.Tuning.Validate(); err != nil {
		return fmt.Errorf("tuning: %w", err)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel)))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("log_level: %w", err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return lvl, nil
}
