// Package config handles reading and writing ~/.rvdesk/config.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/llm"
	"gopkg.in/yaml.v3"
)

const (
	configDir  = ".rvdesk"
	configFile = "config.yaml"
	dbFile     = "rvdesk.db"
)

// Config is the top-level structure for config.yaml.
type Config struct {
	DBPath    string    `yaml:"db_path"`
	LogLevel  string    `yaml:"log_level"`  // debug | info | warn | error
	LogFormat string    `yaml:"log_format"` // text | json
	LLM       LLMConfig `yaml:"llm"`
}

// LLMConfig is the file form of llm.LLMConfig. Zero values keep the
// defaults.
type LLMConfig struct {
	Enabled    *bool                           `yaml:"enabled"`
	LogCalls   *bool                           `yaml:"log_calls"`
	Endpoint   string                          `yaml:"endpoint"`
	Model      string                          `yaml:"model"`
	TimeoutMs  int                             `yaml:"timeout_ms"`
	MaxRetries *int                            `yaml:"max_retries"`
	Tasks      map[llm.TaskType]llm.TaskConfig `yaml:"tasks"`
}

// DefaultDir returns ~/.rvdesk.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configDir
	}
	return filepath.Join(home, configDir)
}

// Path returns the config file location, honoring RVDESK_CONFIG.
func Path() string {
	if p := os.Getenv("RVDESK_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(DefaultDir(), configFile)
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		DBPath:    filepath.Join(DefaultDir(), dbFile),
		LogLevel:  "warn",
		LogFormat: "text",
	}
}

// ReadConfig reads the YAML file at path over the defaults. A missing file
// is not an error.
func ReadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// WriteConfig writes cfg to path, creating parent directories.
func WriteConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Load reads the config file and applies RVDESK_* environment overrides.
func Load() (*Config, error) {
	cfg, err := ReadConfig(Path())
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("RVDESK_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("RVDESK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("RVDESK_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
}

// LLMSettings merges the file's llm section onto llm.DefaultConfig and then
// applies the RVDESK_LLM_* environment.
func (c *Config) LLMSettings() llm.LLMConfig {
	out := llm.DefaultConfig()
	f := c.LLM
	if f.Enabled != nil {
		out.Enabled = *f.Enabled
	}
	if f.LogCalls != nil {
		out.LogCalls = *f.LogCalls
	}
	if f.Endpoint != "" {
		out.Endpoint = f.Endpoint
	}
	if f.Model != "" {
		out.Model = f.Model
	}
	if f.TimeoutMs > 0 {
		out.TimeoutMs = f.TimeoutMs
	}
	if f.MaxRetries != nil && *f.MaxRetries >= 0 {
		out.MaxRetries = *f.MaxRetries
	}
	for task, tc := range f.Tasks {
		merged := out.Tasks[task]
		if tc.Temperature != 0 {
			merged.Temperature = tc.Temperature
		}
		if tc.MaxTokens > 0 {
			merged.MaxTokens = tc.MaxTokens
		}
		if tc.TimeoutMs > 0 {
			merged.TimeoutMs = tc.TimeoutMs
		}
		out.Tasks[task] = merged
	}
	llm.ApplyEnv(&out)
	return out
}

// Level parses LogLevel, falling back to warn.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// JSONLogs reports whether log_format selects the JSON handler.
func (c *Config) JSONLogs() bool {
	return strings.EqualFold(strings.TrimSpace(c.LogFormat), "json")
}
