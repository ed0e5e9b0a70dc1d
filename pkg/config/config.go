// Package config loads concierge settings from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/concierge/pkg/llm/openai"
)

const (
	defaultMaxRounds        = 8
	defaultEventConcurrency = 1
)

// Environment variables recognized as overrides. The OPENAI_* fallbacks
// match what the provider layer reads, so a bare environment with only an
// OpenAI key set works without a config file.
const (
	EnvAPIKey           = "CONCIERGE_API_KEY"
	EnvAPIKeyFallback   = "OPENAI_API_KEY"
	EnvModel            = "CONCIERGE_MODEL"
	EnvBaseURL          = "CONCIERGE_BASE_URL"
	EnvBaseURLFallback  = "OPENAI_BASE_URL"
	EnvMaxRounds        = "CONCIERGE_MAX_ROUNDS"
	EnvEventConcurrency = "CONCIERGE_EVENT_CONCURRENCY"
)

// Config holds every tunable of a concierge session.
type Config struct {
	// Model is the collaborator model for all provider calls.
	Model string `yaml:"model"`

	// BaseURL overrides the OpenAI-compatible endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates against the provider. Left empty, the
	// provider layer falls back to its own environment lookup.
	APIKey string `yaml:"api_key"`

	// MaxRounds caps the interview loop.
	MaxRounds int `yaml:"max_rounds"`

	// EventConcurrency bounds parallel event extraction.
	EventConcurrency int `yaml:"event_concurrency"`

	// EventTypeFilter, when set, is a glob pattern restricting which
	// event types are learned from.
	EventTypeFilter string `yaml:"event_type_filter"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Model:            openai.DefaultModel,
		MaxRounds:        defaultMaxRounds,
		EventConcurrency: defaultEventConcurrency,
	}
}

// DefaultPath returns the conventional config file location,
// ~/.concierge/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".concierge", "config.yaml"), nil
}

// Load builds a configuration from defaults, an optional YAML file, and
// environment overrides, in that precedence order. An explicit path must
// exist; the conventional default path is used only when present.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		defaultPath, err := DefaultPath()
		if err == nil {
			if _, statErr := os.Stat(defaultPath); statErr == nil {
				path = defaultPath
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the config.
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvModel); v != "" {
		c.Model = v
	}
	if v := firstEnv(EnvBaseURL, EnvBaseURLFallback); v != "" {
		c.BaseURL = v
	}
	if v := firstEnv(EnvAPIKey, EnvAPIKeyFallback); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvMaxRounds); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid %s value %q: %w", EnvMaxRounds, v, err)
		}
		c.MaxRounds = n
	}
	if v := os.Getenv(EnvEventConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid %s value %q: %w", EnvEventConcurrency, v, err)
		}
		c.EventConcurrency = n
	}
	return nil
}

// Validate checks the configuration for values that would break a session.
// The API key is deliberately not required here; key validation happens at
// the first provider call.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("config: model must not be empty")
	}
	if c.MaxRounds < 1 {
		return fmt.Errorf("config: max_rounds must be at least 1, got %d", c.MaxRounds)
	}
	if c.EventConcurrency < 1 {
		return fmt.Errorf("config: event_concurrency must be at least 1, got %d", c.EventConcurrency)
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
