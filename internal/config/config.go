// Package config loads and validates sitewright.yaml.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	swerrors "git.home.luguber.info/inful/sitewright/internal/errors"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "sitewright.yaml"

// Config is the application configuration.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Plugins    []PluginSpec     `yaml:"plugins"`
	Output     OutputConfig     `yaml:"output"`
	Dev        DevConfig        `yaml:"dev"`
	EventStore EventStoreConfig `yaml:"eventstore"`
	Relay      RelayConfig      `yaml:"relay"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SiteConfig is the site identity passed through to hooks.
type SiteConfig struct {
	Title       string `yaml:"title"`
	BaseURL     string `yaml:"baseUrl"`
	Description string `yaml:"description,omitempty"`
}

// PluginSpec names one plugin to load, in load order, with its options.
type PluginSpec struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options,omitempty"`
}

// OutputConfig controls where and how the site is written.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	// Clean removes the output directory before each build.
	Clean bool `yaml:"clean"`
	// Verify checks internal links in the written output.
	Verify bool `yaml:"verify"`
}

// DevConfig controls the development server.
type DevConfig struct {
	Addr string `yaml:"addr"`
	// Watch lists directories watched for changes.
	Watch []string `yaml:"watch,omitempty"`
	// DebounceMS coalesces change events within a window (milliseconds).
	DebounceMS int `yaml:"debounceMs"`
}

// Debounce returns the watch debounce window.
func (d DevConfig) Debounce() time.Duration {
	return time.Duration(d.DebounceMS) * time.Millisecond
}

// EventStoreConfig controls the build event journal.
type EventStoreConfig struct {
	// Path is the SQLite database path; empty disables persistence.
	Path string `yaml:"path,omitempty"`
}

// RelayConfig controls the optional NATS build-event relay.
type RelayConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url,omitempty"`
	Subject  string `yaml:"subject,omitempty"`
	KVBucket string `yaml:"kvBucket,omitempty"`
}

// MetricsConfig controls Prometheus metrics exposure.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is one of text, json.
	Format string `yaml:"format"`
}

// Load reads, expands, parses, defaults, and validates a config file.
//
// A .env / .env.local file next to the working directory is loaded first
// (never overriding variables already set), then ${VAR} references in the
// YAML are expanded, so tokens stay out of the config file.
func Load(path string) (*Config, error) {
	// Missing .env files are the normal case.
	_ = godotenv.Load(".env", ".env.local")

	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, swerrors.ConfigNotFound(path)
		}
		return nil, swerrors.Wrap(err, swerrors.CategoryConfig, swerrors.SeverityFatal, "failed to read config file").
			WithContext("path", path)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, swerrors.Wrap(err, swerrors.CategoryConfig, swerrors.SeverityFatal, "failed to parse config file").
			WithContext("path", path)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = "SiteWright Site"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "./public"
	}
	if c.Dev.Addr == "" {
		c.Dev.Addr = ":8000"
	}
	if c.Dev.DebounceMS <= 0 {
		c.Dev.DebounceMS = 300
	}
	if c.Relay.Enabled {
		if c.Relay.Subject == "" {
			c.Relay.Subject = "sitewright.builds"
		}
		if c.Relay.KVBucket == "" {
			c.Relay.KVBucket = "sitewright-reports"
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks structural constraints after defaulting.
func (c *Config) Validate() error {
	// Load order is significant, so each plugin name may appear once.
	seen := make(map[string]struct{}, len(c.Plugins))
	for _, p := range c.Plugins {
		if p.Name == "" {
			return swerrors.ValidationFailed("plugins", "plugin entry without a name")
		}
		if _, dup := seen[p.Name]; dup {
			return swerrors.ValidationFailed("plugins", fmt.Sprintf("plugin %s listed twice", p.Name))
		}
		seen[p.Name] = struct{}{}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return swerrors.ValidationFailed("logging.level", "must be one of debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return swerrors.ValidationFailed("logging.format", "must be text or json")
	}

	if c.Relay.Enabled && c.Relay.URL == "" {
		return swerrors.ValidationFailed("relay.url", "required when the relay is enabled")
	}

	return nil
}
