// Package config holds satchel's configuration: the portal identity, the
// debug toggle, and the ambient knobs (logging, bus, timeouts). Values come
// from an optional YAML file with environment overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values exported for documentation and validation
const (
	DefaultNavTimeout   = 30 * time.Second
	DefaultLoadTimeout  = 10 * time.Second
	DefaultFetchTimeout = 15 * time.Second
	DefaultLogLevel     = "INFO"
)

// Config represents the complete satchel configuration.
type Config struct {
	Identity IdentityConfig `yaml:"identity"`
	Portal   PortalConfig   `yaml:"portal"`
	Debug    bool           `yaml:"debug"`
	Logging  LoggingConfig  `yaml:"logging"`
	Bus      BusConfig      `yaml:"bus"`
}

// IdentityConfig is the portal account satchel signs in with.
type IdentityConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// PortalConfig locates the portal and bounds its I/O waits.
type PortalConfig struct {
	// BaseURL is the portal root, e.g. "https://learn.example.edu".
	BaseURL string `yaml:"base_url"`

	// NavTimeout bounds a single navigation.
	NavTimeout time.Duration `yaml:"nav_timeout"`

	// LoadTimeout bounds waits for page elements; expiry is a recoverable
	// condition, not a fatal error.
	LoadTimeout time.Duration `yaml:"load_timeout"`

	// FetchTimeout bounds a raw API fetch.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	// Dir is the log directory; empty disables file logging.
	Dir string `yaml:"dir"`

	// Level is the minimum level: DEBUG, INFO, WARN, or ERROR.
	Level string `yaml:"level"`
}

// BusConfig selects the notification transport.
type BusConfig struct {
	// NATSURL switches the bus to NATS when non-empty; the in-memory bus
	// is used otherwise.
	NATSURL string `yaml:"nats_url"`
}

// DefaultConfig returns a Config with sensible defaults. Identity and the
// portal base URL have no defaults and must be supplied.
func DefaultConfig() *Config {
	return &Config{
		Portal: PortalConfig{
			NavTimeout:   DefaultNavTimeout,
			LoadTimeout:  DefaultLoadTimeout,
			FetchTimeout: DefaultFetchTimeout,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load reads configuration from an optional YAML file, then applies
// environment overrides and fills unset durations with defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SATCHEL_USERNAME"); v != "" {
		c.Identity.Username = v
	}
	if v := os.Getenv("SATCHEL_PASSWORD"); v != "" {
		c.Identity.Password = v
	}
	if v := os.Getenv("SATCHEL_PORTAL_URL"); v != "" {
		c.Portal.BaseURL = v
	}
	if v := os.Getenv("SATCHEL_NATS_URL"); v != "" {
		c.Bus.NATSURL = v
	}
	if v := os.Getenv("SATCHEL_LOG_DIR"); v != "" {
		c.Logging.Dir = v
	}
	if v := os.Getenv("SATCHEL_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToUpper(v)
	}
	if v := os.Getenv("SATCHEL_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
}

func (c *Config) fillDefaults() {
	if c.Portal.NavTimeout <= 0 {
		c.Portal.NavTimeout = DefaultNavTimeout
	}
	if c.Portal.LoadTimeout <= 0 {
		c.Portal.LoadTimeout = DefaultLoadTimeout
	}
	if c.Portal.FetchTimeout <= 0 {
		c.Portal.FetchTimeout = DefaultFetchTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Identity.Username) == "" {
		return fmt.Errorf("identity.username is required")
	}
	if c.Identity.Password == "" {
		return fmt.Errorf("identity.password is required")
	}
	if strings.TrimSpace(c.Portal.BaseURL) == "" {
		return fmt.Errorf("portal.base_url is required")
	}
	switch c.Logging.Level {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("logging.level must be one of DEBUG, INFO, WARN, ERROR (got %q)", c.Logging.Level)
	}
	return nil
}
