package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// EndpointConfig holds the base URL for a single notification stream.
type EndpointConfig struct {
	// Type identifies the stream kind ("task", "leave", "shift", "salary").
	Type string `mapstructure:"type" yaml:"type"`

	// BaseURL is the root URL of the service owning this stream.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Enabled controls whether this stream is polled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// EngineConfig is the top-level configuration for the notification
// synchronization engine.
type EngineConfig struct {
	Endpoints []EndpointConfig `mapstructure:"endpoints" yaml:"endpoints"`

	// PollIntervalSec is the fixed refresh interval while the engine is
	// active. Zero means purely event-driven (no interval loop).
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// MinFetchIntervalSec throttles non-manual refreshes: calls within
	// this window of the previous completed fetch are no-ops.
	MinFetchIntervalSec int `mapstructure:"min_fetch_interval_sec" yaml:"min_fetch_interval_sec"`

	// RetryBackoffSec is the delay before the single retry scheduled
	// after a failed (non-auth) refresh.
	RetryBackoffSec int `mapstructure:"retry_backoff_sec" yaml:"retry_backoff_sec"`

	// IdleTimeoutMin stops background polling after this many minutes
	// without user activity.
	IdleTimeoutMin int `mapstructure:"idle_timeout_min" yaml:"idle_timeout_min"`

	// DismissedCapacity bounds the persisted dismissed-id set; the
	// oldest entries are evicted first.
	DismissedCapacity int `mapstructure:"dismissed_capacity" yaml:"dismissed_capacity"`

	// FilterSelf drops notifications whose requester is the current
	// user, so users are not notified of their own actions.
	FilterSelf bool `mapstructure:"filter_self" yaml:"filter_self"`
}

// PollInterval returns the configured fixed refresh interval, or zero
// when the engine should remain purely event-driven.
func (c *EngineConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// MinFetchInterval returns the throttle window for non-manual refreshes.
func (c *EngineConfig) MinFetchInterval() time.Duration {
	return time.Duration(c.MinFetchIntervalSec) * time.Second
}

// RetryBackoff returns the delay before the post-failure retry.
func (c *EngineConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffSec) * time.Second
}

// IdleTimeout returns the inactivity window after which polling stops.
func (c *EngineConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMin) * time.Minute
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/peopledesk/notify.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "notify.yaml")
	}
	return filepath.Join(home, ".config", "peopledesk", "notify.yaml")
}

// defaultEngineConfig returns a sensible default configuration.
func defaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Endpoints:           []EndpointConfig{},
		PollIntervalSec:     0,
		MinFetchIntervalSec: 30,
		RetryBackoffSec:     10,
		IdleTimeoutMin:      10,
		DismissedCapacity:   1000,
		FilterSelf:          true,
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*EngineConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("min_fetch_interval_sec", 30)
	v.SetDefault("retry_backoff_sec", 10)
	v.SetDefault("idle_timeout_min", 10)
	v.SetDefault("dismissed_capacity", 1000)
	v.SetDefault("filter_self", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultEngineConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultEngineConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultEngineConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Apply defaults for each endpoint entry.
	for i := range cfg.Endpoints {
		if !cfg.Endpoints[i].Enabled {
			// Viper unmarshals missing bools as false; treat unset as true.
			// We use the raw viper value to distinguish explicit false from absent.
			key := fmt.Sprintf("endpoints.%d.enabled", i)
			if !v.IsSet(key) {
				cfg.Endpoints[i].Enabled = true
			}
		}
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *EngineConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("endpoints", cfg.Endpoints)
	v.Set("poll_interval_sec", cfg.PollIntervalSec)
	v.Set("min_fetch_interval_sec", cfg.MinFetchIntervalSec)
	v.Set("retry_backoff_sec", cfg.RetryBackoffSec)
	v.Set("idle_timeout_min", cfg.IdleTimeoutMin)
	v.Set("dismissed_capacity", cfg.DismissedCapacity)
	v.Set("filter_self", cfg.FilterSelf)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
