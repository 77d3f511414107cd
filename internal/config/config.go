// Package config defines service configuration and its loading.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir holds one or more table files per category.
	DataDir string `koanf:"data_dir"`

	// FilePattern is the glob used to find a category's files; {category} is
	// replaced by the category name.
	FilePattern string `koanf:"file_pattern"`

	// Categories are loaded at start. Others load on first use.
	Categories []string `koanf:"categories"`

	// NeighborhoodRadius is the number of rows shown either side of a match.
	NeighborhoodRadius int `koanf:"neighborhood_radius"`

	// RejectNonMonotonic fails a table load when any column is out of order.
	RejectNonMonotonic bool `koanf:"reject_non_monotonic"`

	// MaxUploadBytes caps POST /v1/clean bodies.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// RateLimitRPS and RateLimitBurst bound API request rates; 0 disables.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// OutputTimezone dates the files written by the batch cleaner.
	OutputTimezone string `koanf:"output_timezone"`

	// MetricsEnabled exposes metrics on /healthz.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace prefixes every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// MetricsRefreshInterval is how often system gauges are sampled.
	MetricsRefreshInterval time.Duration `koanf:"metrics_refresh_interval"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		DataDir:            "data",
		FilePattern:        "{category}_*",
		Categories:         nil,
		NeighborhoodRadius: 3,
		RejectNonMonotonic: false,
		MaxUploadBytes:     10 << 20,
		RateLimitRPS:       100,
		RateLimitBurst:     200,
		OutputTimezone:     "Asia/Tokyo",

		MetricsEnabled:         true,
		MetricsNamespace:       "scoretable",
		MetricsRefreshInterval: 10 * time.Second,
	}
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DataDir) == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case c.NeighborhoodRadius < 0:
		return fmt.Errorf("%w: neighborhood_radius must be >= 0", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be > 0", ErrInvalidConfig)
	case c.RateLimitRPS < 0 || c.RateLimitBurst < 0:
		return fmt.Errorf("%w: rate limits must be >= 0", ErrInvalidConfig)
	case c.MetricsRefreshInterval <= 0:
		return fmt.Errorf("%w: metrics_refresh_interval must be > 0", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	return nil
}
