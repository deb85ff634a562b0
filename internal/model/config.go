package model

import (
	"fmt"
	"strings"
	"time"
)

// Config is the complete cliniprov configuration
type Config struct {
	Linking     LinkingConfig     `yaml:"linking" mapstructure:"linking"`
	Risk        RiskConfig        `yaml:"risk" mapstructure:"risk"`
	Taxonomy    TaxonomyConfig    `yaml:"taxonomy" mapstructure:"taxonomy"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// LinkingConfig controls source anchor linking
type LinkingConfig struct {
	// ProximityWindow is the maximum distance in bytes between a value and an
	// anchor occurrence for the anchor to be attached.
	ProximityWindow int `yaml:"proximity_window" mapstructure:"proximity_window"`
}

// RiskConfig holds the ascending score thresholds for risk levels.
// Any positive score below High is moderate.
type RiskConfig struct {
	High     float64 `yaml:"high" mapstructure:"high"`
	VeryHigh float64 `yaml:"very_high" mapstructure:"very_high"`
}

// TaxonomyConfig selects the concept taxonomy
type TaxonomyConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // Optional YAML override; empty = built-in
}

// CacheConfig controls the analysis cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir" mapstructure:"disk_dir"` // Empty = memory only
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Host           string        `yaml:"host" mapstructure:"host"`
	Port           int           `yaml:"port" mapstructure:"port"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	ClientLimits   []ClientLimit `yaml:"client_limits,omitempty" mapstructure:"client_limits"`
}

// ClientLimit overrides the rate limit for one client IP. A zero rate
// exempts the client.
type ClientLimit struct {
	Client         string  `yaml:"client" mapstructure:"client"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst,omitempty" mapstructure:"rate_limit_burst"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Linking: LinkingConfig{
			ProximityWindow: 200,
		},
		Risk: RiskConfig{
			High:     3,
			VeryHigh: 6,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Server: ServerConfig{
			Host:           "localhost",
			Port:           8085,
			MaxBodyBytes:   1 << 20,
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Linking.ProximityWindow < 0 {
		return fmt.Errorf("linking.proximity_window must not be negative, got %d", c.Linking.ProximityWindow)
	}
	if c.Risk.High <= 0 {
		return fmt.Errorf("risk.high must be positive, got %v", c.Risk.High)
	}
	if c.Risk.VeryHigh <= c.Risk.High {
		return fmt.Errorf("risk.very_high (%v) must be greater than risk.high (%v)", c.Risk.VeryHigh, c.Risk.High)
	}
	if c.Concurrency.Workers < 0 {
		return fmt.Errorf("concurrency.workers must not be negative, got %d", c.Concurrency.Workers)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	for i, cl := range c.Server.ClientLimits {
		if strings.TrimSpace(cl.Client) == "" {
			return fmt.Errorf("server.client_limits[%d].client is required", i)
		}
		if cl.RateLimitRPS < 0 {
			return fmt.Errorf("server.client_limits[%d].rate_limit_rps must not be negative, got %v", i, cl.RateLimitRPS)
		}
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be \"json\" or \"console\", got %q", c.Log.Format)
	}
	return nil
}
