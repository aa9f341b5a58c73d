package config

import (
	"time"
)

// Config represents the complete application configuration, layered as:
// Layer 1: embedded defaults (defaults.yaml)
// Layer 2: user overrides (~/.config/crosspost/config.yaml)
// Layer 3: environment variables and runtime overrides
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Preview   PreviewConfig   `mapstructure:"preview"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Visits    VisitsConfig    `mapstructure:"visits"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health"`
	Debug     DebugConfig     `mapstructure:"debug"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig selects the local database.
//
// Driver is "libsql" (default, cgo) or "sqlite" (pure Go). URL is only
// meaningful for libsql remotes.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// PreviewConfig tunes the link preview fetcher.
type PreviewConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// RateLimitConfig holds both limiter tiers.
type RateLimitConfig struct {
	// ServerPerMinute is the shared fixed-window cap for the HTTP endpoint.
	ServerPerMinute int `mapstructure:"server_per_minute"`
	// ClientPerMinute and LockoutMinutes drive the persisted CLI limiter.
	ClientPerMinute int `mapstructure:"client_per_minute"`
	LockoutMinutes  int `mapstructure:"lockout_minutes"`
}

// VisitsConfig configures the visit-logging sink.
type VisitsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Sink is one of: log, store, redis.
	Sink        string        `mapstructure:"sink"`
	PerSecond   float64       `mapstructure:"per_second"`
	Burst       int           `mapstructure:"burst"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RedisURL    string        `mapstructure:"redis_url"`
	RedisStream string        `mapstructure:"redis_stream"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED, ENTERPRISE
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DebugConfig contains debug and profiling configuration
type DebugConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}
