// Package config defines service configuration and its loading.
package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// DevAPIKey is the placeholder key shipped for local use. It is refused
// outside debug mode.
const DevAPIKey = "dev-key-change-me-in-production"

// Model kinds.
const (
	ModelLocal  = "local"
	ModelRemote = "remote"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr       string `koanf:"addr"`
	APIVersion string `koanf:"api_version"`
	// Debug disables API-key auth and rate limits.
	Debug  bool   `koanf:"debug"`
	APIKey string `koanf:"api_key"`

	CORSOrigins        []string `koanf:"cors_origins"`
	RateLimitDefault   int      `koanf:"rate_limit_default"`
	RateLimitPredict   int      `koanf:"rate_limit_predict"`
	RateLimitBatch     int      `koanf:"rate_limit_batch"`
	RateLimitWindowSec int      `koanf:"rate_limit_window_sec"`
	MaxBodyBytes       int64    `koanf:"max_body_bytes"`
	MaxUploadBytes     int64    `koanf:"max_upload_bytes"`
	MaxListLimit       int      `koanf:"max_list_limit"`
	ShutdownTimeoutMS  int      `koanf:"shutdown_timeout_ms"`

	// ModelKind selects a local artifact or a remote inference service.
	ModelKind              string `koanf:"model_kind"`
	ModelPath              string `koanf:"model_path"`
	ModelURL               string `koanf:"model_url"`
	ModelTimeoutMS         int    `koanf:"model_timeout_ms"`
	ModelBreakerFailures   uint32 `koanf:"model_breaker_failures"`
	ModelBreakerCooldownMS int    `koanf:"model_breaker_cooldown_ms"`

	// FeatureParamsFile optionally overrides the scaler statistics.
	FeatureParamsFile string `koanf:"feature_params_file"`
	// StrictCategories rejects values outside the training vocabularies.
	StrictCategories bool `koanf:"strict_categories"`

	LogQueueSize      int `koanf:"log_queue_size"`
	LogWorkerCount    int `koanf:"log_worker_count"`
	MemoryLogCapacity int `koanf:"memory_log_capacity"`

	// DatabaseURL enables the Postgres prediction log when set.
	DatabaseURL     string `koanf:"database_url"`
	DBMaxOpenConns  int    `koanf:"db_max_open_conns"`
	DBMaxIdleConns  int    `koanf:"db_max_idle_conns"`
	DBConnTimeoutMS int    `koanf:"db_conn_timeout_ms"`
	AutoMigrate     bool   `koanf:"auto_migrate"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":8000",
		APIVersion:             "3.3.0",
		APIKey:                 DevAPIKey,
		CORSOrigins:            []string{"*"},
		RateLimitDefault:       100,
		RateLimitPredict:       20,
		RateLimitBatch:         5,
		RateLimitWindowSec:     60,
		MaxBodyBytes:           1 << 20,
		MaxUploadBytes:         32 << 20,
		MaxListLimit:           1000,
		ShutdownTimeoutMS:      15_000,
		ModelKind:              ModelLocal,
		ModelPath:              "model/model.json",
		ModelTimeoutMS:         10_000,
		ModelBreakerFailures:   5,
		ModelBreakerCooldownMS: 30_000,
		LogQueueSize:           10_000,
		LogWorkerCount:         2,
		MemoryLogCapacity:      10_000,
		DBMaxOpenConns:         10,
		DBMaxIdleConns:         5,
		DBConnTimeoutMS:        5_000,
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	if c.Addr == "" {
		add("addr must not be empty")
	}
	if !slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, strings.ToLower(c.LogLevel)) {
		add("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		add("log_format %q is not text or json", c.LogFormat)
	}
	if !c.Debug && (c.APIKey == "" || c.APIKey == DevAPIKey) {
		add("api_key must be set to a non-default value outside debug mode")
	}
	switch c.ModelKind {
	case ModelLocal:
		if c.ModelPath == "" {
			add("model_path is required for a local model")
		}
	case ModelRemote:
		if u, err := url.Parse(c.ModelURL); err != nil || u.Scheme == "" || u.Host == "" {
			add("model_url %q is not an absolute URL", c.ModelURL)
		}
	default:
		add("model_kind %q is not local or remote", c.ModelKind)
	}
	for name, v := range map[string]int{
		"rate_limit_window_sec": c.RateLimitWindowSec,
		"max_list_limit":        c.MaxListLimit,
		"model_timeout_ms":      c.ModelTimeoutMS,
		"log_queue_size":        c.LogQueueSize,
		"log_worker_count":      c.LogWorkerCount,
		"memory_log_capacity":   c.MemoryLogCapacity,
		"shutdown_timeout_ms":   c.ShutdownTimeoutMS,
	} {
		if v <= 0 {
			add("%s must be positive", name)
		}
	}
	if c.MaxBodyBytes <= 0 || c.MaxUploadBytes <= 0 {
		add("max_body_bytes and max_upload_bytes must be positive")
	}
	if c.AutoMigrate && c.DatabaseURL == "" {
		add("auto_migrate requires database_url")
	}

	if len(problems) == 0 {
		return nil
	}
	slices.Sort(problems)
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}

// RateLimitWindow returns the rate-limit window.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSec) * time.Second
}

// ModelTimeout returns the remote inference timeout.
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.ModelTimeoutMS) * time.Millisecond
}

// ModelBreakerCooldown returns how long the breaker stays open.
func (c *Config) ModelBreakerCooldown() time.Duration {
	return time.Duration(c.ModelBreakerCooldownMS) * time.Millisecond
}

// DBConnTimeout returns the database ping timeout.
func (c *Config) DBConnTimeout() time.Duration {
	return time.Duration(c.DBConnTimeoutMS) * time.Millisecond
}

// ShutdownTimeout bounds graceful shutdown.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}
