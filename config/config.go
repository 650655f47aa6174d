// Package config loads TUNE Reporting SDK settings from a YAML file or the environment.
//
// Values of the form ${VAR} are expanded from the process environment before parsing,
// so credentials can stay out of the file:
//
//	auth_type: api_key
//	auth_key: ${TUNE_REPORTING_API_KEY}
//	export:
//	  status_sleep: 10s
//	  status_timeout: 4m
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFilename is the conventional name of the SDK configuration file.
const DefaultFilename = "tune_reporting.yaml"

// Environment variables read by FromEnv.
const (
	EnvAPIKey   = "TUNE_REPORTING_API_KEY"
	EnvAuthType = "TUNE_REPORTING_AUTH_TYPE"
	EnvBaseURL  = "TUNE_REPORTING_BASE_URL"
)

const (
	defaultAuthType      = "api_key"
	defaultBaseURL       = "https://api.mobileapptracking.com"
	defaultTimeout       = 30 * time.Second
	defaultStatusSleep   = 10 * time.Second
	defaultStatusTimeout = 240 * time.Second
	defaultMaxAttempts   = 3
	defaultBaseDelay     = 1 * time.Second
	defaultMaxDelay      = 30 * time.Second
)

// ErrInvalidConfig is wrapped by every error returned from Load.
var ErrInvalidConfig = errors.New("invalid SDK configuration")

// SDKConfig mirrors the YAML configuration file.
type SDKConfig struct {
	AuthType     string          `yaml:"auth_type"`
	AuthKey      string          `yaml:"auth_key"`
	BaseURL      string          `yaml:"base_url"`
	Timeout      time.Duration   `yaml:"timeout"`
	VerifyFields bool            `yaml:"verify_fields"`
	Export       ExportConfig    `yaml:"export"`
	Retry        RetryConfig     `yaml:"retry"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
	Log          LogConfig       `yaml:"log"`
}

// ExportConfig controls export status polling.
type ExportConfig struct {
	StatusSleep   time.Duration `yaml:"status_sleep"`
	StatusTimeout time.Duration `yaml:"status_timeout"`
}

// RetryConfig controls the retry policy of the shared HTTP helper.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// RateLimitConfig enables client-side throttling when RequestsPerSecond > 0.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// LogConfig selects the slog handler. Logging is off when Level is empty.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns a configuration with every default applied and no credentials.
func Default() *SDKConfig {
	cfg := &SDKConfig{}
	cfg.applyDefaults()
	return cfg
}

// FromEnv builds a configuration from TUNE_REPORTING_* environment variables.
func FromEnv() *SDKConfig {
	cfg := &SDKConfig{
		AuthType: os.Getenv(EnvAuthType),
		AuthKey:  os.Getenv(EnvAPIKey),
		BaseURL:  os.Getenv(EnvBaseURL),
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file, expands environment variables and returns the validated config.
func Load(path string) (*SDKConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: config file not found at: %s", ErrInvalidConfig, path)
	}

	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrInvalidConfig, err)
	}

	return Parse(rawBytes)
}

// Parse decodes YAML content after environment expansion.
func Parse(data []byte) (*SDKConfig, error) {
	contentWithEnv := os.ExpandEnv(string(data))

	var cfg SDKConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse yaml: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Normalize fills unset fields with defaults and validates the result.
// Configs built in code should be normalized before use.
func (c *SDKConfig) Normalize() error {
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *SDKConfig) applyDefaults() {
	if c.AuthType == "" {
		c.AuthType = defaultAuthType
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.Export.StatusSleep == 0 {
		c.Export.StatusSleep = defaultStatusSleep
	}
	if c.Export.StatusTimeout == 0 {
		c.Export.StatusTimeout = defaultStatusTimeout
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = defaultMaxAttempts
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = defaultBaseDelay
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = defaultMaxDelay
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 1
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// validate checks structural settings. Credentials are checked by the client so
// that a config without a key can still be loaded and completed programmatically.
func (c *SDKConfig) validate() error {
	if c.AuthType != "api_key" && c.AuthType != "session_token" {
		return fmt.Errorf("auth_type must be api_key or session_token, got %q", c.AuthType)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Export.StatusSleep < 0 || c.Export.StatusTimeout < 0 {
		return fmt.Errorf("export durations must be positive")
	}
	if c.Export.StatusTimeout < c.Export.StatusSleep {
		return fmt.Errorf("export.status_timeout must be >= export.status_sleep")
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry.max_attempts cannot be negative")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit values cannot be negative")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
