package tune

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultBaseURL       = "https://api.mobileapptracking.com"
	defaultTimeout       = 30 * time.Second
	defaultStatusSleep   = 10 * time.Second
	defaultStatusTimeout = 240 * time.Second
)

// Auth types accepted by the API.
const (
	AuthTypeAPIKey       = "api_key"
	AuthTypeSessionToken = "session_token"
)

// Option configures the Client.
type Option func(*clientConfig) error

// clientConfig holds internal configuration.
type clientConfig struct {
	baseURL       string
	authType      string
	httpClient    *http.Client
	retryConfig   *RetryConfig
	rateLimit     *RateLimitConfig
	registerer    prometheus.Registerer
	logger        *slog.Logger
	userAgent     string
	timeout       time.Duration
	verifyFields  bool
	statusSleep   time.Duration
	statusTimeout time.Duration
}

// newDefaultConfig returns the default client configuration.
func newDefaultConfig() *clientConfig {
	return &clientConfig{
		baseURL:       defaultBaseURL,
		authType:      AuthTypeAPIKey,
		timeout:       defaultTimeout,
		retryConfig:   defaultRetryConfig(),
		statusSleep:   defaultStatusSleep,
		statusTimeout: defaultStatusTimeout,
	}
}

// WithBaseURL sets a custom API base URL.
// Default: "https://api.mobileapptracking.com"
func WithBaseURL(url string) Option {
	return func(c *clientConfig) error {
		if url == "" {
			return errors.New("base URL cannot be empty")
		}
		c.baseURL = strings.TrimSuffix(url, "/")
		return nil
	}
}

// WithAuthType selects how the credential is sent: AuthTypeAPIKey or AuthTypeSessionToken.
// Default: AuthTypeAPIKey
func WithAuthType(authType string) Option {
	return func(c *clientConfig) error {
		if authType != AuthTypeAPIKey && authType != AuthTypeSessionToken {
			return errors.New("auth type must be api_key or session_token")
		}
		c.authType = authType
		return nil
	}
}

// WithHTTPClient sets the underlying HTTP client used by the retrying transport.
// Default: a pooled client with the configured timeout
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) error {
		if client == nil {
			return errors.New("HTTP client cannot be nil")
		}
		c.httpClient = client
		return nil
	}
}

// WithTimeout sets the per-attempt request timeout.
// Default: 30 seconds
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		c.timeout = d
		return nil
	}
}

// WithRetry configures retry behavior.
// Default: 3 attempts with exponential backoff (base 1s, max 30s)
func WithRetry(config RetryConfig) Option {
	return func(c *clientConfig) error {
		if config.MaxAttempts < 0 {
			return errors.New("max attempts cannot be negative")
		}
		c.retryConfig = &config
		return nil
	}
}

// WithoutRetry disables automatic retries.
func WithoutRetry() Option {
	return func(c *clientConfig) error {
		c.retryConfig = &RetryConfig{MaxAttempts: 1}
		return nil
	}
}

// WithRateLimit throttles outgoing requests to rps requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *clientConfig) error {
		if rps <= 0 {
			return errors.New("requests per second must be positive")
		}
		if burst <= 0 {
			burst = 1
		}
		c.rateLimit = &RateLimitConfig{RequestsPerSecond: rps, Burst: burst}
		return nil
	}
}

// WithMetrics registers request metrics on the given Prometheus registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *clientConfig) error {
		if reg == nil {
			return errors.New("registerer cannot be nil")
		}
		c.registerer = reg
		return nil
	}
}

// WithLogger sets the structured logger. Default: logging disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithUserAgent sets a custom User-Agent suffix.
// The SDK will prepend its own identifier.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) error {
		c.userAgent = ua
		return nil
	}
}

// WithFieldVerification makes Find and Export check requested fields against the
// report's field definitions before sending the request.
func WithFieldVerification(enabled bool) Option {
	return func(c *clientConfig) error {
		c.verifyFields = enabled
		return nil
	}
}

// WithExportPolling configures WaitForExport.
// Default: poll every 10 seconds, give up after 240 seconds
func WithExportPolling(sleep, timeout time.Duration) Option {
	return func(c *clientConfig) error {
		if sleep <= 0 || timeout <= 0 {
			return errors.New("export polling durations must be positive")
		}
		if timeout < sleep {
			return errors.New("export polling timeout must be >= sleep")
		}
		c.statusSleep = sleep
		c.statusTimeout = timeout
		return nil
	}
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	// Set to 1 to disable retries. Default: 3
	MaxAttempts int

	// BaseDelay is the initial delay before the first retry.
	// Default: 1 second
	BaseDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	// Default: 30 seconds
	MaxDelay time.Duration

	// Multiplier is the factor by which the delay increases.
	// Default: 2.0
	Multiplier float64

	// JitterFactor adds randomness to delays (0.0 to 1.0).
	// Default: 0.2 (20% jitter)
	JitterFactor float64

	// RetryOn, when set, is consulted before the default policy. Returning true
	// forces a retry. It must not consume the response body.
	RetryOn func(resp *http.Response, err error) bool
}

// defaultRetryConfig returns the default retry configuration.
func defaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  3,
		BaseDelay:    1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.2,
	}
}

// RateLimitConfig configures client-side throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}
