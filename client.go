package tune

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"golang.org/x/time/rate"

	"github.com/joshuawatkins04/tune_sdk/config"
	"github.com/joshuawatkins04/tune_sdk/internal/metrics"
	"github.com/joshuawatkins04/tune_sdk/internal/transport"
	"github.com/joshuawatkins04/tune_sdk/internal/validation"
)

const apiVersion = "v2"

// Client is the TUNE Reporting API client.
// A Client is safe for concurrent use.
type Client struct {
	transport *transport.Transport
	config    *clientConfig
	logger    *slog.Logger
}

// NewClient creates a client authenticated with authKey. The key is an API key
// unless WithAuthType(AuthTypeSessionToken) is given.
func NewClient(authKey string, opts ...Option) (*Client, error) {
	cfg := newDefaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, &ConfigError{Field: "option", Message: "invalid option", Err: err}
		}
	}

	if err := validation.ValidateAuth(cfg.authType, authKey); err != nil {
		return nil, &ConfigError{Field: cfg.authType, Message: "invalid credential", Err: err}
	}

	logger := cfg.logger
	if logger == nil {
		logger = discardLogger()
	}

	var collector *metrics.Collector
	if cfg.registerer != nil {
		var err error
		collector, err = metrics.New(cfg.registerer)
		if err != nil {
			return nil, &ConfigError{Field: "metrics", Message: "cannot register collectors", Err: err}
		}
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.timeout}
	}

	var onRetry func()
	if collector != nil {
		onRetry = collector.ObserveRetry
	}
	retryClient := newRetryableClient(newRetryPolicy(cfg.retryConfig), httpClient, logger, authKey, onRetry)

	userAgent := fmt.Sprintf("tune-reporting-go/%s", Version)
	if cfg.userAgent != "" {
		userAgent = userAgent + " " + cfg.userAgent
	}

	t := &transport.Transport{
		BaseURL:   cfg.baseURL,
		Client:    retryClient,
		AuthType:  cfg.authType,
		AuthKey:   authKey,
		UserAgent: userAgent,
	}
	if cfg.rateLimit != nil {
		t.Limiter = rate.NewLimiter(rate.Limit(cfg.rateLimit.RequestsPerSecond), cfg.rateLimit.Burst)
	}
	if collector != nil {
		t.Observer = collector
	}

	return &Client{
		transport: t,
		config:    cfg,
		logger:    logger,
	}, nil
}

// NewClientFromConfig creates a client from a loaded SDK configuration.
// Options are applied after the configuration and take precedence.
// Like NewClient, the client is silent unless the config sets log.level
// or WithLogger is passed.
func NewClientFromConfig(cfg *config.SDKConfig, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, &ConfigError{Field: "config", Message: "configuration is nil"}
	}
	normalized := *cfg
	if err := normalized.Normalize(); err != nil {
		return nil, &ConfigError{Field: "config", Message: "invalid configuration", Err: err}
	}
	cfg = &normalized

	base := []Option{
		WithBaseURL(cfg.BaseURL),
		WithAuthType(cfg.AuthType),
		WithTimeout(cfg.Timeout),
		WithFieldVerification(cfg.VerifyFields),
		WithExportPolling(cfg.Export.StatusSleep, cfg.Export.StatusTimeout),
		WithRetry(RetryConfig{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			BaseDelay:    cfg.Retry.BaseDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			JitterFactor: defaultRetryConfig().JitterFactor,
		}),
	}
	if cfg.Log.Enabled() {
		base = append(base, WithLogger(cfg.Log.NewLogger(os.Stderr)))
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		base = append(base, WithRateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	}

	return NewClient(cfg.AuthKey, append(base, opts...)...)
}

// AuthType returns how the client authenticates: AuthTypeAPIKey or AuthTypeSessionToken.
func (c *Client) AuthType() string {
	return c.config.authType
}

// do sends a GET to path and returns the raw response. Transport failures become
// NetworkError; status and envelope checks are left to decodeResponse.
func (c *Client) do(ctx context.Context, label, path string, query url.Values) (*transport.Response, error) {
	q := url.Values{}
	for key, values := range query {
		q[key] = values
	}
	q.Set("sdk", "go")
	q.Set("ver", Version)

	c.logger.Debug("request", "label", label, "path", path)

	resp, err := c.transport.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  q,
	})
	if err != nil {
		c.logger.Error("request failed", "label", label, "error", err)
		return nil, &NetworkError{Op: "request", Err: err}
	}

	c.logger.Debug("response",
		"label", label,
		"status", resp.StatusCode,
		"request_id", resp.RequestID,
		"bytes", len(resp.Body),
	)
	return resp, nil
}

// execute runs the shared request path: send, validate the envelope, decode data.
func execute[T any](ctx context.Context, c *Client, label, path string, query url.Values, decode func(json.RawMessage) (T, error)) (*Response[T], error) {
	resp, err := c.do(ctx, label, path, query)
	if err != nil {
		return nil, err
	}

	out, err := decodeResponse(label, resp, decode)
	if err != nil {
		c.logger.Error("request failed", "label", label, "request_id", resp.RequestID, "error", err)
		return nil, err
	}
	return out, nil
}
