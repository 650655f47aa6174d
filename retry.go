package tune

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// retryPolicy supplies the CheckRetry and Backoff hooks of the retrying transport.
type retryPolicy struct {
	config *RetryConfig
}

// newRetryPolicy creates a retry policy with the given configuration.
func newRetryPolicy(config *RetryConfig) *retryPolicy {
	if config == nil {
		config = defaultRetryConfig()
	}
	if config.BaseDelay == 0 {
		config.BaseDelay = 1 * time.Second
	}
	if config.MaxDelay == 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier == 0 {
		config.Multiplier = 2.0
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 3
	}
	return &retryPolicy{config: config}
}

// newRetryableClient builds the shared HTTP helper.
func newRetryableClient(policy *retryPolicy, httpClient *http.Client, logger *slog.Logger, secret string, onRetry func()) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	if httpClient != nil {
		client.HTTPClient = httpClient
	}
	client.RetryMax = policy.config.MaxAttempts - 1
	client.RetryWaitMin = policy.config.BaseDelay
	client.RetryWaitMax = policy.config.MaxDelay
	client.CheckRetry = policy.checkRetry
	client.Backoff = policy.backoff
	// Hand the final response back so the envelope can be inspected.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = &slogAdapter{logger: logger, secret: secret}
	client.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 && onRetry != nil {
			onRetry()
		}
	}
	return client
}

// checkRetry decides whether a response or error should be retried.
func (p *retryPolicy) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if p.config.RetryOn != nil && p.config.RetryOn(resp, err) {
		return true, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// backoff computes the delay before the next attempt. A Retry-After header on a
// 429 or 503 response takes precedence over the exponential schedule.
func (p *retryPolicy) backoff(min, max time.Duration, attempt int, resp *http.Response) time.Duration {
	if resp != nil && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable) {
		if s := resp.Header.Get("Retry-After"); s != "" {
			if sec, err := strconv.Atoi(s); err == nil && sec >= 0 {
				return time.Duration(sec) * time.Second
			}
		}
	}
	return p.calculateDelay(min, max, attempt)
}

// calculateDelay computes the delay for a given attempt with jitter.
func (p *retryPolicy) calculateDelay(base, max time.Duration, attempt int) time.Duration {
	delay := float64(base) * math.Pow(p.config.Multiplier, float64(attempt))

	if delay > float64(max) {
		delay = float64(max)
	}

	if p.config.JitterFactor > 0 {
		jitter := delay * p.config.JitterFactor * (rand.Float64()*2 - 1)
		delay += jitter
	}

	return time.Duration(delay)
}
