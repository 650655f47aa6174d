// Package transport provides HTTP transport utilities for the SDK.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the client-generated request identifier.
const RequestIDHeader = "X-Request-ID"

const redacted = "REDACTED"

// Request represents an HTTP request to be made.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	RequestID  string
	// URL is the request URL with credentials redacted.
	URL string
}

// Observer receives one call per completed request.
type Observer interface {
	ObserveRequest(path string, statusCode int, elapsed time.Duration, err error)
}

// Transport handles HTTP communication with the API.
type Transport struct {
	BaseURL   string
	Client    *retryablehttp.Client
	AuthType  string
	AuthKey   string
	UserAgent string
	// Limiter throttles outgoing requests when set.
	Limiter  *rate.Limiter
	Observer Observer
}

// Do executes an HTTP request and returns the response.
// Retries happen inside the retryable client according to its CheckRetry and Backoff hooks.
func (t *Transport) Do(ctx context.Context, req Request) (*Response, error) {
	query := url.Values{}
	for key, values := range req.Query {
		query[key] = append([]string(nil), values...)
	}
	if t.AuthType != "" {
		query.Set(t.AuthType, t.AuthKey)
	}

	fullURL := t.BaseURL + req.Path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	safeURL := t.redact(fullURL)

	if t.Limiter != nil {
		if err := t.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", t.UserAgent)
	httpReq.Header.Set(RequestIDHeader, requestID)
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := t.Client.Do(httpReq)
	if err != nil {
		closeBody(resp)
		t.observe(req.Path, 0, start, err)
		return nil, fmt.Errorf("failed to execute request %s: %w", safeURL, t.scrub(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.observe(req.Path, resp.StatusCode, start, err)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	t.observe(req.Path, resp.StatusCode, start, nil)

	if echoed := resp.Header.Get(RequestIDHeader); echoed != "" {
		requestID = echoed
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header,
		RequestID:  requestID,
		URL:        safeURL,
	}, nil
}

// Fetch performs an unauthenticated GET against an absolute URL, such as a finished
// export file. The caller must close the returned body.
func (t *Transport) Fetch(ctx context.Context, rawURL string) (*http.Response, error) {
	if t.Limiter != nil {
		if err := t.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", t.UserAgent)

	start := time.Now()
	resp, err := t.Client.Do(httpReq)
	if err != nil {
		closeBody(resp)
		t.observe("download", 0, start, err)
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	t.observe("download", resp.StatusCode, start, nil)
	return resp, nil
}

// closeBody releases a response returned alongside an error.
func closeBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
}

func (t *Transport) observe(path string, status int, start time.Time, err error) {
	if t.Observer != nil {
		t.Observer.ObserveRequest(path, status, time.Since(start), err)
	}
}

// redact masks the credential query parameter in rawURL.
func (t *Transport) redact(rawURL string) string {
	if t.AuthType == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Has(t.AuthType) {
		q.Set(t.AuthType, redacted)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// scrub removes the credential from errors produced by net/http, which embed the URL.
func (t *Transport) scrub(err error) error {
	var urlErr *url.Error
	if t.AuthType == "" || !errors.As(err, &urlErr) {
		return err
	}
	return &url.Error{Op: urlErr.Op, URL: t.redact(urlErr.URL), Err: urlErr.Err}
}
