package tune

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			var total float64
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			return total
		}
	}
	return 0
}

func TestRetry_RecoversFromServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeEnvelope(w, 200, "9")
	})
	reg := prometheus.NewRegistry()
	client := newTestClient(t, server.URL, WithRetry(fastRetry(3)), WithMetrics(reg))

	resp, err := client.LogInstallsReport().Count(context.Background(), testParams())
	require.NoError(t, err)
	assert.Equal(t, 9, resp.Data)
	assert.Equal(t, 3, server.count())
	assert.Equal(t, 2.0, counterValue(t, reg, "tune_reporting_retries_total"))
}

func TestRetry_ExhaustedReturnsLastResponse(t *testing.T) {
	t.Parallel()

	server := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status_code":500,"data":null,"errors":[{"message":"Internal error"}]}`))
	})
	client := newTestClient(t, server.URL, WithRetry(fastRetry(2)))

	_, err := client.LogInstallsReport().Count(context.Background(), testParams())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.HTTPStatus)
	assert.Equal(t, []ErrorDetail{{Message: "Internal error"}}, apiErr.Errors)
	assert.Equal(t, 2, server.count())
}

func TestRetry_ClientErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	server := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status_code":400,"data":null,"errors":[]}`))
	})
	client := newTestClient(t, server.URL, WithRetry(fastRetry(3)))

	_, err := client.LogInstallsReport().Count(context.Background(), testParams())
	require.Error(t, err)
	assert.Equal(t, 1, server.count())
}

func TestRetry_RetryOnHook(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusConflict)
			return
		}
		writeEnvelope(w, 200, "1")
	})
	cfg := fastRetry(2)
	cfg.RetryOn = func(resp *http.Response, err error) bool {
		return resp != nil && resp.StatusCode == http.StatusConflict
	}
	client := newTestClient(t, server.URL, WithRetry(cfg))

	_, err := client.LogInstallsReport().Count(context.Background(), testParams())
	require.NoError(t, err)
	assert.Equal(t, 2, server.count())
}

func TestRetry_RateLimitedWithRetryAfter(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeEnvelope(w, 200, "2")
	})
	client := newTestClient(t, server.URL, WithRetry(fastRetry(2)))

	resp, err := client.LogInstallsReport().Count(context.Background(), testParams())
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Data)
}

func TestRetryPolicy_Backoff(t *testing.T) {
	t.Parallel()

	p := newRetryPolicy(&RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second})

	assert.Equal(t, 100*time.Millisecond, p.backoff(100*time.Millisecond, time.Second, 0, nil))
	assert.Equal(t, 400*time.Millisecond, p.backoff(100*time.Millisecond, time.Second, 2, nil))
	assert.Equal(t, time.Second, p.backoff(100*time.Millisecond, time.Second, 10, nil))

	limited := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
	limited.Header.Set("Retry-After", "3")
	assert.Equal(t, 3*time.Second, p.backoff(100*time.Millisecond, time.Second, 0, limited))

	limited.Header.Set("Retry-After", "soon")
	assert.Equal(t, 100*time.Millisecond, p.backoff(100*time.Millisecond, time.Second, 0, limited))
}

func TestRetryPolicy_Jitter(t *testing.T) {
	t.Parallel()

	p := newRetryPolicy(&RetryConfig{Multiplier: 2, JitterFactor: 0.2})
	for i := 0; i < 50; i++ {
		d := p.calculateDelay(time.Second, time.Minute, 1)
		assert.GreaterOrEqual(t, d, 1600*time.Millisecond)
		assert.LessOrEqual(t, d, 2400*time.Millisecond)
	}
}

func TestRetryPolicy_CheckRetryStopsOnContext(t *testing.T) {
	t.Parallel()

	p := newRetryPolicy(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	retry, err := p.checkRetry(ctx, &http.Response{StatusCode: http.StatusServiceUnavailable}, nil)
	assert.False(t, retry)
	assert.ErrorIs(t, err, context.Canceled)
}
