// Package metrics exposes Prometheus collectors for SDK requests.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tune_reporting"

// Collector records request counts, latencies and retries.
type Collector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  prometheus.Counter
}

// New creates a Collector and registers it. Collectors that are already registered
// on reg are reused, so several clients can share one registry.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "API requests by endpoint path and HTTP status code.",
		}, []string{"path", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "API request latency including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retried API request attempts.",
		}),
	}

	var err error
	if c.requests, err = register(reg, c.requests); err != nil {
		return nil, err
	}
	if c.duration, err = register(reg, c.duration); err != nil {
		return nil, err
	}
	if c.retries, err = register(reg, c.retries); err != nil {
		return nil, err
	}
	return c, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return collector, err
	}
	return collector, nil
}

// ObserveRequest records one completed request. A zero status code means the
// request failed before a response arrived.
func (c *Collector) ObserveRequest(path string, statusCode int, elapsed time.Duration, err error) {
	code := strconv.Itoa(statusCode)
	if statusCode == 0 || err != nil {
		code = "error"
	}
	c.requests.WithLabelValues(path, code).Inc()
	c.duration.WithLabelValues(path).Observe(elapsed.Seconds())
}

// ObserveRetry records one retried attempt.
func (c *Collector) ObserveRetry() {
	c.retries.Inc()
}
