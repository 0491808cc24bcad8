// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts handled requests by route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixelrelay_http_requests_total",
			Help: "HTTP requests handled",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pixelrelay_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Generation pipeline metrics
var (
	// GenerationsTotal counts completed generation attempts by outcome
	// (success, upstream, transport, timeout, malformed, empty_result, relay).
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixelrelay_generations_total",
			Help: "Generation attempts by outcome",
		},
		[]string{"outcome"},
	)

	// UpstreamDuration observes generation API latency in seconds.
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pixelrelay_upstream_duration_seconds",
			Help:    "Generation API call latency",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	// RelayDuration observes fetch+transcode+upload latency in seconds.
	RelayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pixelrelay_relay_duration_seconds",
			Help:    "Image relay latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"format", "outcome"},
	)

	// LogWriteFailures counts log store appends that failed.
	LogWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixelrelay_log_write_failures_total",
			Help: "Failed generation log appends",
		},
		[]string{"stream"},
	)
)

// Image proxy metrics
var (
	// ProxyCacheLookups counts image proxy cache lookups by result (hit, miss).
	ProxyCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixelrelay_proxy_cache_lookups_total",
			Help: "Image proxy cache lookups",
		},
		[]string{"result"},
	)
)
