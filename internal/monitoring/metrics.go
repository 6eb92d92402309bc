package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_relay_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_class"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gemini_relay_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "path", "status_class"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gemini_relay_http_inflight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_relay_upstream_requests_total",
			Help: "Total number of upstream API requests",
		},
		[]string{"action", "status_class"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gemini_relay_upstream_request_duration_seconds",
			Help:    "Upstream API request latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"action"},
	)

	UpstreamRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_relay_upstream_retry_attempts_total",
			Help: "Total number of upstream retry attempts beyond the first",
		},
		[]string{"outcome"},
	)

	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_relay_upstream_errors_total",
			Help: "Total number of upstream network errors by reason",
		},
		[]string{"reason"},
	)

	RelayDispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_relay_dispatch_total",
			Help: "Logical requests dispatched by execution strategy",
		},
		[]string{"strategy"},
	)

	SSEEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_relay_sse_events_total",
			Help: "SSE events emitted to clients by path",
		},
		[]string{"path"},
	)

	HeartbeatsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_relay_heartbeats_total",
			Help: "Keepalive heartbeat frames emitted by strategy",
		},
		[]string{"strategy"},
	)

	SSEDisconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_relay_sse_disconnects_total",
			Help: "SSE stream closures by reason",
		},
		[]string{"path", "reason"},
	)

	SalvageRecoveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_relay_salvage_recoveries_total",
			Help: "Malformed upstream bodies handled by the salvage decoder",
		},
		[]string{"outcome"},
	)

	RateLimitKeysGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gemini_relay_ratelimit_keys",
			Help: "Number of tracked per-key rate limiters",
		},
	)
)
