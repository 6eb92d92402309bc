package middleware

import (
	"fmt"
	"math"
	"time"

	"gemini-relay/internal/monitoring"
	"github.com/gin-gonic/gin"
)

func statusClass(code int) string {
	if code <= 0 {
		return "error"
	}
	return fmt.Sprintf("%dxx", code/100)
}

// Metrics tracks per-route counters and a latency histogram.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		monitoring.HTTPInFlight.Inc()
		c.Next()
		monitoring.HTTPInFlight.Dec()

		durSec := time.Since(start).Seconds()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		sc := statusClass(c.Writer.Status())

		monitoring.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, sc).Inc()
		monitoring.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, sc).Observe(durSec)
	}
}

// RecordUpstream records one upstream round trip by action and outcome.
func RecordUpstream(action string, dur time.Duration, status int, networkErr bool) {
	cls := statusClass(status)
	if networkErr {
		cls = "network_error"
	}
	durSec := dur.Seconds()
	if math.IsNaN(durSec) || math.IsInf(durSec, 0) {
		durSec = 0
	}
	monitoring.UpstreamRequestsTotal.WithLabelValues(action, cls).Inc()
	monitoring.UpstreamRequestDuration.WithLabelValues(action).Observe(durSec)
}

// RecordUpstreamRetry adds retry attempt counts beyond the first attempt.
func RecordUpstreamRetry(attempts int, success bool) {
	if attempts <= 0 {
		return
	}
	outcome := "error"
	if success {
		outcome = "success"
	}
	monitoring.UpstreamRetryAttempts.WithLabelValues(outcome).Add(float64(attempts))
}

// RecordUpstreamError increments the upstream network error counter by reason.
func RecordUpstreamError(reason string) {
	if reason == "" {
		reason = "other"
	}
	monitoring.UpstreamErrors.WithLabelValues(reason).Inc()
}

// RecordDispatch counts one logical request routed to a strategy.
func RecordDispatch(strategy string) {
	monitoring.RelayDispatchTotal.WithLabelValues(strategy).Inc()
}

// RecordSSEEvents adds emitted SSE event counts for a path.
func RecordSSEEvents(path string, n int) {
	if n <= 0 {
		return
	}
	monitoring.SSEEventsTotal.WithLabelValues(path).Add(float64(n))
}

// RecordHeartbeats adds emitted heartbeat frames for a strategy.
func RecordHeartbeats(strategy string, n int) {
	if n <= 0 {
		return
	}
	monitoring.HeartbeatsTotal.WithLabelValues(strategy).Add(float64(n))
}

// RecordSSEClose increments a stream closure reason counter.
func RecordSSEClose(path, reason string) {
	if reason == "" {
		reason = "other"
	}
	monitoring.SSEDisconnectsTotal.WithLabelValues(path, reason).Inc()
}

// RecordSalvage counts salvage decoder outcomes ("recovered"/"empty").
func RecordSalvage(outcome string) {
	monitoring.SalvageRecoveriesTotal.WithLabelValues(outcome).Inc()
}

// SetRateLimitKeyGauge sets the current per-key limiter count.
func SetRateLimitKeyGauge(n int) {
	monitoring.RateLimitKeysGauge.Set(float64(n))
}
