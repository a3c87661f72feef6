package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal tracks outbound calls to the appstore API.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appstore_api_requests_total",
			Help: "Total number of appstore API requests made (by endpoint and status).",
		},
		[]string{"endpoint", "status"},
	)

	// APIRequestDuration measures the duration of outbound appstore API calls.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "appstore_api_request_duration_seconds",
			Help:    "Duration of appstore API requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
		},
		[]string{"endpoint"},
	)

	// ReauthTotal counts re-authentication cycles triggered by a rejected token.
	ReauthTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appstore_reauth_total",
			Help: "Re-authentication cycles by outcome (recovered, auth_failed, retry_failed).",
		},
		[]string{"outcome"},
	)

	// SandboxRequestsTotal tracks requests served by the local sandbox.
	SandboxRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appstore_sandbox_requests_total",
			Help: "Requests handled by the appstore sandbox (by endpoint and status).",
		},
		[]string{"endpoint", "status"},
	)
)

// IncAPIRequest increments the outbound request counter.
func IncAPIRequest(endpoint, status string) {
	APIRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// IncReauth increments the re-authentication counter for the given outcome.
func IncReauth(outcome string) {
	ReauthTotal.WithLabelValues(outcome).Inc()
}

// IncSandboxRequest increments the sandbox request counter.
func IncSandboxRequest(endpoint, status string) {
	SandboxRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// ObserveDuration records elapsed time since start into a HistogramVec or SummaryVec.
func ObserveDuration(v any, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()
	switch metric := v.(type) {
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	case *prometheus.SummaryVec:
		metric.WithLabelValues(labels...).Observe(duration)
	}
}
