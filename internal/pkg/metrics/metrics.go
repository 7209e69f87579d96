// Package metrics provides Prometheus metrics for the telemetry backend,
// scraped from /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "smartbin"

var (
	// HTTPRequestTotal counts requests by method, path, status.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, path, and status.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDurationSeconds is request latency histogram.
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10), // 1ms to ~9.3s
		},
		[]string{"method", "path"},
	)

	// ReadingsIngestedTotal counts stored readings by source.
	ReadingsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_ingested_total",
			Help:      "Total number of readings stored, by source.",
		},
		[]string{"source"},
	)

	// LoginAttemptsTotal counts login attempts by result.
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Total number of login attempts by result.",
		},
		[]string{"result"},
	)

	// ThingSpeakSyncTotal counts poller cycles by outcome.
	ThingSpeakSyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thingspeak_sync_total",
			Help:      "Total number of ThingSpeak poll cycles by outcome.",
		},
		[]string{"outcome"},
	)

	// ThingSpeakLastSyncTimestamp is the unix time of the last successful poll.
	ThingSpeakLastSyncTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "thingspeak_last_sync_timestamp_seconds",
			Help:      "Unix timestamp of the last successful ThingSpeak sync.",
		},
	)

	// PendingMFASecrets is the current size of the pending TOTP secret cache.
	PendingMFASecrets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_mfa_secrets",
			Help:      "Number of provisioned TOTP secrets awaiting activation.",
		},
	)
)
