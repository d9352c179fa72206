package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cowbridge_http_requests_total",
			Help: "HTTP requests by route and status code.",
		},
		[]string{"route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cowbridge_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cowbridge_rate_limited_total",
			Help: "Requests rejected by the sliding-window rate limiter.",
		},
	)

	WebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cowbridge_webhooks_total",
			Help: "Inbound webhook deliveries by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	BookingsSyncedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cowbridge_bookings_synced_total",
			Help: "Bookings pushed to the partner system.",
		},
	)

	BookingsNormalizedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cowbridge_bookings_normalized_total",
			Help: "Orders normalized into canonical bookings.",
		},
	)

	HostResolutionFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cowbridge_host_resolution_failures_total",
			Help: "Product lookups that failed while resolving a host identity.",
		},
	)
)
