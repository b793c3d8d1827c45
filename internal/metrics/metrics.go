// Package metrics holds the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch outcomes.
const (
	OutcomeDelivered  = "delivered"
	OutcomeBadRequest = "bad_request"
	OutcomeFailed     = "failed"
)

var (
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_created_total",
			Help: "Total number of notifications stored",
		},
		[]string{"tenant"},
	)

	Dispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_dispatch_total",
			Help: "Total number of delivery dispatches by outcome",
		},
		[]string{"outcome"},
	)

	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notify_render_duration_seconds",
			Help:    "Duration of a template rendering fan-out in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	Purged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notify_purged_total",
			Help: "Total number of notifications removed by retention purges",
		},
	)
)
