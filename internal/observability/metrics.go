package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	DBTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booking_db_tx_seconds",
			Help:    "Duration of booking store transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	SlotConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_slot_conflicts_total",
			Help: "Booking attempts rejected because the slot was taken",
		},
		[]string{"operation"},
	)

	HoldsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_holds_expired_total",
			Help: "Holds physically removed by the sweeper",
		},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "booking_outbox_lag_seconds",
			Help: "Age of the oldest unpublished outbox record",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_rate_limit_exceeded_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)
