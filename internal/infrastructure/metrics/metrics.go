package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Replygate Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "replygate",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "replygate",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	// Decision counters, labeled by disposition and autosend eligibility
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "replygate",
			Subsystem: "decision",
			Name:      "decisions_total",
			Help:      "Total classification decisions",
		},
		[]string{"disposition", "autosend_eligible"},
	)

	// Autosend gate blocks by lock
	AutosendBlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "replygate",
			Subsystem: "decision",
			Name:      "autosend_blocks_total",
			Help:      "Autosend gate blocks by reason",
		},
		[]string{"reason"},
	)

	// Human resolution counters
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "replygate",
			Subsystem: "suggestion",
			Name:      "resolutions_total",
			Help:      "Suggestion resolutions by action",
		},
		[]string{"action"},
	)

	// Dispatch job counters
	DispatchJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "replygate",
			Subsystem: "dispatch",
			Name:      "jobs_total",
			Help:      "Dispatch jobs by terminal status",
		},
		[]string{"status"},
	)

	// Scheduled delay histogram
	DispatchDelay = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "replygate",
			Subsystem: "dispatch",
			Name:      "delay_seconds",
			Help:      "Scheduled dispatch delay in seconds",
			Buckets:   []float64{1, 2, 5, 10, 20, 40, 60, 120},
		},
	)

	// Pending jobs gauge, refreshed by the janitor
	PendingJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "replygate",
			Subsystem: "dispatch",
			Name:      "pending_jobs",
			Help:      "Dispatch jobs waiting for their due time",
		},
	)

	// Gateway send duration
	SendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "replygate",
			Subsystem: "channel",
			Name:      "send_duration_seconds",
			Help:      "Channel gateway send duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"channel", "status"},
	)
)
