package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts API requests by method, route and status class.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests processed, by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDurationSeconds observes request latency per route.
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newsdesk",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// DedupRunsTotal counts duplicate-detection runs by outcome.
	DedupRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Subsystem: "dedup",
			Name:      "runs_total",
			Help:      "Duplicate detection runs, by outcome.",
		},
		[]string{"outcome"},
	)

	// DedupGroupsCreatedTotal counts persisted duplicate groups.
	DedupGroupsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Subsystem: "dedup",
			Name:      "groups_created_total",
			Help:      "Duplicate groups created by detection runs.",
		},
	)

	// TrendingRecomputesTotal counts trending score recompute batches.
	TrendingRecomputesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Subsystem: "trending",
			Name:      "recomputes_total",
			Help:      "Trending score recompute batches, by outcome.",
		},
		[]string{"outcome"},
	)

	// PointsAwardedTotal counts gamification points granted, by action.
	PointsAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Subsystem: "points",
			Name:      "awarded_total",
			Help:      "Gamification points awarded, by action.",
		},
		[]string{"action"},
	)
)
