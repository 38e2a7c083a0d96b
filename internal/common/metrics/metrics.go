// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerationSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_submissions_total",
			Help: "Total number of generation job submissions by outcome",
		},
		[]string{"outcome"},
	)

	GenerationJobsTerminal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_jobs_terminal_total",
			Help: "Total number of generation jobs reaching a terminal state",
		},
		[]string{"state"},
	)

	GenerationPolls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "generation_polls_total",
			Help: "Total number of status polls issued",
		},
	)

	GenerationJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_job_duration_seconds",
			Help:    "Wall-clock duration from submit to terminal state",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"state"},
	)

	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Total number of recommendation lists served by filter level",
		},
		[]string{"filter_level"},
	)

	RecommendationCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_total",
			Help: "Recommendation cache lookups by result",
		},
		[]string{"result"},
	)
)
