// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExtractionJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_jobs_completed_total",
			Help: "Total number of extraction jobs completed",
		},
		[]string{"priority"},
	)

	ExtractionJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_jobs_failed_total",
			Help: "Total number of extraction jobs failed",
		},
		[]string{"priority", "error_code"},
	)

	ExtractionJobsReused = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "extraction_jobs_reused_total",
			Help: "Triggers resolved by the idempotency check instead of a new job",
		},
	)

	ExtractionJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "extraction_job_duration_seconds",
			Help: "Duration of extraction job processing in seconds",
		},
		[]string{"priority"},
	)

	AnalyticsCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_cache_requests_total",
			Help: "Analytics summary cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)
