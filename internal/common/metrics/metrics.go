// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

var (
	SearchInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_invocations_total",
			Help: "Search invocations by outcome provenance",
		},
		[]string{"provenance"},
	)

	SearchFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "search_fallback_total",
			Help: "Searches that broadened to the full candidate population",
		},
	)

	SearchCollaboratorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_collaborator_failures_total",
			Help: "Failed collaborator fetches recovered as empty lists",
		},
		[]string{"collaborator"},
	)

	SearchStaleResultsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "search_stale_results_dropped_total",
			Help: "Session results discarded because a newer query superseded them",
		},
	)

	SearchCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_cache_requests_total",
			Help: "Ranked cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_duration_seconds",
			Help:    "Duration of a search invocation in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provenance"},
	)
)
