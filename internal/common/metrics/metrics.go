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

	// outcome is "ok" or an error code
	InterviewTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_transitions_total",
			Help: "Video/feedback state transitions by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// result is purged, skipped or failed
	SweepRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_sweep_rows_total",
			Help: "Rows visited by background sweeps",
		},
		[]string{"sweep", "result"},
	)

	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "interview_sweep_duration_seconds",
			Help:    "Duration of background sweeps",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"sweep"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notifications by type, channel and status",
		},
		[]string{"type", "channel", "status"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Notifications that could not be delivered",
		},
		[]string{"type", "channel"},
	)

	OrphansDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orphan_rows_deleted_total",
			Help: "Junction rows removed because their vacancy no longer exists",
		},
		[]string{"table"},
	)
)
