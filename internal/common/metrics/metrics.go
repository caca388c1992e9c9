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
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
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

	ComparisonPollAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comparison_poll_attempts_total",
			Help: "Poll attempts against the chat message store",
		},
		[]string{"outcome"},
	)

	ComparisonPollResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comparison_poll_results_total",
			Help: "Finished poll sessions by result source",
		},
		[]string{"source"},
	)

	SurveyQuestionCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_question_cache_total",
			Help: "Survey question cache lookups",
		},
		[]string{"result"},
	)
)
