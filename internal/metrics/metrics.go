package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grader_submissions_total",
			Help: "Total number of processed submissions by terminal status",
		},
		[]string{"lesson", "status"},
	)

	GradingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grader_submission_duration_seconds",
			Help:    "Wall time of one submission run through the pipeline",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	TaskScoreHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grader_task_score_ratio",
			Help:    "Distribution of per-task score/max_score ratios",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"lesson"},
	)
)
