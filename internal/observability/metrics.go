package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	gradesIngestedTotal    *prometheus.CounterVec
	submissionsFinished    *prometheus.CounterVec
	etaQueriesTotal        *prometheus.CounterVec
	notificationQueries    prometheus.Counter
	moderationActionsTotal *prometheus.CounterVec
	requestLatencySeconds  *prometheus.HistogramVec
	requestErrorsTotal     *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		gradesIngestedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_grades_ingested_total",
			Help: "Total number of grade records ingested, by grader type and status.",
		}, []string{"grader_type", "status"})

		submissionsFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_submissions_finished_total",
			Help: "Total number of submissions that reached the finished state, by finishing grader type.",
		}, []string{"grader_type"})

		etaQueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_eta_queries_total",
			Help: "Total number of ETA queries served, by estimate source.",
		}, []string{"source"})

		notificationQueries = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grading_notification_queries_total",
			Help: "Total number of combined notification queries served.",
		})

		moderationActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_moderation_actions_total",
			Help: "Total number of moderation actions applied, by action type.",
		}, []string{"action"})

		requestLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grading_request_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		requestErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_request_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		prometheus.MustRegister(
			gradesIngestedTotal,
			submissionsFinished,
			etaQueriesTotal,
			notificationQueries,
			moderationActionsTotal,
			requestLatencySeconds,
			requestErrorsTotal,
		)
	})
}

// GradesIngested exposes the counter for ingested grade records.
func GradesIngested() *prometheus.CounterVec {
	RegisterMetrics()
	return gradesIngestedTotal
}

// SubmissionsFinished exposes the counter for finished submissions.
func SubmissionsFinished() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsFinished
}

// ETAQueries exposes the counter for ETA queries.
func ETAQueries() *prometheus.CounterVec {
	RegisterMetrics()
	return etaQueriesTotal
}

// NotificationQueries exposes the counter for notification queries.
func NotificationQueries() prometheus.Counter {
	RegisterMetrics()
	return notificationQueries
}

// ModerationActions exposes the counter for moderation actions.
func ModerationActions() *prometheus.CounterVec {
	RegisterMetrics()
	return moderationActionsTotal
}

// RequestLatency exposes the latency histogram for API requests.
func RequestLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return requestLatencySeconds
}

// RequestErrors exposes the counter for API error responses.
func RequestErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return requestErrorsTotal
}
