// Package observability wires tracing and metrics for the backend. This file
// exposes the domain-level Prometheus collectors: webhook request counts,
// code generation durations and failures, and the in-flight job gauge. HTTP
// transport metrics live in the middleware package; these collectors cover
// the processing workflow itself.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// webhookReqs counts inbound webhook requests by method, status, and endpoint.
	webhookReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_requests_total",
			Help: "Total number of webhook requests received.",
		},
		[]string{"method", "status", "endpoint"},
	)

	// codeGenDuration records end-to-end code assignment time. The success
	// label separates clean runs from ones that failed at the remote or
	// store step.
	codeGenDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "code_generation_duration_seconds",
			Help:    "Time spent generating and assigning batch codes.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"type", "success"},
	)

	// codeGenErrors counts processing failures by kind.
	codeGenErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "code_generation_errors_total",
			Help: "Total number of code generation errors.",
		},
		[]string{"error_type"},
	)

	// activeJobs gauges webhook runs currently in flight.
	activeJobs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_webhook_jobs",
			Help: "Number of webhook processing runs in flight.",
		},
	)
)

func init() {
	prometheus.MustRegister(webhookReqs, codeGenDuration, codeGenErrors, activeJobs)
}

// RecordWebhookRequest counts one inbound webhook request outcome.
func RecordWebhookRequest(method string, status int, endpoint string) {
	webhookReqs.WithLabelValues(method, strconv.Itoa(status), endpoint).Inc()
}

// Metrics is the Prometheus-backed services.Observer implementation. The
// zero value is ready to use; all collectors are package-level and safe for
// concurrent use.
type Metrics struct{}

// JobStarted increments the in-flight job gauge.
func (Metrics) JobStarted() { activeJobs.Inc() }

// JobFinished decrements the in-flight job gauge.
func (Metrics) JobFinished() { activeJobs.Dec() }

// CodeGenerated observes one code assignment attempt.
func (Metrics) CodeGenerated(d time.Duration, success bool) {
	codeGenDuration.WithLabelValues("batch_code", strconv.FormatBool(success)).Observe(d.Seconds())
}

// ErrorRecorded counts a processing failure by kind.
func (Metrics) ErrorRecorded(kind string) {
	codeGenErrors.WithLabelValues(kind).Inc()
}
