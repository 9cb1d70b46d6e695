/*-------------------------------------------------------------------------
 *
 * prometheus.go
 *    Prometheus metrics for the lifecycle engine
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/metrics/prometheus.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	/* Request metrics */
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchbase_engine_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "launchbase_engine_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	/* Lifecycle metrics */
	actionRequestsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchbase_engine_action_requests_created_total",
			Help: "Total number of action requests created",
		},
		[]string{"tenant", "checklist_key"},
	)

	appliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchbase_engine_applies_total",
			Help: "Total number of apply attempts by outcome",
		},
		[]string{"outcome"},
	)

	classificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchbase_engine_classifications_total",
			Help: "Total number of reply classifications by intent",
		},
		[]string{"intent"},
	)

	auditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchbase_engine_audit_events_total",
			Help: "Total number of audit events written",
		},
		[]string{"event_type"},
	)

	auditEventFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "launchbase_engine_audit_event_failures_total",
			Help: "Total number of audit events that failed to persist",
		},
	)

	/* Delivery metrics */
	emailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchbase_engine_emails_sent_total",
			Help: "Total number of outbound emails by provider and status",
		},
		[]string{"provider", "status"},
	)

	/* Sequencer metrics */
	sequencerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchbase_engine_sequencer_runs_total",
			Help: "Total number of sequencer ticks",
		},
		[]string{"status"},
	)

	sequencerRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "launchbase_engine_sequencer_run_duration_seconds",
			Help:    "Sequencer tick duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	previewsRenderedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchbase_engine_previews_rendered_total",
			Help: "Total number of proposed-change previews rendered",
		},
		[]string{"result"},
	)
)

/* RecordHTTPRequest records an HTTP request */
func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

/* RecordActionRequestCreated records a created action request */
func RecordActionRequestCreated(tenant, checklistKey string) {
	actionRequestsCreatedTotal.WithLabelValues(tenant, checklistKey).Inc()
}

/* RecordApply records an apply attempt outcome */
func RecordApply(outcome string) {
	appliesTotal.WithLabelValues(outcome).Inc()
}

/* RecordClassification records a reply classification */
func RecordClassification(intent string) {
	classificationsTotal.WithLabelValues(intent).Inc()
}

/* RecordAuditEvent records a persisted audit event */
func RecordAuditEvent(eventType string) {
	auditEventsTotal.WithLabelValues(eventType).Inc()
}

/* RecordAuditEventFailure records a failed audit event write */
func RecordAuditEventFailure() {
	auditEventFailuresTotal.Inc()
}

/* RecordEmailSent records an outbound email attempt */
func RecordEmailSent(provider, status string) {
	emailsSentTotal.WithLabelValues(provider, status).Inc()
}

/* RecordSequencerRun records a sequencer tick */
func RecordSequencerRun(status string, duration time.Duration) {
	sequencerRunsTotal.WithLabelValues(status).Inc()
	sequencerRunDuration.Observe(duration.Seconds())
}

/* RecordPreviewRendered records a preview render result */
func RecordPreviewRendered(result string) {
	previewsRenderedTotal.WithLabelValues(result).Inc()
}

/* Handler returns the prometheus metrics HTTP handler */
func Handler() http.Handler {
	return promhttp.Handler()
}
