// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal tracks poll cycles run.
	CyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_cycles_total",
			Help: "Total poll cycles run",
		},
	)

	// MessagesProcessed tracks inbound messages by channel and outcome
	// (sent, held, escalated, filtered, failed, skipped).
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_messages_processed_total",
			Help: "Inbound messages processed by outcome",
		},
		[]string{"channel", "outcome"},
	)

	// EscalationsTotal tracks conversations held for human review.
	EscalationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_escalations_total",
			Help: "Conversations held for human review",
		},
		[]string{"channel"},
	)

	// FactConflictsTotal tracks fact-merge conflicts by field.
	FactConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_fact_conflicts_total",
			Help: "Fact merge conflicts by field",
		},
		[]string{"field"},
	)

	// DraftDuration tracks drafting latency per provider.
	DraftDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_draft_duration_seconds",
			Help:    "Response drafting duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "status"},
	)

	// DraftTokensTotal tracks provider tokens processed.
	DraftTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_draft_tokens_total",
			Help: "Provider tokens processed",
		},
		[]string{"provider", "direction"},
	)

	// RequestDuration tracks status API request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total status API requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

// RecordDraft records metrics for one drafting call.
func RecordDraft(provider, status string, duration float64, tokensIn, tokensOut int) {
	DraftDuration.WithLabelValues(provider, status).Observe(duration)
	DraftTokensTotal.WithLabelValues(provider, "in").Add(float64(tokensIn))
	DraftTokensTotal.WithLabelValues(provider, "out").Add(float64(tokensOut))
}

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}
