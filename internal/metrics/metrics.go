// Package metrics exposes Prometheus instruments for the inbox pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "orbit"

var (
	// StageVerdicts counts which cascade layer decided an email and how.
	StageVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_verdicts_total",
			Help:      "Emails decided per cascade stage and category",
		},
		[]string{"stage", "category"},
	)

	QuickParseDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quick_parse_duration_seconds",
			Help:      "Local classification latency per email",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~200ms
		},
	)

	LLMCalls = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_duration_seconds",
			Help:      "External LLM call latency by call shape and outcome",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"kind", "outcome"},
	)

	SyncEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_emails_total",
			Help:      "Emails seen by intake sweeps by result",
		},
		[]string{"result"}, // staged, duplicate, filtered, failed
	)

	CommitDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commit_decisions_total",
			Help:      "Deep-process outcomes per staging record",
		},
		[]string{"result"}, // added, updated, discarded, failed
	)

	GhostTransitions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ghost_transitions_total",
			Help:      "Applications transitioned to ghosted",
		},
	)

	Retrains = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "learned_filter_retrains_total",
			Help:      "Learned filter retrain attempts by outcome",
		},
		[]string{"outcome"}, // trained, skipped, failed
	)

	TaskRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_runs_total",
			Help:      "Scheduled task executions by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
)

// RecordStageVerdict counts a cascade decision.
func RecordStageVerdict(stage, category string) {
	StageVerdicts.WithLabelValues(stage, category).Inc()
}

// RecordQuickParse observes local classification latency.
func RecordQuickParse(duration time.Duration) {
	QuickParseDuration.Observe(duration.Seconds())
}

// RecordLLMCall observes one external LLM call.
func RecordLLMCall(kind, outcome string, duration time.Duration) {
	LLMCalls.WithLabelValues(kind, outcome).Observe(duration.Seconds())
}

// IncrementSync counts one intake result.
func IncrementSync(result string) {
	SyncEmails.WithLabelValues(result).Inc()
}

// IncrementCommit counts one deep-process result.
func IncrementCommit(result string) {
	CommitDecisions.WithLabelValues(result).Inc()
}

// AddGhostTransitions counts ghost transitions.
func AddGhostTransitions(n int) {
	GhostTransitions.Add(float64(n))
}

// IncrementRetrain counts a retrain outcome.
func IncrementRetrain(outcome string) {
	Retrains.WithLabelValues(outcome).Inc()
}

// IncrementTaskRun counts a task execution.
func IncrementTaskRun(kind, outcome string) {
	TaskRuns.WithLabelValues(kind, outcome).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
