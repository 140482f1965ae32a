// Package metrics exposes Prometheus collectors for workflow executions
// and model calls.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/c360studio/reqflow/llm"
)

// Metrics holds the collectors for one process.
type Metrics struct {
	registry *prometheus.Registry

	executions    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	llmCalls      *prometheus.CounterVec
	llmDuration   *prometheus.HistogramVec
	llmTokens     *prometheus.CounterVec
}

// New builds the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		executions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reqflow",
			Name:      "workflow_executions_total",
			Help:      "Workflow executions by final stage.",
		}, []string{"final_stage", "success"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reqflow",
			Name:      "workflow_stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"stage", "outcome"}),
		llmCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reqflow",
			Name:      "llm_calls_total",
			Help:      "Model calls by role, model, and outcome.",
		}, []string{"role", "model", "outcome"}),
		llmDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reqflow",
			Name:      "llm_call_duration_seconds",
			Help:      "Model call latency including retries and fallbacks.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"role"}),
		llmTokens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reqflow",
			Name:      "llm_tokens_total",
			Help:      "Tokens consumed by role and direction.",
		}, []string{"role", "direction"}),
	}
}

// Registry returns the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordExecution counts one finished workflow execution.
func (m *Metrics) RecordExecution(finalStage string, success bool) {
	m.executions.WithLabelValues(finalStage, strconv.FormatBool(success)).Inc()
}

// RecordStage records one stage's duration and outcome.
func (m *Metrics) RecordStage(stage, outcome string, duration time.Duration) {
	m.stageDuration.WithLabelValues(stage, outcome).Observe(duration.Seconds())
}

// ObserveLLMCall feeds the model-call collectors. It satisfies the
// llm.WithObserver hook.
func (m *Metrics) ObserveLLMCall(stats llm.CallStats) {
	outcome := "success"
	if stats.Err != nil {
		outcome = "error"
	}
	role := string(stats.Role)
	m.llmCalls.WithLabelValues(role, stats.Model, outcome).Inc()
	m.llmDuration.WithLabelValues(role).Observe(stats.Duration.Seconds())
	if stats.Usage.PromptTokens > 0 {
		m.llmTokens.WithLabelValues(role, "prompt").Add(float64(stats.Usage.PromptTokens))
	}
	if stats.Usage.CompletionTokens > 0 {
		m.llmTokens.WithLabelValues(role, "completion").Add(float64(stats.Usage.CompletionTokens))
	}
}
