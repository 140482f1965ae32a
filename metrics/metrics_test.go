package metrics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/reqflow/llm"
	"github.com/c360studio/reqflow/model"
)

func TestRecordExecution(t *testing.T) {
	m := New()
	m.RecordExecution("complete", true)
	m.RecordExecution("complete", true)
	m.RecordExecution("error", false)

	assert.Equal(t, float64(2),
		testutil.ToFloat64(m.executions.WithLabelValues("complete", "true")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.executions.WithLabelValues("error", "false")))
}

func TestObserveLLMCall(t *testing.T) {
	m := New()
	m.ObserveLLMCall(llm.CallStats{
		Role:     model.RoleFormatter,
		Model:    "claude-sonnet",
		Duration: 1200 * time.Millisecond,
		Usage:    llm.TokenUsage{PromptTokens: 900, CompletionTokens: 400},
	})
	m.ObserveLLMCall(llm.CallStats{
		Role:  model.RoleFormatter,
		Model: "claude-sonnet",
		Err:   fmt.Errorf("all endpoints exhausted"),
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.llmCalls.WithLabelValues("prd-formatter", "claude-sonnet", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.llmCalls.WithLabelValues("prd-formatter", "claude-sonnet", "error")))
	assert.Equal(t, float64(900), testutil.ToFloat64(
		m.llmTokens.WithLabelValues("prd-formatter", "prompt")))
}

func TestStageSinkObservesDurations(t *testing.T) {
	m := New()
	sink := NewStageSink(m)
	ctx := context.Background()

	sink.StageStarted(ctx, "run-1", "validation")
	sink.StageCompleted(ctx, "run-1", "validation")

	// A completion with no matching start is ignored.
	sink.StageCompleted(ctx, "run-2", "formatting")

	count := testutil.CollectAndCount(m.stageDuration)
	require.Equal(t, 1, count)
}
