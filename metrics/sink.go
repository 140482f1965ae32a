package metrics

import (
	"context"
	"sync"
	"time"
)

// StageSink adapts the collectors to the workflow status sink. It tracks
// stage start times per run to compute durations.
type StageSink struct {
	metrics *Metrics

	mu      sync.Mutex
	started map[string]time.Time
}

// NewStageSink builds a sink feeding the given collectors.
func NewStageSink(m *Metrics) *StageSink {
	return &StageSink{
		metrics: m,
		started: make(map[string]time.Time),
	}
}

func (s *StageSink) key(id, stage string) string {
	return id + "/" + stage
}

// StageStarted records the stage start time.
func (s *StageSink) StageStarted(ctx context.Context, id, stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started[s.key(id, stage)] = time.Now()
}

// StageCompleted records a completed stage duration.
func (s *StageSink) StageCompleted(ctx context.Context, id, stage string) {
	s.observe(id, stage, "completed")
}

// StageFailed records a failed stage duration.
func (s *StageSink) StageFailed(ctx context.Context, id, stage, errMsg string) {
	s.observe(id, stage, "failed")
}

func (s *StageSink) observe(id, stage, outcome string) {
	s.mu.Lock()
	start, ok := s.started[s.key(id, stage)]
	if ok {
		delete(s.started, s.key(id, stage))
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	s.metrics.RecordStage(stage, outcome, time.Since(start))
}
