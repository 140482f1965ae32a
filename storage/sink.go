package storage

import (
	"context"
	"log/slog"
)

// StepSink adapts a Store into the workflow engine's status sink. Updates
// are best-effort: a tracking failure is logged and never propagated into
// the pipeline.
type StepSink struct {
	store  Store
	logger *slog.Logger
}

// NewStepSink creates a StepSink writing to the given store.
func NewStepSink(store Store, logger *slog.Logger) *StepSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &StepSink{store: store, logger: logger}
}

// StageStarted marks a pipeline step as processing.
func (s *StepSink) StageStarted(ctx context.Context, id, stage string) {
	if err := s.store.UpdateStep(ctx, id, stage, StatusProcessing, ""); err != nil {
		s.logger.Warn("Failed to record stage start",
			"requirement_id", id, "stage", stage, "error", err)
	}
}

// StageCompleted marks a pipeline step as completed.
func (s *StepSink) StageCompleted(ctx context.Context, id, stage string) {
	if err := s.store.UpdateStep(ctx, id, stage, StatusCompleted, ""); err != nil {
		s.logger.Warn("Failed to record stage completion",
			"requirement_id", id, "stage", stage, "error", err)
	}
}

// StageFailed marks a pipeline step as failed.
func (s *StepSink) StageFailed(ctx context.Context, id, stage, errMsg string) {
	if err := s.store.UpdateStep(ctx, id, stage, StatusFailed, errMsg); err != nil {
		s.logger.Warn("Failed to record stage failure",
			"requirement_id", id, "stage", stage, "error", err)
	}
}
