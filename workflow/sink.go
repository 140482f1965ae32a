package workflow

import "context"

// MultiSink fans status transitions out to several sinks. Nil entries are
// skipped.
type MultiSink []StatusSink

func (m MultiSink) StageStarted(ctx context.Context, id, stage string) {
	for _, s := range m {
		if s != nil {
			s.StageStarted(ctx, id, stage)
		}
	}
}

func (m MultiSink) StageCompleted(ctx context.Context, id, stage string) {
	for _, s := range m {
		if s != nil {
			s.StageCompleted(ctx, id, stage)
		}
	}
}

func (m MultiSink) StageFailed(ctx context.Context, id, stage, errMsg string) {
	for _, s := range m {
		if s != nil {
			s.StageFailed(ctx, id, stage, errMsg)
		}
	}
}
