package pipeline

import (
	"context"
	"time"

	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/metrics"
)

// StageReport describes how one state of a run resolved.
type StageReport struct {
	RunID    string
	State    State
	Result   metrics.ResultLabel
	Err      *ferrors.ClassifiedError
	Duration time.Duration
}

// RunInfo identifies a run to observers when it starts.
type RunInfo struct {
	RunID       string
	PackageName string
	LastVersion string
	Head        string
	DryRun      bool
}

// Observer receives run lifecycle callbacks. Callbacks run synchronously
// on the orchestrator goroutine and must not block for long.
type Observer interface {
	OnRunStart(ctx context.Context, info RunInfo)
	OnStageStart(ctx context.Context, runID string, state State)
	OnStageComplete(ctx context.Context, report StageReport)
	OnRunComplete(ctx context.Context, result *Result)
}

// NoopObserver ignores every callback. Embed it to implement a subset.
type NoopObserver struct{}

func (NoopObserver) OnRunStart(context.Context, RunInfo)          {}
func (NoopObserver) OnStageStart(context.Context, string, State)  {}
func (NoopObserver) OnStageComplete(context.Context, StageReport) {}
func (NoopObserver) OnRunComplete(context.Context, *Result)       {}

type observers []Observer

func (obs observers) runStart(ctx context.Context, info RunInfo) {
	for _, o := range obs {
		o.OnRunStart(ctx, info)
	}
}

func (obs observers) stageStart(ctx context.Context, runID string, s State) {
	for _, o := range obs {
		o.OnStageStart(ctx, runID, s)
	}
}

func (obs observers) stageComplete(ctx context.Context, r StageReport) {
	for _, o := range obs {
		o.OnStageComplete(ctx, r)
	}
}

func (obs observers) runComplete(ctx context.Context, r *Result) {
	for _, o := range obs {
		o.OnRunComplete(ctx, r)
	}
}

// MetricsObserver feeds a metrics.Recorder.
type MetricsObserver struct {
	NoopObserver
	Recorder metrics.Recorder
}

// NewMetricsObserver returns an observer recording into rec.
func NewMetricsObserver(rec metrics.Recorder) *MetricsObserver {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &MetricsObserver{Recorder: rec}
}

func (m *MetricsObserver) OnStageComplete(_ context.Context, r StageReport) {
	m.Recorder.ObserveStageDuration(string(r.State), r.Duration)
	m.Recorder.IncStageResult(string(r.State), r.Result)
	if r.Err != nil && r.Err.Plugin() != "" {
		m.Recorder.IncPluginFailure(string(r.State), r.Err.Plugin())
	}
}

func (m *MetricsObserver) OnRunComplete(_ context.Context, r *Result) {
	m.Recorder.ObserveRunDuration(r.Duration)
	m.Recorder.IncRunOutcome(r.Outcome())
}
