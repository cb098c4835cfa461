package pipeline

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/releaser/internal/eventstore"
	"git.home.luguber.info/inful/releaser/internal/logfields"
)

// EventObserver appends run events to an event store. Store failures are
// logged and never affect the run.
type EventObserver struct {
	store  eventstore.Store
	logger *slog.Logger
}

// NewEventObserver returns an observer writing to store.
func NewEventObserver(store eventstore.Store, logger *slog.Logger) *EventObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventObserver{store: store, logger: logger}
}

func (e *EventObserver) OnRunStart(ctx context.Context, info RunInfo) {
	ev, err := eventstore.NewRunStarted(info.RunID, info.PackageName, info.LastVersion, info.Head, info.DryRun)
	e.append(ctx, info.RunID, ev, err)
}

func (e *EventObserver) OnStageStart(context.Context, string, State) {}

func (e *EventObserver) OnStageComplete(ctx context.Context, r StageReport) {
	var plugin, msg string
	if r.Err != nil {
		plugin = r.Err.Plugin()
		msg = r.Err.Error()
	}
	ev, err := eventstore.NewStageCompleted(r.RunID, string(r.State), string(r.Result), plugin, msg, r.Duration)
	e.append(ctx, r.RunID, ev, err)
}

func (e *EventObserver) OnRunComplete(ctx context.Context, r *Result) {
	ev, err := eventstore.NewRunFinished(r.RunID, eventstore.RunOutcome{
		State:       string(r.State),
		Kind:        string(r.Kind),
		Version:     r.Context.NextVersion,
		ReleaseType: r.Context.ReleaseType.String(),
		Partial:     r.PartialMutation,
		DryRun:      r.DryRun,
	})
	e.append(ctx, r.RunID, ev, err)
}

func (e *EventObserver) append(ctx context.Context, runID string, ev eventstore.Event, err error) {
	if err == nil {
		err = eventstore.AppendEvent(context.WithoutCancel(ctx), e.store, ev)
	}
	if err != nil {
		e.logger.Warn("Failed to record run event", logfields.RunID(runID), logfields.Error(err))
	}
}
