package eventstore

import (
	"testing"
)

func appendTyped(t *testing.T, store Store, e Event, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("failed to build event: %v", err)
	}
	if err := AppendEvent(t.Context(), store, e); err != nil {
		t.Fatalf("failed to append event: %v", err)
	}
}

func TestRunHistoryProjectionRebuild(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	started, err := NewRunStarted("run-1", "demo", "1.0.0", "abc", false)
	appendTyped(t, store, started, err)
	stage, err := NewStageCompleted("run-1", "AnalyzeCommits", "success", "", "", 0)
	appendTyped(t, store, stage, err)
	failed, err := NewStageCompleted("run-1", "Publish", "fatal", "registry", "boom", 0)
	appendTyped(t, store, failed, err)
	finished, err := NewRunFinished("run-1", RunOutcome{State: "Aborted", Kind: "EPUBLISH", Partial: true})
	appendTyped(t, store, finished, err)

	started2, err := NewRunStarted("run-2", "demo", "", "def", true)
	appendTyped(t, store, started2, err)

	projection := NewRunHistoryProjection(store, 10)
	if err := projection.Rebuild(t.Context()); err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}

	run, ok := projection.GetRun("run-1")
	if !ok {
		t.Fatal("expected run-1 in projection")
	}
	if run.Package != "demo" {
		t.Errorf("expected package demo, got %q", run.Package)
	}
	if run.Status != "Aborted" || run.Kind != "EPUBLISH" {
		t.Errorf("expected Aborted/EPUBLISH, got %s/%s", run.Status, run.Kind)
	}
	if run.Stages != 2 {
		t.Errorf("expected 2 stages, got %d", run.Stages)
	}
	if run.FailedStage != "Publish" {
		t.Errorf("expected failed stage Publish, got %q", run.FailedStage)
	}
	if run.CompletedAt == nil {
		t.Error("expected completion time")
	}

	running, ok := projection.GetRun("run-2")
	if !ok {
		t.Fatal("expected run-2 in projection")
	}
	if running.Status != runStatusRunning || !running.DryRun {
		t.Errorf("expected running dry-run, got %+v", running)
	}

	if got := len(projection.History()); got != 2 {
		t.Errorf("expected 2 runs in history, got %d", got)
	}
}

func TestRunHistoryProjectionBounded(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	projection := NewRunHistoryProjection(store, 2)
	for _, id := range []string{"a", "b", "c"} {
		e, err := NewRunStarted(id, "demo", "", "", false)
		if err != nil {
			t.Fatalf("failed to build event: %v", err)
		}
		projection.Apply(e)
	}
	if got := len(projection.History()); got != 2 {
		t.Errorf("expected history bounded to 2, got %d", got)
	}
}

func TestRunHistoryProjectionIgnoresAnonymousEvents(t *testing.T) {
	projection := NewRunHistoryProjection(nil, 0)
	projection.Apply(&BaseEvent{EventType: TypeRunStarted})
	if got := len(projection.History()); got != 0 {
		t.Errorf("expected empty history, got %d", got)
	}
}
