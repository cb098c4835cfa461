package eventstore

import (
	"encoding/json"
	"time"
)

// Event type names.
const (
	TypeRunStarted     = "RunStarted"
	TypeStageCompleted = "StageCompleted"
	TypeRunFinished    = "RunFinished"
)

// RunStarted is emitted when a release run begins.
type RunStarted struct {
	BaseEvent
	Package     string `json:"package"`
	LastVersion string `json:"last_version,omitempty"`
	Head        string `json:"head,omitempty"`
	DryRun      bool   `json:"dry_run"`
}

// NewRunStarted creates a RunStarted event.
func NewRunStarted(runID, pkg, lastVersion, head string, dryRun bool) (*RunStarted, error) {
	e := &RunStarted{Package: pkg, LastVersion: lastVersion, Head: head, DryRun: dryRun}
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, storeError("failed to marshal RunStarted payload").
			WithCause(err).
			WithContext("run_id", runID).
			Build()
	}
	e.BaseEvent = BaseEvent{
		EventRunID:     runID,
		EventType:      TypeRunStarted,
		EventTimestamp: time.Now(),
		EventPayload:   payload,
	}
	return e, nil
}

// StageCompleted is emitted after every state of the run resolves.
type StageCompleted struct {
	BaseEvent
	Stage    string        `json:"stage"`
	Result   string        `json:"result"`
	Plugin   string        `json:"plugin,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"-"`
}

// NewStageCompleted creates a StageCompleted event.
func NewStageCompleted(runID, stage, result, plugin, errMsg string, duration time.Duration) (*StageCompleted, error) {
	payload, err := json.Marshal(map[string]any{
		"stage":       stage,
		"result":      result,
		"plugin":      plugin,
		"error":       errMsg,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return nil, storeError("failed to marshal StageCompleted payload").
			WithCause(err).
			WithContext("run_id", runID).
			WithContext("stage", stage).
			Build()
	}
	return &StageCompleted{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      TypeStageCompleted,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Stage:    stage,
		Result:   result,
		Plugin:   plugin,
		Error:    errMsg,
		Duration: duration,
	}, nil
}

// RunFinished is emitted when the run reaches a terminal state.
type RunFinished struct {
	BaseEvent
	State       string `json:"state"`
	Kind        string `json:"kind,omitempty"`
	Version     string `json:"version,omitempty"`
	ReleaseType string `json:"release_type,omitempty"`
	Partial     bool   `json:"partial_mutation,omitempty"`
	DryRun      bool   `json:"dry_run,omitempty"`
}

// RunOutcome carries the fields of a RunFinished event.
type RunOutcome struct {
	State       string
	Kind        string
	Version     string
	ReleaseType string
	Partial     bool
	DryRun      bool
}

// NewRunFinished creates a RunFinished event.
func NewRunFinished(runID string, o RunOutcome) (*RunFinished, error) {
	e := &RunFinished{
		State:       o.State,
		Kind:        o.Kind,
		Version:     o.Version,
		ReleaseType: o.ReleaseType,
		Partial:     o.Partial,
		DryRun:      o.DryRun,
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, storeError("failed to marshal RunFinished payload").
			WithCause(err).
			WithContext("run_id", runID).
			Build()
	}
	e.BaseEvent = BaseEvent{
		EventRunID:     runID,
		EventType:      TypeRunFinished,
		EventTimestamp: time.Now(),
		EventPayload:   payload,
	}
	return e, nil
}
