// Package pipeline runs the release state machine: it verifies
// preconditions, analyzes commits, computes the next version, lets plugins
// veto it, renders notes, publishes, and confirms the published artifact is
// bound to the commit captured at the start of the run.
package pipeline

import (
	"time"

	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/release"
)

// State is a node of the release state machine.
type State string

const (
	StateInit             State = "Init"
	StateVerifyConditions State = "VerifyConditions"
	StateAnalyzeCommits   State = "AnalyzeCommits"
	StateComputeVersion   State = "ComputeVersion"
	StateVerifyRelease    State = "VerifyRelease"
	StateGenerateNotes    State = "GenerateNotes"
	StatePublish          State = "Publish"
	StateVerified         State = "Verified"
	StateDone             State = "Done"
	StateAborted          State = "Aborted"
)

func (s State) String() string { return string(s) }

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateAborted
}

// mutating reports whether s may write durable side effects. Cancellation
// is not honored from Publish on.
func (s State) mutating() bool {
	return s == StatePublish || s == StateVerified || s == StateDone
}

// Result is the outcome of one release run.
type Result struct {
	RunID string
	// State is StateDone or StateAborted.
	State State
	// Kind is the abort reason; empty when the run is Done.
	Kind ferrors.Kind
	Err  *ferrors.ClassifiedError
	// Context is the final release context, including the computed version.
	Context release.Context
	// Transitions lists every state entered, in order.
	Transitions []State
	DryRun      bool
	// PartialMutation is set when durable side effects happened before the abort.
	PartialMutation bool
	// Warnings collects non-fatal failures, such as omitted notes fragments.
	Warnings []*ferrors.ClassifiedError
	Duration time.Duration
}

// Released reports whether a new version was published and verified.
func (r *Result) Released() bool {
	return r.State == StateDone && !r.DryRun
}

// NoChange reports whether the run ended because nothing qualified for a release.
func (r *Result) NoChange() bool {
	return r.Kind == ferrors.KindNoChange
}

// Outcome is the label recorded for the run: "done", "dry_run" or the abort kind.
func (r *Result) Outcome() string {
	switch {
	case r.State == StateDone && r.DryRun:
		return "dry_run"
	case r.State == StateDone:
		return "done"
	default:
		return string(r.Kind)
	}
}
