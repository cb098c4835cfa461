package plugin

import (
	"context"

	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/release"
)

// Stage identifies a plugin pipeline stage.
type Stage string

const (
	StageVerifyConditions Stage = "verifyConditions"
	StageAnalyzeCommits   Stage = "analyzeCommits"
	StageVerifyRelease    Stage = "verifyRelease"
	StageGenerateNotes    Stage = "generateNotes"
	StagePublish          Stage = "publish"
)

// Stages lists every plugin stage in pipeline order.
var Stages = []Stage{
	StageVerifyConditions,
	StageAnalyzeCommits,
	StageVerifyRelease,
	StageGenerateNotes,
	StagePublish,
}

// IsValid returns true if the stage is recognized.
func (s Stage) IsValid() bool {
	switch s {
	case StageVerifyConditions, StageAnalyzeCommits, StageVerifyRelease, StageGenerateNotes, StagePublish:
		return true
	default:
		return false
	}
}

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// FailureKind is the error kind a plugin failure on this stage maps to.
func (s Stage) FailureKind() ferrors.Kind {
	switch s {
	case StageVerifyConditions:
		return ferrors.KindVerifyConditions
	case StageVerifyRelease:
		return ferrors.KindVerifyRelease
	case StageGenerateNotes:
		return ferrors.KindGenerateNotes
	case StagePublish:
		return ferrors.KindPublish
	default:
		return ferrors.KindInternal
	}
}

// ConditionVerifier checks preconditions before anything is mutated.
type ConditionVerifier interface {
	Plugin
	VerifyConditions(ctx context.Context, pc *PluginContext, rc release.Context) error
}

// CommitAnalyzer derives a release type for the whole commit set.
type CommitAnalyzer interface {
	Plugin
	AnalyzeCommits(ctx context.Context, pc *PluginContext, rc release.Context) (release.ReleaseType, error)
}

// ReleaseVerifier may veto a release by returning an error, or return an
// enriched copy of the context. It must not change the next version or HEAD.
type ReleaseVerifier interface {
	Plugin
	VerifyRelease(ctx context.Context, pc *PluginContext, rc release.Context) (release.Context, error)
}

// NotesGenerator renders a fragment of the release notes.
type NotesGenerator interface {
	Plugin
	GenerateNotes(ctx context.Context, pc *PluginContext, rc release.Context) (string, error)
}

// Publisher performs a durable publish step.
type Publisher interface {
	Plugin
	Publish(ctx context.Context, pc *PluginContext, rc release.Context) error
}

// Supports reports whether p implements the capability interface for stage.
func Supports(p Plugin, stage Stage) bool {
	switch stage {
	case StageVerifyConditions:
		_, ok := p.(ConditionVerifier)
		return ok
	case StageAnalyzeCommits:
		_, ok := p.(CommitAnalyzer)
		return ok
	case StageVerifyRelease:
		_, ok := p.(ReleaseVerifier)
		return ok
	case StageGenerateNotes:
		_, ok := p.(NotesGenerator)
		return ok
	case StagePublish:
		_, ok := p.(Publisher)
		return ok
	default:
		return false
	}
}
