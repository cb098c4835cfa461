package plugin

import (
	"context"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/releaser/internal/logfields"
	"git.home.luguber.info/inful/releaser/internal/release"
)

// ArtifactStore is the durable registry of published artifacts.
type ArtifactStore interface {
	Publish(ctx context.Context, a release.Artifact) error
	Read(ctx context.Context, name string) (release.Record, error)
	List(ctx context.Context, name string) ([]release.Record, error)
}

// Repository exposes the working-copy facts condition plugins check.
type Repository interface {
	IsClean(ignore ...string) (bool, error)
	CurrentBranch() (string, error)
}

// MessageBus delivers release announcements.
type MessageBus interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// PluginContext provides plugins with access to release collaborators.
// Any collaborator may be nil when not configured.
type PluginContext struct {
	// Stage is the stage the plugin is currently running on.
	Stage Stage

	// Logger is scoped with the plugin and stage attributes.
	Logger *slog.Logger

	Store      ArtifactStore
	Repository Repository
	Bus        MessageBus

	// WorkDir is the repository root; relative plugin paths resolve against it.
	WorkDir string

	// TagFormat renders tag names from versions.
	TagFormat string

	// Managed lists the files the releaser itself writes, absolute or
	// relative to WorkDir. Plugins must treat the slice as read-only.
	Managed []string

	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)
}

// ForPlugin returns a copy scoped to the named plugin on stage.
func (pc *PluginContext) ForPlugin(stage Stage, name string) *PluginContext {
	cp := *pc
	cp.Stage = stage
	logger := pc.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cp.Logger = logger.With(logfields.Stage(string(stage)), logfields.Plugin(name))
	return &cp
}

// Getenv looks up an environment variable through LookupEnv.
func (pc *PluginContext) Getenv(key string) (string, bool) {
	if pc.LookupEnv != nil {
		return pc.LookupEnv(key)
	}
	return os.LookupEnv(key)
}
