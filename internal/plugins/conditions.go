package plugins

import (
	"context"
	"strings"

	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/plugin"
	"git.home.luguber.info/inful/releaser/internal/release"
)

const (
	EnvName           = "env"
	CleanWorktreeName = "clean-worktree"
	NoopName          = "noop"
)

// Env requires environment variables (typically credentials) to be set.
// Only variable names are ever logged.
type Env struct {
	Required []string `koanf:"required"`
}

func newEnv(options map[string]any) (plugin.Plugin, error) {
	p := &Env{}
	if err := decodeOptions(EnvName, options, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Env) Metadata() plugin.PluginMetadata {
	return metadata(EnvName, "Requires environment variables to be set", plugin.CapabilityConcurrent)
}

func (p *Env) VerifyConditions(_ context.Context, pc *plugin.PluginContext, _ release.Context) error {
	var missing []string
	for _, name := range p.Required {
		if v, ok := pc.Getenv(name); !ok || strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return ferrors.NewError(ferrors.KindVerifyConditions, "missing required environment variables: "+strings.Join(missing, ", ")).
			WithPlugin(EnvName).
			WithContext("missing", missing).
			UserAction().
			Build()
	}
	pc.Logger.Debug("Required environment variables present", "count", len(p.Required))
	return nil
}

// CleanWorktree refuses to release from a working tree with uncommitted
// changes to tracked files. Files the releaser manages are exempt.
type CleanWorktree struct{}

func newCleanWorktree(map[string]any) (plugin.Plugin, error) {
	return &CleanWorktree{}, nil
}

func (p *CleanWorktree) Metadata() plugin.PluginMetadata {
	return metadata(CleanWorktreeName, "Requires a clean git working tree", plugin.CapabilityConcurrent)
}

func (p *CleanWorktree) VerifyConditions(_ context.Context, pc *plugin.PluginContext, _ release.Context) error {
	if pc.Repository == nil {
		return ferrors.NewError(ferrors.KindVerifyConditions, "no repository available to inspect").
			WithPlugin(CleanWorktreeName).
			Build()
	}
	clean, err := pc.Repository.IsClean(pc.Managed...)
	if err != nil {
		return ferrors.WrapError(err, ferrors.KindVerifyConditions, "cannot read working tree status").
			WithPlugin(CleanWorktreeName).
			Build()
	}
	if !clean {
		return ferrors.NewError(ferrors.KindVerifyConditions, "working tree has uncommitted changes").
			WithPlugin(CleanWorktreeName).
			UserAction().
			Build()
	}
	return nil
}

// Noop accepts every release. It serves the verifyConditions and
// verifyRelease stages when nothing else is configured.
type Noop struct{}

func newNoop(map[string]any) (plugin.Plugin, error) {
	return Noop{}, nil
}

func (Noop) Metadata() plugin.PluginMetadata {
	return metadata(NoopName, "Accepts every release", plugin.CapabilityConcurrent)
}

func (Noop) VerifyConditions(context.Context, *plugin.PluginContext, release.Context) error {
	return nil
}

func (Noop) VerifyRelease(_ context.Context, _ *plugin.PluginContext, rc release.Context) (release.Context, error) {
	return rc, nil
}
