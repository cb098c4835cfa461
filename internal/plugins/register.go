package plugins

import (
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"

	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/plugin"
)

const builtinVersion = "v1.0.0"

func init() {
	Register(plugin.DefaultRegistry())
}

// Register adds every built-in plugin to r.
func Register(r *plugin.Registry) {
	r.MustRegister(EnvName, newEnv)
	r.MustRegister(CleanWorktreeName, newCleanWorktree)
	r.MustRegister(NoopName, newNoop)
	r.MustRegister(ConventionalName, newConventional)
	r.MustRegister(ReleaseRulesName, newReleaseRules)
	r.MustRegister(BranchPolicyName, newBranchPolicy)
	r.MustRegister(VersionPolicyName, newVersionPolicy)
	r.MustRegister(ChangelogName, newChangelog)
	r.MustRegister(CommitListName, newCommitList)
	r.MustRegister(RegistryName, newRegistryPublisher)
	r.MustRegister(HTMLNotesName, newHTMLNotes)
	r.MustRegister(NATSAnnounceName, newNATSAnnounce)
}

// decodeOptions unmarshals raw plugin options into out using koanf tags.
func decodeOptions(name string, options map[string]any, out any) error {
	if len(options) == 0 {
		return nil
	}
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(options, ""), nil); err != nil {
		return ferrors.PluginConfig(name, "cannot load plugin options", err)
	}
	if err := k.Unmarshal("", out); err != nil {
		return ferrors.PluginConfig(name, "cannot decode plugin options", err)
	}
	return nil
}

func metadata(name, description string, caps ...plugin.PluginCapability) plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:         name,
		Version:      builtinVersion,
		Description:  description,
		Author:       "releaser",
		Capabilities: caps,
	}
}
