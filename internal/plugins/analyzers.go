package plugins

import (
	"context"

	"git.home.luguber.info/inful/releaser/internal/analyzer"
	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/plugin"
	"git.home.luguber.info/inful/releaser/internal/release"
)

const (
	ConventionalName = "conventional"
	ReleaseRulesName = "release-rules"
)

// Conventional is the default commit analyzer.
type Conventional struct{}

func newConventional(map[string]any) (plugin.Plugin, error) {
	return Conventional{}, nil
}

func (Conventional) Metadata() plugin.PluginMetadata {
	return metadata(ConventionalName, "Derives the release type from conventional commits", plugin.CapabilityConcurrent)
}

func (Conventional) AnalyzeCommits(_ context.Context, _ *plugin.PluginContext, rc release.Context) (release.ReleaseType, error) {
	return analyzer.Conventional.Analyze(rc.Commits), nil
}

// ReleaseRules maps commits to release types with configured rules.
type ReleaseRules struct {
	Rules analyzer.Rules `koanf:"rules"`
}

func newReleaseRules(options map[string]any) (plugin.Plugin, error) {
	p := &ReleaseRules{}
	if err := decodeOptions(ReleaseRulesName, options, p); err != nil {
		return nil, err
	}
	if len(p.Rules) == 0 {
		return nil, ferrors.PluginConfig(ReleaseRulesName, "at least one rule is required", nil)
	}
	return p, nil
}

func (p *ReleaseRules) Metadata() plugin.PluginMetadata {
	return metadata(ReleaseRulesName, "Derives the release type from configured rules", plugin.CapabilityConcurrent)
}

func (p *ReleaseRules) AnalyzeCommits(_ context.Context, _ *plugin.PluginContext, rc release.Context) (release.ReleaseType, error) {
	return p.Rules.Analyze(rc.Commits), nil
}
