package plugins

import (
	"context"
	"errors"
	"fmt"
	"path"

	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/plugin"
	"git.home.luguber.info/inful/releaser/internal/release"
	"git.home.luguber.info/inful/releaser/internal/store"
	"git.home.luguber.info/inful/releaser/internal/versioning"
)

const (
	BranchPolicyName  = "branch-policy"
	VersionPolicyName = "version-policy"
)

// BranchPolicy vetoes releases from branches outside the allowed list.
// Entries accept path.Match patterns such as "release/*".
type BranchPolicy struct {
	Branches []string `koanf:"branches"`
}

func newBranchPolicy(options map[string]any) (plugin.Plugin, error) {
	p := &BranchPolicy{}
	if err := decodeOptions(BranchPolicyName, options, p); err != nil {
		return nil, err
	}
	if len(p.Branches) == 0 {
		p.Branches = []string{"main", "master"}
	}
	for _, b := range p.Branches {
		if _, err := path.Match(b, ""); err != nil {
			return nil, ferrors.PluginConfig(BranchPolicyName, fmt.Sprintf("invalid branch pattern %q", b), err)
		}
	}
	return p, nil
}

func (p *BranchPolicy) Metadata() plugin.PluginMetadata {
	return metadata(BranchPolicyName, "Only releases from allowed branches")
}

func (p *BranchPolicy) VerifyRelease(_ context.Context, pc *plugin.PluginContext, rc release.Context) (release.Context, error) {
	branch := rc.Branch
	if branch == "" && pc.Repository != nil {
		current, err := pc.Repository.CurrentBranch()
		if err != nil {
			return rc, ferrors.WrapError(err, ferrors.KindVerifyRelease, "cannot determine the current branch").
				WithPlugin(BranchPolicyName).
				Build()
		}
		branch = current
	}
	for _, pattern := range p.Branches {
		if ok, _ := path.Match(pattern, branch); ok {
			return rc, nil
		}
	}
	return rc, ferrors.NewError(ferrors.KindVerifyRelease, fmt.Sprintf("branch %q is not a release branch", branch)).
		WithPlugin(BranchPolicyName).
		WithContext("allowed", p.Branches).
		Build()
}

// VersionPolicy vetoes a version that does not exceed every published
// version of the package, and names the release tag.
type VersionPolicy struct {
	TagFormat string `koanf:"tag_format"`
}

func newVersionPolicy(options map[string]any) (plugin.Plugin, error) {
	p := &VersionPolicy{}
	if err := decodeOptions(VersionPolicyName, options, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *VersionPolicy) Metadata() plugin.PluginMetadata {
	return metadata(VersionPolicyName, "Requires the next version to exceed every published version")
}

func (p *VersionPolicy) VerifyRelease(ctx context.Context, pc *plugin.PluginContext, rc release.Context) (release.Context, error) {
	if pc.Store != nil {
		records, err := pc.Store.List(ctx, rc.PackageName)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return rc, ferrors.WrapError(err, ferrors.KindVerifyRelease, "cannot list published versions").
				WithPlugin(VersionPolicyName).
				Build()
		}
		for _, rec := range records {
			cmp, err := versioning.Compare(rc.NextVersion, rec.Version)
			if err != nil {
				pc.Logger.Warn("Skipping unparsable published version", "published", rec.Version)
				continue
			}
			if cmp <= 0 {
				return rc, ferrors.NewError(ferrors.KindVerifyRelease,
					fmt.Sprintf("version %s is not greater than published version %s", rc.NextVersion, rec.Version)).
					WithPlugin(VersionPolicyName).
					WithContext("published", rec.Version).
					Build()
			}
		}
	}

	format := p.TagFormat
	if format == "" {
		format = pc.TagFormat
	}
	rc.TagName = versioning.RenderTag(format, rc.NextVersion)
	return rc, nil
}
