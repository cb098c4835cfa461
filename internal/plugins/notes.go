package plugins

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/releaser/internal/commit"
	"git.home.luguber.info/inful/releaser/internal/plugin"
	"git.home.luguber.info/inful/releaser/internal/release"
)

const (
	ChangelogName  = "changelog"
	CommitListName = "commit-list"
)

// Changelog renders grouped markdown release notes.
type Changelog struct {
	// OmitHashes drops the short commit hash after each entry.
	OmitHashes bool `koanf:"omit_hashes"`
}

func newChangelog(options map[string]any) (plugin.Plugin, error) {
	p := &Changelog{}
	if err := decodeOptions(ChangelogName, options, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Changelog) Metadata() plugin.PluginMetadata {
	return metadata(ChangelogName, "Renders grouped markdown release notes")
}

type section struct {
	title string
	types []string
}

var changelogSections = []section{
	{"Features", []string{"feat"}},
	{"Bug Fixes", []string{"fix"}},
	{"Performance", []string{"perf"}},
}

func (p *Changelog) GenerateNotes(_ context.Context, _ *plugin.PluginContext, rc release.Context) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n", rc.NextVersion)

	var breaking []string
	for _, c := range rc.Commits {
		for _, n := range c.Notes {
			breaking = append(breaking, p.entry(c, n.Text))
		}
	}
	writeSection(&b, "Breaking Changes", breaking)

	for _, s := range changelogSections {
		var entries []string
		for _, c := range rc.Commits {
			for _, t := range s.types {
				if c.TypeIs(t) {
					entries = append(entries, p.entry(c, c.Subject))
					break
				}
			}
		}
		writeSection(&b, s.title, entries)
	}
	return b.String(), nil
}

func (p *Changelog) entry(c commit.Commit, text string) string {
	line := text
	if c.Scope != "" {
		line = fmt.Sprintf("**%s:** %s", c.Scope, text)
	}
	if !p.OmitHashes && c.Hash != "" {
		line += " (" + c.ShortHash() + ")"
	}
	return line
}

func writeSection(b *strings.Builder, title string, entries []string) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(b, "\n### %s\n\n", title)
	for _, e := range entries {
		// continuation lines stay inside the bullet
		b.WriteString("- " + strings.ReplaceAll(e, "\n", "\n  ") + "\n")
	}
}

// CommitList renders one bullet per commit.
type CommitList struct {
	// ConventionalOnly skips commits without a conventional header.
	ConventionalOnly bool `koanf:"conventional_only"`
}

func newCommitList(options map[string]any) (plugin.Plugin, error) {
	p := &CommitList{}
	if err := decodeOptions(CommitListName, options, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *CommitList) Metadata() plugin.PluginMetadata {
	return metadata(CommitListName, "Lists every commit of the release")
}

func (p *CommitList) GenerateNotes(_ context.Context, _ *plugin.PluginContext, rc release.Context) (string, error) {
	var b strings.Builder
	for _, c := range rc.Commits {
		if p.ConventionalOnly && !c.IsConventional() {
			continue
		}
		header, _, _ := strings.Cut(c.Message, "\n")
		fmt.Fprintf(&b, "- %s %s\n", c.ShortHash(), strings.TrimSpace(header))
	}
	if b.Len() == 0 {
		return "", nil
	}
	return "### Commits\n\n" + b.String(), nil
}
