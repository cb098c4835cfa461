// Package analyzer reduces a commit set to a single release type.
package analyzer

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/releaser/internal/commit"
	"git.home.luguber.info/inful/releaser/internal/release"
)

// Analyzer derives one release type for a whole commit set.
type Analyzer interface {
	Analyze(commits []commit.Commit) release.ReleaseType
}

// Func adapts a function to Analyzer.
type Func func(commits []commit.Commit) release.ReleaseType

// Analyze implements Analyzer.
func (f Func) Analyze(commits []commit.Commit) release.ReleaseType { return f(commits) }

// Conventional is the default analyzer: a breaking-change note means major,
// a feat commit minor, a fix or perf commit patch, anything else none.
var Conventional Analyzer = Func(func(commits []commit.Commit) release.ReleaseType {
	return reduce(commits, ClassifyConventional)
})

// ClassifyConventional returns the release type a single commit warrants.
func ClassifyConventional(c commit.Commit) release.ReleaseType {
	switch {
	case c.HasBreakingNote():
		return release.Major
	case c.TypeIs("feat"):
		return release.Minor
	case c.TypeIs("fix"), c.TypeIs("perf"):
		return release.Patch
	default:
		return release.None
	}
}

// Rule maps matching commits to a release type. Empty Type and Scope match
// anything; Scope accepts path.Match patterns. A nil Breaking matches both.
type Rule struct {
	Type     string              `koanf:"type"`
	Scope    string              `koanf:"scope"`
	Breaking *bool               `koanf:"breaking"`
	Release  release.ReleaseType `koanf:"release"`
}

// Matches reports whether the rule applies to c.
func (r Rule) Matches(c commit.Commit) bool {
	if r.Type != "" && !c.TypeIs(r.Type) {
		return false
	}
	if r.Scope != "" {
		ok, err := path.Match(strings.ToLower(r.Scope), strings.ToLower(c.Scope))
		if err != nil || !ok {
			return false
		}
	}
	if r.Breaking != nil && *r.Breaking != c.HasBreakingNote() {
		return false
	}
	return true
}

// Rules is an analyzer driven by an ordered rule list; the first matching
// rule decides a commit's release type.
type Rules []Rule

// Analyze implements Analyzer.
func (rs Rules) Analyze(commits []commit.Commit) release.ReleaseType {
	return reduce(commits, func(c commit.Commit) release.ReleaseType {
		for _, r := range rs {
			if r.Matches(c) {
				return r.Release
			}
		}
		return release.None
	})
}

// Combine runs each analyzer and returns the maximum result. The
// reduction is order-independent.
func Combine(analyzers []Analyzer, commits []commit.Commit) release.ReleaseType {
	out := release.None
	for _, a := range analyzers {
		out = out.Max(a.Analyze(commits))
	}
	return out
}

func reduce(commits []commit.Commit, classify func(commit.Commit) release.ReleaseType) release.ReleaseType {
	out := release.None
	for _, c := range commits {
		out = out.Max(classify(c))
		if out == release.Major {
			break
		}
	}
	return out
}
