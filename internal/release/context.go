package release

import (
	"git.home.luguber.info/inful/releaser/internal/commit"
)

// Context is the evolving value passed through a release run. Stages
// receive a copy and return an enriched copy; nothing is shared by
// reference between the input and the output of a stage.
type Context struct {
	RunID       string
	PackageName string
	// LastVersion is empty when the package was never released.
	LastVersion string
	// LastCommit is the commit bound to the last release, empty when none.
	LastCommit string
	// Head is captured once at Init and bound into the published artifact.
	Head    string
	Branch  string
	Commits []commit.Commit

	ReleaseType ReleaseType
	NextVersion string
	TagName     string
	Notes       string

	// PluginConfig is the configured plugin list per stage, as plain maps
	// and slices.
	PluginConfig map[string]any
	DryRun       bool
}

// Clone returns a deep copy of the context.
func (c Context) Clone() Context {
	if c.Commits != nil {
		commits := make([]commit.Commit, len(c.Commits))
		for i, cm := range c.Commits {
			commits[i] = cm.Clone()
		}
		c.Commits = commits
	}
	c.PluginConfig = CloneConfig(c.PluginConfig)
	return c
}

// CloneConfig deep-copies nested maps and slices of a configuration tree.
// Other values are copied as they are.
func CloneConfig(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneConfig(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, e := range t {
			out[i] = CloneConfig(e)
		}
		return out
	default:
		return v
	}
}

// IsFirstRelease reports whether no prior version exists.
func (c Context) IsFirstRelease() bool {
	return c.LastVersion == ""
}
