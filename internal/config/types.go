// Package config loads the layered releaser configuration.
package config

import (
	"git.home.luguber.info/inful/releaser/internal/manifest"
	"git.home.luguber.info/inful/releaser/internal/plugin"
	"git.home.luguber.info/inful/releaser/internal/release"
)

// Config is the complete releaser configuration.
type Config struct {
	// Package is the artifact name; defaults to the first JSON document's name.
	Package        string          `koanf:"package" yaml:"package,omitempty"`
	Branch         string          `koanf:"branch" yaml:"branch"`
	InitialVersion string          `koanf:"initial_version" yaml:"initial_version"`
	TagFormat      string          `koanf:"tag_format" yaml:"tag_format"`
	Repository     string          `koanf:"repository" yaml:"repository"`
	Documents      []manifest.Spec `koanf:"documents" yaml:"documents,omitempty"`
	Store          StoreConfig     `koanf:"store" yaml:"store"`
	Events         EventsConfig    `koanf:"events" yaml:"events"`
	Verify         RetryConfig     `koanf:"verify" yaml:"verify"`
	Plugins        PluginsConfig   `koanf:"plugins" yaml:"plugins"`
	Logging        LoggingConfig   `koanf:"logging" yaml:"logging"`
	Metrics        MetricsConfig   `koanf:"metrics" yaml:"metrics,omitempty"`
	NATS           NATSConfig      `koanf:"nats" yaml:"nats,omitempty"`
	DryRun         bool            `koanf:"dry_run" yaml:"dry_run,omitempty"`

	// BaseDir is the directory relative paths resolve against. Not loaded.
	BaseDir string `koanf:"-" yaml:"-"`
}

// StoreConfig locates the sqlite artifact registry.
type StoreConfig struct {
	Path string `koanf:"path" yaml:"path"`
}

// EventsConfig locates the sqlite run event log. Empty disables it.
type EventsConfig struct {
	Path string `koanf:"path" yaml:"path,omitempty"`
}

// MetricsConfig controls the Prometheus textfile written at exit.
type MetricsConfig struct {
	Textfile string `koanf:"textfile" yaml:"textfile,omitempty"`
}

// NATSConfig configures release announcements.
type NATSConfig struct {
	URL     string `koanf:"url" yaml:"url,omitempty"`
	Subject string `koanf:"subject" yaml:"subject,omitempty"`
	Stream  string `koanf:"stream" yaml:"stream,omitempty"`
}

// PluginsConfig lists the plugins of every stage in declared order.
type PluginsConfig struct {
	VerifyConditions []plugin.Spec `koanf:"verify_conditions" yaml:"verify_conditions"`
	AnalyzeCommits   []plugin.Spec `koanf:"analyze_commits" yaml:"analyze_commits"`
	VerifyRelease    []plugin.Spec `koanf:"verify_release" yaml:"verify_release"`
	GenerateNotes    []plugin.Spec `koanf:"generate_notes" yaml:"generate_notes"`
	Publish          []plugin.Spec `koanf:"publish" yaml:"publish"`
}

// ForStage returns the specs configured for stage.
func (p PluginsConfig) ForStage(stage plugin.Stage) []plugin.Spec {
	switch stage {
	case plugin.StageVerifyConditions:
		return p.VerifyConditions
	case plugin.StageAnalyzeCommits:
		return p.AnalyzeCommits
	case plugin.StageVerifyRelease:
		return p.VerifyRelease
	case plugin.StageGenerateNotes:
		return p.GenerateNotes
	case plugin.StagePublish:
		return p.Publish
	default:
		return nil
	}
}

// Snapshot returns the plugin lists keyed by their configuration names, each
// entry holding "name" and, when set, "options". The result shares nothing
// with p.
func (p PluginsConfig) Snapshot() map[string]any {
	out := make(map[string]any, len(stageKeys))
	for stage, key := range stageKeys {
		specs := p.ForStage(stage)
		list := make([]any, 0, len(specs))
		for _, s := range specs {
			entry := map[string]any{"name": s.Name}
			if len(s.Options) > 0 {
				entry["options"] = s.Options
			}
			list = append(list, entry)
		}
		out[key] = list
	}
	return release.CloneConfig(out)
}

// stageKeys maps stages to their configuration keys under "plugins".
var stageKeys = map[plugin.Stage]string{
	plugin.StageVerifyConditions: "verify_conditions",
	plugin.StageAnalyzeCommits:   "analyze_commits",
	plugin.StageVerifyRelease:    "verify_release",
	plugin.StageGenerateNotes:    "generate_notes",
	plugin.StagePublish:          "publish",
}
