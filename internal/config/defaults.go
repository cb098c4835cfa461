package config

import (
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/releaser/internal/manifest"
	"git.home.luguber.info/inful/releaser/internal/plugin"
)

const (
	// DefaultFile is the configuration file looked up in the working directory.
	DefaultFile           = "releaser.yaml"
	DefaultBranch         = "main"
	DefaultInitialVersion = "1.0.0"
	DefaultTagFormat      = "v{{version}}"
	DefaultStorePath      = ".releaser/registry.db"
	DefaultEventsPath     = ".releaser/events.db"
	DefaultNATSSubject    = "releases"
)

// defaultValues feeds the confmap provider, the lowest configuration layer.
func defaultValues() map[string]any {
	return map[string]any{
		"branch":             DefaultBranch,
		"initial_version":    DefaultInitialVersion,
		"tag_format":         DefaultTagFormat,
		"repository":         ".",
		"store.path":         DefaultStorePath,
		"events.path":        DefaultEventsPath,
		"verify.mode":        string(RetryBackoffExponential),
		"verify.initial":     "200ms",
		"verify.max":         "5s",
		"verify.max_retries": 4,
		"logging.level":      string(LogLevelInfo),
		"logging.format":     string(LogFormatText),
		"nats.subject":       DefaultNATSSubject,
	}
}

// defaultStagePlugins are used for stages the configuration does not mention.
func defaultStagePlugins() map[plugin.Stage][]plugin.Spec {
	return map[plugin.Stage][]plugin.Spec{
		plugin.StageVerifyConditions: {{Name: "noop"}},
		plugin.StageAnalyzeCommits:   {{Name: "conventional"}},
		plugin.StageVerifyRelease:    {{Name: "noop"}},
		plugin.StageGenerateNotes:    {{Name: "changelog"}},
		plugin.StagePublish:          {{Name: "registry"}},
	}
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	stages := defaultStagePlugins()
	return &Config{
		Branch:         DefaultBranch,
		InitialVersion: DefaultInitialVersion,
		TagFormat:      DefaultTagFormat,
		Repository:     ".",
		Documents:      manifest.DefaultSpecs(),
		Store:          StoreConfig{Path: DefaultStorePath},
		Events:         EventsConfig{Path: DefaultEventsPath},
		Verify: RetryConfig{
			Mode:       string(RetryBackoffExponential),
			Initial:    200 * time.Millisecond,
			Max:        5 * time.Second,
			MaxRetries: 4,
		},
		Plugins: PluginsConfig{
			VerifyConditions: stages[plugin.StageVerifyConditions],
			AnalyzeCommits:   stages[plugin.StageAnalyzeCommits],
			VerifyRelease:    stages[plugin.StageVerifyRelease],
			GenerateNotes:    stages[plugin.StageGenerateNotes],
			Publish:          stages[plugin.StagePublish],
		},
		Logging: LoggingConfig{Level: string(LogLevelInfo), Format: string(LogFormatText)},
		NATS:    NATSConfig{Subject: DefaultNATSSubject},
		BaseDir: ".",
	}
}

// Resolve returns path anchored at the configuration's base directory.
func (c *Config) Resolve(path string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.BaseDir, path)
}

// RepositoryPath is the resolved repository root.
func (c *Config) RepositoryPath() string {
	return c.Resolve(c.Repository)
}
