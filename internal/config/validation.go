package config

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"git.home.luguber.info/inful/releaser/internal/manifest"
	"git.home.luguber.info/inful/releaser/internal/plugin"
)

// Validate checks the configuration and returns the first problem as an
// EPLUGINCONFIG error.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Branch) == "" {
		return configError("branch", "branch is required", nil)
	}
	if _, err := semver.StrictNewVersion(strings.TrimPrefix(c.InitialVersion, "v")); err != nil {
		return configError("initial_version", fmt.Sprintf("initial_version %q is not a valid semantic version", c.InitialVersion), err)
	}
	if !strings.Contains(c.TagFormat, "{{version}}") {
		return configError("tag_format", "tag_format must contain {{version}}", nil)
	}
	if c.Store.Path == "" {
		return configError("store.path", "store.path is required", nil)
	}
	if err := c.validateVerify(); err != nil {
		return err
	}
	if _, err := logLevelNormalizer.Parse(c.Logging.Level); err != nil {
		return configError("logging.level", "invalid logging level", err)
	}
	if _, err := logFormatNormalizer.Parse(c.Logging.Format); err != nil {
		return configError("logging.format", "invalid logging format", err)
	}
	if err := c.validateDocuments(); err != nil {
		return err
	}
	return c.validatePlugins()
}

func (c *Config) validateVerify() error {
	if _, err := retryBackoffNormalizer.Parse(c.Verify.Mode); err != nil {
		return configError("verify.mode", "invalid verify backoff mode", err)
	}
	if c.Verify.MaxRetries < 0 {
		return configError("verify.max_retries", "verify.max_retries cannot be negative", nil)
	}
	if c.Verify.Initial < 0 || c.Verify.Max < 0 {
		return configError("verify", "verify delays cannot be negative", nil)
	}
	return nil
}

func (c *Config) validateDocuments() error {
	for i, d := range c.Documents {
		field := fmt.Sprintf("documents[%d]", i)
		if strings.TrimSpace(d.Path) == "" {
			return configError(field, "document path is required", nil)
		}
		switch d.Format {
		case "", manifest.FormatJSON, manifest.FormatYAML:
		default:
			return configError(field, fmt.Sprintf("unsupported document format %q", d.Format), nil)
		}
	}
	return nil
}

func (c *Config) validatePlugins() error {
	for _, stage := range plugin.Stages {
		for i, s := range c.Plugins.ForStage(stage) {
			if strings.TrimSpace(s.Name) == "" {
				return configError(fmt.Sprintf("plugins.%s[%d]", stageKeys[stage], i), "plugin name is required", nil)
			}
		}
	}
	if len(c.Plugins.AnalyzeCommits) == 0 {
		return configError("plugins.analyze_commits", "at least one commit analyzer is required", nil)
	}
	return nil
}
