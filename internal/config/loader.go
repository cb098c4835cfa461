package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/manifest"
	"git.home.luguber.info/inful/releaser/internal/plugin"
)

// EnvPrefix prefixes environment overrides: RELEASER_STORE__PATH sets store.path.
const EnvPrefix = "RELEASER_"

// Load reads configuration with precedence env > file > defaults.
// An empty path looks for releaser.yaml in the working directory and
// tolerates its absence; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	baseDir := filepath.Dir(path)

	loadEnvFiles(baseDir)

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaultValues(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
			return nil, configError("config", fmt.Sprintf("error reading config file %s", path), err)
		}
		expandEnvRefs(k)
	} else if explicit {
		return nil, configError("config", fmt.Sprintf("config file %s not found", path), err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, configError("config", "unable to decode config", err)
	}
	cfg.BaseDir = baseDir

	if !k.Exists("documents") {
		cfg.Documents = manifest.DefaultSpecs()
	}
	applyStageDefaults(k, &cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.normalize()
	return &cfg, nil
}

// envKey transforms RELEASER_STORE__PATH into store.path.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// loadEnvFiles loads .env and .env.local from dir without overriding
// variables that are already set.
func loadEnvFiles(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load env file", "path", p, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", p)
	}
}

// expandEnvRefs replaces ${VAR} references in every loaded string value.
func expandEnvRefs(k *koanf.Koanf) {
	for key, v := range k.All() {
		switch v.(type) {
		case string, []any, map[string]any:
			_ = k.Set(key, expandValue(v))
		}
	}
}

func expandValue(v any) any {
	switch t := v.(type) {
	case string:
		if strings.Contains(t, "$") {
			return os.ExpandEnv(t)
		}
		return t
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = expandValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for mk, mv := range t {
			out[mk] = expandValue(mv)
		}
		return out
	default:
		return v
	}
}

// applyStageDefaults fills stages the configuration never mentions.
// An explicitly empty list is kept empty.
func applyStageDefaults(k *koanf.Koanf, cfg *Config) {
	defaults := defaultStagePlugins()
	for _, stage := range plugin.Stages {
		if k.Exists("plugins." + stageKeys[stage]) {
			continue
		}
		specs := defaults[stage]
		switch stage {
		case plugin.StageVerifyConditions:
			cfg.Plugins.VerifyConditions = specs
		case plugin.StageAnalyzeCommits:
			cfg.Plugins.AnalyzeCommits = specs
		case plugin.StageVerifyRelease:
			cfg.Plugins.VerifyRelease = specs
		case plugin.StageGenerateNotes:
			cfg.Plugins.GenerateNotes = specs
		case plugin.StagePublish:
			cfg.Plugins.Publish = specs
		}
	}
}

func (c *Config) normalize() {
	c.Branch = strings.TrimSpace(c.Branch)
	c.Logging.Level = string(NormalizeLogLevel(c.Logging.Level))
	c.Logging.Format = string(NormalizeLogFormat(c.Logging.Format))
	c.Verify.Mode = string(c.Verify.BackoffMode())
}

func configError(field, msg string, cause error) error {
	return ferrors.NewError(ferrors.KindPluginConfig, msg).
		WithContext("field", field).
		WithCause(cause).
		Build()
}
