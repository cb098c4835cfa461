package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const exampleHeader = `# releaser configuration
#
# Every key may be overridden from the environment with the RELEASER_ prefix,
# nested keys joined by a double underscore (RELEASER_STORE__PATH).
# ${VAR} references are expanded from the environment, including .env files.

`

// Init writes an example configuration to path. An existing file is only
// replaced when force is set.
func Init(path string, force bool) error {
	if path == "" {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil && !force {
		return configError("config", fmt.Sprintf("%s already exists (use --force to overwrite)", path), nil)
	}

	data, err := Example()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Example renders the default configuration as commented YAML.
func Example() ([]byte, error) {
	cfg := Default()
	cfg.Package = "my-package"

	body, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal example config: %w", err)
	}
	return append([]byte(exampleHeader), body...), nil
}
