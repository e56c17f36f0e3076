package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Save writes the config to the user's config directory, creating it if
// needed.
func (c *Config) Save() error {
	return c.SaveTo(filepath.Join(configDir(), "config.yaml"))
}

// SaveTo writes the config to a specific path, creating parent
// directories if needed.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
