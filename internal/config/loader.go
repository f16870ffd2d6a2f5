package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name under the XDG config dir
const DefaultConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadFile overlays the YAML file at path onto c. Keys missing from the
// file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrConfigNotFound
		}
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration from defaults, the file at path and the
// process environment. An empty path reads the default file if it exists;
// an explicit path that does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if err := cfg.LoadFile(path); err != nil {
		if explicit || !errors.Is(err, ErrConfigNotFound) {
			return nil, err
		}
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}
