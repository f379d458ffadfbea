package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file. A missing file is not an error; the defaults are
// returned.
//
// Parameters:
//   - path: the YAML file, may be empty
//
// Returns:
//   - *Config: the configuration
//   - error: error if the file exists but cannot be read or parsed
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if err := loadFromFile(cfg, path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: loading %s: %w", path, err)
	}
	return cfg, nil
}

// Parse loads configuration with priority: defaults < file < flags. The file is the -config flag, or
// ./config.yaml when it is not given.
//
// Parameters:
//   - set: the flag set to register the flags on
//   - args: the command line arguments without the program name
//
// Returns:
//   - *Config: the configuration
//   - error: error if the flags or the file cannot be parsed
func Parse(set *flag.FlagSet, args []string) (*Config, error) {
	flags := RegisterFlags(set)
	if err := set.Parse(args); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	path := flags.Config
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	flags.apply(cfg)
	return cfg, nil
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// SaveTo writes the config to a specific path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
