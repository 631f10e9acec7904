// Package config handles the settings file shared by the command line tools.
package config

import (
	"fmt"
	"os"

	"github.com/go-yaml/yaml"
	"github.com/mitchellh/go-homedir"

	"github.com/voidshard/tileset"
)

const (
	// DefaultPath is where we look for a config file when none is given
	DefaultPath = "~/.config/tileset/config.yaml"

	// DefaultIndex is the sqlite index used when none is given
	DefaultIndex = "~/.local/share/tileset/index.sqlite"
)

// Config holds all tool settings.
type Config struct {
	Loader  tileset.Config `yaml:"loader"`
	Logging LoggingConfig  `yaml:"logging"`
	Index   string         `yaml:"index"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Loader: *tileset.DefaultConfig(),
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Index: DefaultIndex,
	}
}

// Load reads the config at `path` over the defaults.
// With an empty path DefaultPath is tried, and it not existing is fine.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	err = loadFromFile(cfg, path)
	if os.IsNotExist(err) && !explicit {
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}

	cfg.Index, err = homedir.Expand(cfg.Index)
	if err != nil {
		return nil, err
	}
	cfg.Logging.LogFile, err = homedir.Expand(cfg.Logging.LogFile)
	return cfg, err
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
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
