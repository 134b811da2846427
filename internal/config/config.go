package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the config file searched for from the working directory upward.
const FileName = "sqlsink.toml"

// EnvironmentConfig describes a single named environment from sqlsink.toml.
type EnvironmentConfig struct {
	DatabaseURL string `toml:"database_url,omitempty" json:"database_url,omitempty"`
	// Options are appended to the connection string as query parameters.
	Options map[string]string `toml:"options,omitempty" json:"options,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `toml:"level,omitempty" json:"level,omitempty"`
	Format string `toml:"format,omitempty" json:"format,omitempty"`
}

type Config struct {
	DefaultEnvironment string                       `toml:"default_environment,omitempty" json:"default_environment,omitempty"`
	Environments       map[string]EnvironmentConfig `toml:"environments,omitempty" json:"environments,omitempty"`
	Sink               SinkConfig                   `toml:"sink" json:"sink"`
	Logging            LoggingConfig                `toml:"logging,omitempty" json:"logging,omitempty"`
	ConfigFilePath     string                       `toml:"-" json:"-"`

	configDir string
}

// LoadConfig finds sqlsink.toml in the working directory or one of its parents,
// stopping at the first project root. A missing file yields an empty Config.
func LoadConfig() (*Config, error) {
	startDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	dir := startDir
	for {
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			return LoadConfigFile(configPath)
		}

		if isProjectRoot(dir) {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return &Config{}, nil
}

// LoadConfigFile reads, validates and decodes one config file.
func LoadConfigFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", configPath, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}

	config.ConfigFilePath = configPath
	config.configDir = filepath.Dir(configPath)
	return &config, nil
}

// Save writes the config as TOML.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ConfigDir is the directory holding the loaded config file, or "" when none was found.
func (c *Config) ConfigDir() string {
	if c == nil {
		return ""
	}
	if c.configDir != "" {
		return c.configDir
	}
	if c.ConfigFilePath != "" {
		return filepath.Dir(c.ConfigFilePath)
	}
	return ""
}

// ProjectDir is the nearest project root at or above ConfigDir.
func (c *Config) ProjectDir() string {
	dir := c.ConfigDir()
	if dir == "" {
		return ""
	}
	for cur := dir; ; {
		if isProjectRoot(cur) {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return dir
		}
		cur = parent
	}
}

// EnvironmentNames lists declared environments, sorted.
func (c *Config) EnvironmentNames() []string {
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// isProjectRoot checks if the directory is a project root based on common markers
func isProjectRoot(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err == nil {
		return true
	}
	return false
}
