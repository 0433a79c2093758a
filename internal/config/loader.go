package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".phishguard"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .phishguard configuration file.
// The API key is deliberately absent: secrets come from the environment,
// never from a file that tends to end up in dotfile repositories.
type File struct {
	// Model is the path to the classifier artifact JSON file.
	Model string `yaml:"model,omitempty"`

	// Whitelist is the path to the trusted-domain list.
	Whitelist string `yaml:"whitelist,omitempty"`

	// SafeBrowsing configures the reputation lookup.
	SafeBrowsing SafeBrowsingConfig `yaml:"safeBrowsing,omitempty"`

	// Database configures scan history persistence.
	Database DatabaseConfig `yaml:"database,omitempty"`

	// Server configures the API server.
	Server ServerConfig `yaml:"server,omitempty"`

	// BatchSize is the number of concurrent scans for multi-file input.
	BatchSize int `yaml:"batchSize,omitempty"`
}

// SafeBrowsingConfig holds reputation lookup settings.
type SafeBrowsingConfig struct {
	// Endpoint overrides the Safe Browsing API endpoint.
	Endpoint string `yaml:"endpoint,omitempty"`

	// TimeoutSeconds bounds each lookup. yaml.v3 has no native duration
	// decoding, so the file carries whole seconds.
	TimeoutSeconds int `yaml:"timeoutSeconds,omitempty"`
}

// DatabaseConfig holds scan history settings.
type DatabaseConfig struct {
	// Dir is the directory for the SQLite history database.
	Dir string `yaml:"dir,omitempty"`
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	// Addr is the bind address in "host:port" format.
	Addr string `yaml:"addr,omitempty"`
}

// Apply copies every value set in the file onto the Config. File values
// override defaults; CLI flags are applied after this and win over both.
func (cf *File) Apply(c *Config) {
	if cf.Model != "" {
		c.ModelPath = cf.Model
	}
	if cf.Whitelist != "" {
		c.WhitelistPath = cf.Whitelist
	}
	if cf.SafeBrowsing.Endpoint != "" {
		c.SafeBrowsingEndpoint = cf.SafeBrowsing.Endpoint
	}
	if cf.SafeBrowsing.TimeoutSeconds > 0 {
		c.ReputationTimeout = time.Duration(cf.SafeBrowsing.TimeoutSeconds) * time.Second
	}
	if cf.Database.Dir != "" {
		c.DBDir = cf.Database.Dir
	}
	if cf.Server.Addr != "" {
		c.ListenAddr = cf.Server.Addr
	}
	if cf.BatchSize > 0 {
		c.BatchSize = cf.BatchSize
	}
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .phishguard in the current directory
// 3. Look for .phishguard in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
