package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values match the behavior of a typical desktop installation and
// can all be overridden via CLI flags, the config file, or environment
// variables.
const (
	// DefaultReputationTimeout bounds each Safe Browsing lookup. The
	// lookup is advisory and fails open, so a short timeout keeps a slow
	// or unreachable API from stalling a scan.
	DefaultReputationTimeout = 2 * time.Second

	// DefaultBatchSize is the number of concurrent scans when processing
	// multiple input files. Scans are CPU-light, so a small pool is
	// enough; the bottleneck is the optional reputation lookup.
	DefaultBatchSize = 4

	// DefaultListenAddr is the bind address for the API server. Loopback
	// only: the server carries no authentication, so it must not be
	// exposed beyond the local machine without an explicit flag.
	DefaultListenAddr = "127.0.0.1:8790"

	// AppName is the application name used for XDG directory paths.
	AppName = "phishguard"

	// DefaultModelFile is the classifier artifact file name, resolved
	// relative to the XDG data directory when no explicit path is given.
	DefaultModelFile = "model.json"

	// DefaultWhitelistFile is the trusted-domain list file name, resolved
	// relative to the XDG data directory when no explicit path is given.
	DefaultWhitelistFile = "whitelist.txt"
)

// Environment variable names.
// The Safe Browsing API key is a secret and must never be written to the
// config file; the environment is the only supported source for it.
const (
	// EnvSafeBrowsingKey holds the Google Safe Browsing API key.
	EnvSafeBrowsingKey = "PHISHGUARD_SAFE_BROWSING_KEY"

	// EnvSafeBrowsingEndpoint overrides the Safe Browsing API endpoint.
	// Used mainly for testing against a local mock server.
	EnvSafeBrowsingEndpoint = "PHISHGUARD_SAFE_BROWSING_ENDPOINT"
)

// Config holds all configuration options for PhishGuard.
// This struct is designed to be populated from CLI flags, the optional
// config file, and the environment, then passed through the application
// via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., ScanConfig, ServerConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit.
type Config struct {
	// ModelPath is the path to the classifier artifact JSON file.
	// When empty, DefaultModelFile under the XDG data directory is used.
	ModelPath string

	// WhitelistPath is the path to the trusted-domain list.
	// When empty, DefaultWhitelistFile under the XDG data directory is
	// used; a missing file falls back to the built-in domains.
	WhitelistPath string

	// SafeBrowsingKey is the Google Safe Browsing API key.
	// When empty, reputation lookups are skipped entirely and every link
	// is treated as CLEAN.
	SafeBrowsingKey string

	// SafeBrowsingEndpoint overrides the Safe Browsing API endpoint.
	// When empty, the production v4 endpoint is used.
	SafeBrowsingEndpoint string

	// ReputationTimeout bounds each Safe Browsing lookup.
	ReputationTimeout time.Duration

	// BatchSize is the number of concurrent scans when processing
	// multiple input files.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .phishguard in the current
	// directory and then in the user's home directory.
	ConfigFilePath string

	// JSONReport enables JSON report output instead of human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown audit report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// ShowContent echoes the analyzed email text into the report.
	ShowContent bool

	// Targets is the list of email files to scan. "-" means stdin.
	Targets []string

	// DBDir is the directory path for storing the SQLite scan history.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether to record scan verdicts in the history
	// database. Disabled via --no-save.
	SaveToDB bool

	// ListenAddr is the bind address for the API server.
	ListenAddr string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, batch
// size). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		ModelPath:         filepath.Join(XDGDataDir(), DefaultModelFile),
		WhitelistPath:     filepath.Join(XDGDataDir(), DefaultWhitelistFile),
		ReputationTimeout: DefaultReputationTimeout,
		BatchSize:         DefaultBatchSize,
		ListenAddr:        DefaultListenAddr,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
	}
}

// LoadEnvironment reads the Safe Browsing credentials from the
// environment. Values already set on the Config (e.g., from CLI flags)
// take precedence over the environment.
func (c *Config) LoadEnvironment() {
	if c.SafeBrowsingKey == "" {
		c.SafeBrowsingKey = os.Getenv(EnvSafeBrowsingKey)
	}
	if c.SafeBrowsingEndpoint == "" {
		c.SafeBrowsingEndpoint = os.Getenv(EnvSafeBrowsingEndpoint)
	}
}

// XDGDataDir returns the XDG data directory for PhishGuard.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/phishguard
// On macOS: ~/Library/Application Support/phishguard
// On Windows: %LOCALAPPDATA%\phishguard
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for PhishGuard.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for PhishGuard.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any scanning begins.
//
// We chose to return the first error found rather than collecting all
// errors because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// Timeout must be positive; zero timeout would cause immediate failures
	if c.ReputationTimeout <= 0 {
		return ErrInvalidTimeout
	}

	// BatchSize must be positive; zero would mean no scanning
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
