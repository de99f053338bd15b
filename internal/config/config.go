// Package config provides configuration loading and management for the
// ingestion server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "MCPDIR"

const (
	// EnvGitHubToken supplies the host API credential when no token file
	// is configured.
	EnvGitHubToken = "MCPDIR_GITHUB_TOKEN" //nolint:gosec // env var name, not a credential

	// EnvDatabasePassword supplies the datastore password when no
	// password file is configured.
	EnvDatabasePassword = "MCPDIR_DATABASE_PASSWORD" //nolint:gosec // env var name, not a credential
)

// Config represents the root configuration structure.
type Config struct {
	GitHub   GitHubConfig    `yaml:"github"`
	Database *DatabaseConfig `yaml:"database,omitempty"`
	Import   ImportConfig    `yaml:"import,omitempty"`
}

// GitHubConfig defines host API access settings.
type GitHubConfig struct {
	// TokenFile is the path to a file containing the API access token.
	// This is the recommended approach for production deployments.
	TokenFile string `yaml:"tokenFile,omitempty"`

	// APIBaseURL overrides the GitHub API endpoint, mainly for testing
	// against a stub host.
	APIBaseURL string `yaml:"apiBaseUrl,omitempty"`

	// Timeout is the per-request timeout (e.g. "10s").
	Timeout string `yaml:"timeout,omitempty"`
}

// DatabaseConfig defines datastore connection settings.
type DatabaseConfig struct {
	// Host is the database server hostname or IP address.
	Host string `yaml:"host"`

	// Port is the database server port.
	Port int `yaml:"port"`

	// User is the database username.
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password.
	// The file should contain only the password with optional trailing
	// whitespace.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name.
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require,
	// verify-ca, verify-full).
	SSLMode string `yaml:"sslMode,omitempty"`
}

// ImportConfig defines batch import settings.
type ImportConfig struct {
	// Interval is the minimum pause between repositories (e.g. "200ms").
	// This throttle respects the host API's rate limit.
	Interval string `yaml:"interval,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}

	// Resolve symlinks to prevent symlink attacks.
	// Note that this calls filepath.Clean internally.
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate symlinks: %w", err)
	}

	data, err := os.ReadFile(realPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate performs validation on the configuration. Credential presence is
// checked separately by GetToken and GetPassword so that startup can report
// missing credentials before any network call is attempted.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.GitHub.Timeout != "" {
		if _, err := time.ParseDuration(c.GitHub.Timeout); err != nil {
			return fmt.Errorf("github.timeout must be a valid duration (e.g. '10s'): %w", err)
		}
	}

	if c.Import.Interval != "" {
		if _, err := time.ParseDuration(c.Import.Interval); err != nil {
			return fmt.Errorf("import.interval must be a valid duration (e.g. '200ms'): %w", err)
		}
	}

	if c.Database != nil {
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required")
		}
	}

	return nil
}

// GetToken returns the host API access token using the following priority:
// 1. Read from TokenFile if specified
// 2. Read from the MCPDIR_GITHUB_TOKEN environment variable
//
// The token from file will have leading/trailing whitespace trimmed. A
// missing token is a fatal startup condition for every ingestion path.
func (g *GitHubConfig) GetToken() (string, error) {
	if g.TokenFile != "" {
		cleanPath := filepath.Clean(g.TokenFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read token from file %s: %w", g.TokenFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if envToken := os.Getenv(EnvGitHubToken); envToken != "" {
		return envToken, nil
	}

	return "", fmt.Errorf(
		"no GitHub access token configured: set github.tokenFile or the %s environment variable",
		EnvGitHubToken,
	)
}

// GetTimeout returns the configured request timeout, or zero when unset.
func (g *GitHubConfig) GetTimeout() time.Duration {
	if g.Timeout == "" {
		return 0
	}
	timeout, err := time.ParseDuration(g.Timeout)
	if err != nil {
		return 0
	}
	return timeout
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from the MCPDIR_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(EnvDatabasePassword); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set database.passwordFile or the %s environment variable",
		EnvDatabasePassword,
	)
}

// GetConnectionString builds a PostgreSQL connection string.
// The password is passed as a keyword value, which pgx handles directly.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		password,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// GetInterval returns the batch throttle interval, or zero when unset so
// the runner applies its default.
func (i *ImportConfig) GetInterval() time.Duration {
	if i.Interval == "" {
		return 0
	}
	interval, err := time.ParseDuration(i.Interval)
	if err != nil {
		return 0
	}
	return interval
}
