package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeTempConfig(t, `
github:
  tokenFile: /etc/secrets/token
  timeout: 15s
database:
  host: db.internal
  port: 5432
  user: ingest
  database: mcpdir
  sslMode: disable
import:
  interval: 500ms
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/etc/secrets/token", cfg.GitHub.TokenFile)
	assert.Equal(t, 15*time.Second, cfg.GitHub.GetTimeout())
	require.NotNil(t, cfg.Database)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Import.GetInterval())
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "malformed YAML",
			content: "github: [broken",
		},
		{
			name:    "bad timeout",
			content: "github:\n  timeout: soon\n",
		},
		{
			name:    "bad import interval",
			content: "import:\n  interval: sometimes\n",
		},
		{
			name:    "database missing host",
			content: "database:\n  port: 5432\n  user: u\n  database: d\n",
		},
		{
			name:    "database missing port",
			content: "database:\n  host: h\n  user: u\n  database: d\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeTempConfig(t, tt.content)
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestGetTokenFromFile(t *testing.T) {
	t.Parallel()

	tokenPath := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenPath, []byte("  ghp_secret\n"), 0o600))

	cfg := GitHubConfig{TokenFile: tokenPath}
	token, err := cfg.GetToken()
	require.NoError(t, err)
	assert.Equal(t, "ghp_secret", token)
}

func TestGetTokenFromEnv(t *testing.T) {
	t.Setenv(EnvGitHubToken, "env-token")

	cfg := GitHubConfig{}
	token, err := cfg.GetToken()
	require.NoError(t, err)
	assert.Equal(t, "env-token", token)
}

func TestGetTokenFilePriorityOverEnv(t *testing.T) {
	t.Setenv(EnvGitHubToken, "env-token")

	tokenPath := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenPath, []byte("file-token"), 0o600))

	cfg := GitHubConfig{TokenFile: tokenPath}
	token, err := cfg.GetToken()
	require.NoError(t, err)
	assert.Equal(t, "file-token", token)
}

func TestGetTokenMissing(t *testing.T) {
	t.Setenv(EnvGitHubToken, "")

	cfg := GitHubConfig{}
	_, err := cfg.GetToken()
	assert.Error(t, err)
}

func TestGetPasswordFromFile(t *testing.T) {
	t.Parallel()

	passwordPath := filepath.Join(t.TempDir(), "password")
	require.NoError(t, os.WriteFile(passwordPath, []byte("s3cret\n"), 0o600))

	cfg := DatabaseConfig{PasswordFile: passwordPath}
	password, err := cfg.GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", password)
}

func TestGetConnectionString(t *testing.T) {
	t.Setenv(EnvDatabasePassword, "s3cret")

	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "ingest",
		Database: "mcpdir",
	}

	connString, err := cfg.GetConnectionString()
	require.NoError(t, err)
	assert.Equal(t,
		"host=db.internal port=5432 user=ingest password=s3cret dbname=mcpdir sslmode=require",
		connString)
}

func TestGetConnectionStringExplicitSSLMode(t *testing.T) {
	t.Setenv(EnvDatabasePassword, "s3cret")

	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "dev",
		Database: "mcpdir",
		SSLMode:  "disable",
	}

	connString, err := cfg.GetConnectionString()
	require.NoError(t, err)
	assert.Contains(t, connString, "sslmode=disable")
}
