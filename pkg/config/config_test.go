package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "satchel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
identity:
  username: alice
  password: hunter2
portal:
  base_url: https://learn.example.edu
  nav_timeout: 20s
debug: true
logging:
  level: DEBUG
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Identity.Username)
	assert.Equal(t, "hunter2", cfg.Identity.Password)
	assert.Equal(t, "https://learn.example.edu", cfg.Portal.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.Portal.NavTimeout)
	assert.Equal(t, DefaultLoadTimeout, cfg.Portal.LoadTimeout)
	assert.True(t, cfg.Debug)
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SATCHEL_USERNAME", "bob")
	t.Setenv("SATCHEL_PASSWORD", "secret")
	t.Setenv("SATCHEL_PORTAL_URL", "https://portal.example.edu")
	t.Setenv("SATCHEL_DEBUG", "true")
	t.Setenv("SATCHEL_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "bob", cfg.Identity.Username)
	assert.Equal(t, "secret", cfg.Identity.Password)
	assert.Equal(t, "https://portal.example.edu", cfg.Portal.BaseURL)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsMissingIdentity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Portal.BaseURL = "https://learn.example.edu"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity.username")

	cfg.Identity.Username = "alice"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity.password")
}

func TestValidateRejectsMissingBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Identity.Username = "alice"
	cfg.Identity.Password = "pw"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "portal.base_url")
}

func TestValidateRejectsBadLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Identity.Username = "alice"
	cfg.Identity.Password = "pw"
	cfg.Portal.BaseURL = "https://learn.example.edu"
	cfg.Logging.Level = "LOUD"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
