package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
listen: ":9090"
log_level: debug
auth:
  secret: file-secret
  token_ttl_minutes: 15
database:
  postgres_dsn: postgres://localhost/habitloop
users:
  - username: alice
    password: alice-pw
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "file-secret", cfg.Auth.Secret)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL())
	assert.Equal(t, "postgres://localhost/habitloop", cfg.Database.PostgresDSN)
	require.Len(t, cfg.Users, 1)
	assert.Equal(t, "alice", cfg.Users[0].Username)
}

func TestLoadRequiresSecret(t *testing.T) {
	path := writeConfig(t, `listen: ":9090"`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
listen: ":9090"
auth:
  secret: file-secret
`)
	t.Setenv("HABITLOOP_LISTEN", ":7070")
	t.Setenv("HABITLOOP_AUTH_SECRET", "env-secret")
	t.Setenv("HABITLOOP_TOKEN_TTL_MINUTES", "5")
	t.Setenv("DATABASE_URL", "postgres://env/habitloop")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Listen)
	assert.Equal(t, "env-secret", cfg.Auth.Secret)
	assert.Equal(t, 5*time.Minute, cfg.TokenTTL())
	assert.Equal(t, "postgres://env/habitloop", cfg.Database.PostgresDSN)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL())
	assert.Empty(t, cfg.Database.PostgresDSN)
	assert.Equal(t, 200, cfg.Audit.MaxEntries)
}

func TestLoadOrDefaultWithoutFile(t *testing.T) {
	t.Setenv("HABITLOOP_AUTH_SECRET", "env-secret")

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "env-secret", cfg.Auth.Secret)
}

func TestInvalidTTLFallsBack(t *testing.T) {
	path := writeConfig(t, `
auth:
  secret: s
  token_ttl_minutes: -5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL())
}
