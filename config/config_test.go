package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8990, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)

	assert.Equal(t, "cashvault.db", cfg.Storage.Path)

	assert.Equal(t, 15*time.Minute, cfg.Session.Expiry)
	assert.Equal(t, "cashvault", cfg.Session.Issuer)

	assert.Equal(t, 15*time.Minute, cfg.Payments.RequestTTL)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
}

func TestLoad_FromYAMLFile(t *testing.T) {
	content := []byte(`
server:
  host: "127.0.0.1"
  port: 9090
  mode: "debug"
storage:
  path: "/var/lib/cashvault/wallet.db"
session:
  secret: "my-session-secret"
  expiry: "30m"
  issuer: "test-vault"
payments:
  request_ttl: "5m"
log:
  level: "debug"
  pretty: true
`)
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)

	assert.Equal(t, "/var/lib/cashvault/wallet.db", cfg.Storage.Path)

	assert.Equal(t, "my-session-secret", cfg.Session.Secret)
	assert.Equal(t, 30*time.Minute, cfg.Session.Expiry)
	assert.Equal(t, "test-vault", cfg.Session.Issuer)

	assert.Equal(t, 5*time.Minute, cfg.Payments.RequestTTL)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CVT_SERVER_PORT", "3000")
	t.Setenv("CVT_STORAGE_PATH", "/tmp/env.db")
	t.Setenv("CVT_SESSION_SECRET", "env-secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "/tmp/env.db", cfg.Storage.Path)
	assert.Equal(t, "env-secret", cfg.Session.Secret)
}

func TestServerConfig_Addr(t *testing.T) {
	srv := ServerConfig{Host: "127.0.0.1", Port: 8990}
	assert.Equal(t, "127.0.0.1:8990", srv.Addr())
}
