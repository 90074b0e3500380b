// ABOUTME: Tests for configuration layering
// ABOUTME: Verifies defaults, YAML overrides and PRM_ environment overrides
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "0 9 * * *", cfg.SweepSchedule)
	assert.False(t, cfg.PushEnabled())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
session_ttl: 2h
log_format: json
vapid_public_key: pub
vapid_private_key: priv
`), 0600))

	t.Setenv("PRM_ADDR", ":9100")
	t.Setenv("PRM_JWT_SECRET", "0123456789abcdef-secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Addr, "env wins over file")
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel, "untouched fields keep defaults")
	assert.True(t, cfg.PushEnabled())
	assert.NoError(t, cfg.ValidateServer())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [unclosed"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateServer(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.ValidateServer())

	cfg.JWTSecret = "short"
	assert.Error(t, cfg.ValidateServer())
}
