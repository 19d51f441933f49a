package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GUESTBOOK_CONFIG", "")
	t.Setenv("ADMIN_NAME", "")
	t.Setenv("REFRESH_INTERVAL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultAdminName, cfg.Server.AdminName)
	assert.Equal(t, 10*time.Second, cfg.Client.RefreshInterval)
	assert.Equal(t, 3*time.Second, cfg.Client.ToastDuration)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GUESTBOOK_CONFIG", "")
	t.Setenv("REFRESH_INTERVAL", "5s")
	t.Setenv("ADMIN_NAME", "Lucy")
	t.Setenv("POST_RATE_LIMIT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Client.RefreshInterval)
	assert.Equal(t, "Lucy", cfg.Server.AdminName)
	assert.Equal(t, 10, cfg.Server.PostRateLimit)
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guestbook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
client:
  endpoint: http://tram.example/api/guestbook
  refresh_interval: 30s
log:
  level: debug
`), 0o600))
	t.Setenv("GUESTBOOK_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "http://tram.example/api/guestbook", cfg.Client.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.Client.RefreshInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsBadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
	t.Setenv("GUESTBOOK_CONFIG", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Client: ClientConfig{Endpoint: "x", RefreshInterval: time.Second}}
	assert.Error(t, cfg.Validate())

	cfg.Server.AdminNameBcrypt = "$2a$10$abc"
	assert.NoError(t, cfg.Validate())

	cfg.Client.RefreshInterval = 0
	assert.Error(t, cfg.Validate())
}
