package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "file", cfg.Store.Type)
	assert.Equal(t, 200, cfg.History.MaxDepth)
	assert.Equal(t, []string{"mod+z"}, cfg.Keymap.Undo)
	assert.Equal(t, []string{"mod+shift+z", "mod+y"}, cfg.Keymap.Redo)
	assert.True(t, cfg.Presets.Watch)
	assert.Nil(t, cfg.API)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
title: Brand Lab
server:
  port: 9090
store:
  type: redis
  url: redis://localhost:6379/2
indicator:
  quiet_period: 250ms
api:
  rate_limit:
    requests_per_second: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "themeforge.yaml"), []byte(content), 0644))

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)

	assert.Equal(t, "Brand Lab", cfg.Title)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host, "unset keys keep defaults")
	assert.Equal(t, "redis", cfg.Store.Type)
	assert.Equal(t, 250*time.Millisecond, cfg.Indicator.GetQuietPeriod())
	assert.Equal(t, 2*time.Second, cfg.Indicator.GetSavedDuration())
	assert.Equal(t, float64(5), cfg.API.GetRateLimitRPS())
	assert.Equal(t, 100, cfg.API.GetRateLimitBurst())
}

func TestLoadFromDirFallsBackToYml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "themeforge.yml"), []byte("title: Short\n"), 0644))

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "Short", cfg.Title)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themeforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themeforge.yaml")
	cfg := DefaultConfig()
	cfg.Store.Type = "sqlite"
	cfg.Store.Path = "state.db"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDurationGetters(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback time.Duration
		expected time.Duration
	}{
		{"empty", "", time.Second, time.Second},
		{"invalid", "soon", time.Second, time.Second},
		{"negative", "-5s", time.Second, time.Second},
		{"valid", "1500ms", time.Second, 1500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseDuration(tt.value, tt.fallback); got != tt.expected {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}

func TestStoreConfigDefaults(t *testing.T) {
	var c StoreConfig
	assert.Equal(t, "design-document", c.GetKey())
	assert.Equal(t, "themeforge_kv", c.GetTable())
	assert.Equal(t, 5*time.Second, c.GetTimeout())
}

func TestStoreConfigExpandsEnv(t *testing.T) {
	t.Setenv("TF_REDIS", "redis://cache:6379/0")
	t.Setenv("TF_SECRET", "s3cr3t")

	c := StoreConfig{URL: "${TF_REDIS}", SecretKey: "$TF_SECRET"}
	assert.Equal(t, "redis://cache:6379/0", c.GetURL())
	assert.Equal(t, "s3cr3t", c.GetSecretKey())
}

func TestAssistantConfig(t *testing.T) {
	var c AssistantConfig
	assert.Equal(t, "/mcp", c.GetPath())
	assert.True(t, c.ShouldSanitizeText())

	off := false
	c.SanitizeText = &off
	assert.False(t, c.ShouldSanitizeText())
}

func TestAPIConfigAuth(t *testing.T) {
	var nilCfg *APIConfig
	assert.False(t, nilCfg.IsAuthEnabled())
	assert.Nil(t, nilCfg.GetCORSOrigins())

	t.Setenv("TF_KEY", "abc")
	c := &APIConfig{Auth: &AuthConfig{APIKey: "${TF_KEY}"}}
	assert.True(t, c.IsAuthEnabled())
	assert.Equal(t, "abc", c.Auth.GetAPIKey())
	assert.Equal(t, "X-API-Key", c.Auth.GetHeaderName())
}
