package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpacia/tab-server/tabroom"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(options{})
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, tabroom.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, tabroom.DefaultCookieName, cfg.CookieName)
	assert.Equal(t, 20*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3*time.Second, cfg.CatalogTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "10-M", cfg.LoginRate)
	assert.Empty(t, cfg.CatalogURL)
	assert.False(t, cfg.DebugPreview)
}

func TestLoadConfig_Layers(t *testing.T) {
	path := writeConfig(t, `
addr: ":9000"
base_url: "https://file.example.org"
http_timeout: 45s
catalog_url: "https://catalog.example.org/judges"
cors_origins:
  - "https://app.example.org"
debug_preview: true
`)
	t.Setenv("TAB_BASE_URL", "https://env.example.org")
	t.Setenv("TAB_CORS_ORIGINS", "https://a.example.org, https://b.example.org")
	t.Setenv("TAB_LOG_LEVEL", "debug")

	cfg, err := loadConfig(options{Config: path, Addr: ":7000"})
	require.NoError(t, err)

	// Flag beats file.
	assert.Equal(t, ":7000", cfg.Addr)
	// Environment beats file.
	assert.Equal(t, "https://env.example.org", cfg.BaseURL)
	assert.Equal(t, []string{"https://a.example.org", "https://b.example.org"}, cfg.CORSOrigins)
	assert.Equal(t, "debug", cfg.LogLevel)
	// File beats defaults.
	assert.Equal(t, 45*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "https://catalog.example.org/judges", cfg.CatalogURL)
	assert.True(t, cfg.DebugPreview)
	// Untouched keys keep their defaults.
	assert.Equal(t, 3*time.Second, cfg.CatalogTimeout)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadConfig(options{Config: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Addr = "" }},
		{"empty base url", func(c *Config) { c.BaseURL = "" }},
		{"zero http timeout", func(c *Config) { c.HTTPTimeout = 0 }},
		{"negative catalog timeout", func(c *Config) { c.CatalogTimeout = -time.Second }},
		{"bad login rate", func(c *Config) { c.LoginRate = "lots" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.validate())
		})
	}
	assert.NoError(t, defaultConfig().validate())
}

func Test_newLogger(t *testing.T) {
	logger, err := newLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
	assert.True(t, logger.Core().Enabled(1))

	_, err = newLogger("loud", true)
	assert.Error(t, err)
}
