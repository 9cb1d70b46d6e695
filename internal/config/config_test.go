/*-------------------------------------------------------------------------
 *
 * config_test.go
 *    Tests for configuration loading and validation
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/config/config_test.go
 *
 *-------------------------------------------------------------------------
 */

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
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Sequencer.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Sequencer.Interval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 9090
  base_url: https://app.getlaunchbase.com
smtp:
  host: smtp.getlaunchbase.com
  port: 587
sequencer:
  enabled: true
  interval: 5m
auth:
  api_keys:
    - key-one
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://app.getlaunchbase.com", cfg.Server.BaseURL)
	assert.Equal(t, "smtp.getlaunchbase.com", cfg.SMTP.Host)
	assert.Equal(t, 5*time.Minute, cfg.Sequencer.Interval)
	assert.Equal(t, []string{"key-one"}, cfg.Auth.APIKeys)
	assert.Equal(t, "debug", cfg.LogLevel)
	/* Unset fields keep their defaults */
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "host=db port=5432 dbname=prod")
	t.Setenv("PORT", "9999")
	t.Setenv("BASE_URL", "https://example.test")
	t.Setenv("API_KEY", "env-key")
	t.Setenv("LOG_FORMAT", "console")

	cfg := FromEnv()

	assert.Equal(t, "host=db port=5432 dbname=prod", cfg.Database.ConnString)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "https://example.test", cfg.Server.BaseURL)
	assert.Contains(t, cfg.Auth.APIKeys, "env-key")
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestEnvOverrideIgnoresBadPort(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	cfg := FromEnv()
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Database.ConnString = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Sequencer.Interval = 10 * time.Second
	assert.Error(t, cfg.Validate())

	/* A disabled sequencer may carry any interval */
	cfg = DefaultConfig()
	cfg.Sequencer.Enabled = false
	cfg.Sequencer.Interval = 0
	assert.NoError(t, cfg.Validate())
}
