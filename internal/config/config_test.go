package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "ws://127.0.0.1:12001", cfg.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.PingInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Backoff.Base)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 256, cfg.View.MaxTopics)
}

func TestLoadFileAndEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
endpoint: ws://bus.local:9000/feed
ping_interval: 5s
backoff:
  base: 1s
  max: 10s
log:
  level: debug
`), 0o644))
	t.Setenv("PUBTAIL_LOG_LEVEL", "warn")
	t.Setenv("PUBTAIL_VIEW_MAX_TOPICS", "12")

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "ws://bus.local:9000/feed", cfg.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.PingInterval)
	assert.Equal(t, time.Second, cfg.Backoff.Base)
	assert.Equal(t, 10*time.Second, cfg.Backoff.Max)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 12, cfg.View.MaxTopics)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Endpoint: "ws://127.0.0.1:12001",
			Backoff:  BackoffConfig{Base: time.Second, Max: time.Minute},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "wss", mutate: func(c *Config) { c.Endpoint = "wss://example.com/x" }},
		{name: "no host", mutate: func(c *Config) { c.Endpoint = "ws://" }, wantErr: "invalid endpoint"},
		{name: "http scheme", mutate: func(c *Config) { c.Endpoint = "http://example.com" }, wantErr: "scheme"},
		{name: "garbage", mutate: func(c *Config) { c.Endpoint = "::" }, wantErr: "invalid endpoint"},
		{name: "max below base", mutate: func(c *Config) { c.Backoff.Max = time.Millisecond }, wantErr: "backoff"},
		{name: "negative ping", mutate: func(c *Config) { c.PingInterval = -time.Second }, wantErr: "ping"},
		{name: "negative topics", mutate: func(c *Config) { c.View.MaxTopics = -1 }, wantErr: "max_topics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
