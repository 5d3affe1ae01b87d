// Package config loads pubtail settings from defaults, an optional YAML file,
// PUBTAIL_* environment variables and command-line flags, in rising priority.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// BackoffConfig bounds the transport's reconnect delays.
type BackoffConfig struct {
	Base       time.Duration `mapstructure:"base"`
	Max        time.Duration `mapstructure:"max"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// LogConfig holds logging-related configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// WebConfig configures the read-only web mirror.
type WebConfig struct {
	Addr  string `mapstructure:"addr"`
	Width int    `mapstructure:"width"`
}

// ViewConfig configures the terminal UI.
type ViewConfig struct {
	MaxTopics int `mapstructure:"max_topics"`
}

// Config represents the application configuration
type Config struct {
	Endpoint     string        `mapstructure:"endpoint"`
	Origin       string        `mapstructure:"origin"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
	Backoff      BackoffConfig `mapstructure:"backoff"`
	Log          LogConfig     `mapstructure:"log"`
	Web          WebConfig     `mapstructure:"web"`
	View         ViewConfig    `mapstructure:"view"`
}

const EnvPrefix = "PUBTAIL"

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("endpoint", "ws://127.0.0.1:12001")
	v.SetDefault("origin", "http://localhost/")
	v.SetDefault("ping_interval", 30*time.Second)
	v.SetDefault("backoff.base", 500*time.Millisecond)
	v.SetDefault("backoff.max", 30*time.Second)
	v.SetDefault("backoff.max_retries", 0)
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("web.addr", "")
	v.SetDefault("web.width", 100)
	v.SetDefault("view.max_topics", 256)
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// DefaultPath is $XDG_CONFIG_HOME/pubtail/config.yaml or its home fallback.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pubtail", "config.yaml")
}

// Load reads file into v and decodes the result. An explicit file must
// exist; the default location is optional.
func Load(v *viper.Viper, file string) (Config, error) {
	explicit := file != ""
	if !explicit {
		file = DefaultPath()
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
			if explicit || !missing {
				return Config{}, fmt.Errorf("read config %s: %w", file, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the transport or UI cannot work with.
func (c Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q", c.Endpoint)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid endpoint %q: scheme must be ws or wss", c.Endpoint)
	}
	if c.Backoff.Base <= 0 || c.Backoff.Max < c.Backoff.Base {
		return fmt.Errorf("invalid backoff: base %s, max %s", c.Backoff.Base, c.Backoff.Max)
	}
	if c.PingInterval < 0 {
		return fmt.Errorf("invalid ping interval %s", c.PingInterval)
	}
	if c.View.MaxTopics < 0 {
		return fmt.Errorf("invalid view.max_topics %d", c.View.MaxTopics)
	}
	return nil
}
