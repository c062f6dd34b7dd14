// Package config loads lockrisk settings from an optional TOML file.
//
// Settings are resolved in increasing order of precedence: built-in
// defaults, the config file, environment variables, then command flags
// (applied by the caller). A missing config file is not an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	lrerrors "github.com/matzehuels/lockrisk/pkg/errors"
)

const appName = "lockrisk"

// Environment variables that override the config file.
const (
	EnvAddr      = "LOCKRISK_ADDR"
	EnvRedisAddr = "LOCKRISK_REDIS_ADDR"
	EnvConfig    = "LOCKRISK_CONFIG"
)

// Config is the full set of settings.
type Config struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Render   RenderConfig   `toml:"render"`
	Server   ServerConfig   `toml:"server"`
}

// AnalysisConfig controls reports.
type AnalysisConfig struct {
	TopN         int  `toml:"top_n"`
	DisplayLimit int  `toml:"display_limit"`
	IncludeDev   bool `toml:"include_dev"`
}

// RenderConfig controls graph drawings.
type RenderConfig struct {
	Detailed bool `toml:"detailed"`
	MaxNodes int  `toml:"max_nodes"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`

	// RedisAddr selects the Redis-backed session store. Empty keeps
	// sessions in memory.
	RedisAddr      string   `toml:"redis_addr"`
	SessionTTL     Duration `toml:"session_ttl"`
	MaxUploadBytes int64    `toml:"max_upload_bytes"`
}

// Duration is a time.Duration written as a string such as "90m".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Analysis: AnalysisConfig{
			TopN:         10,
			DisplayLimit: 20,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			SessionTTL:     Duration{time.Hour},
			MaxUploadBytes: 32 << 20,
		},
	}
}

// Path returns the config file location: $LOCKRISK_CONFIG if set, else
// $XDG_CONFIG_HOME/lockrisk/config.toml, else ~/.config/lockrisk/config.toml.
func Path() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the config file at path over the defaults and applies
// environment overrides. An empty path uses [Path].
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := Path()
		if err != nil {
			cfg.applyEnv(os.LookupEnv)
			return cfg, cfg.Validate()
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = Default()
	case err != nil:
		return Config{}, lrerrors.Wrap(lrerrors.ErrCodeInvalidInput, err, "config %s", path)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return Config{}, lrerrors.New(lrerrors.ErrCodeInvalidInput, "config %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	}

	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults without consulting the
// environment.
func Parse(text string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(text, &cfg); err != nil {
		return Config{}, lrerrors.Wrap(lrerrors.ErrCodeInvalidInput, err, "parse config")
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvRedisAddr); ok {
		c.Server.RedisAddr = v
	}
}

// Validate rejects settings no command could run with.
func (c Config) Validate() error {
	switch {
	case c.Analysis.TopN < 0:
		return lrerrors.New(lrerrors.ErrCodeInvalidInput, "analysis.top_n must not be negative")
	case c.Analysis.DisplayLimit < 0:
		return lrerrors.New(lrerrors.ErrCodeInvalidInput, "analysis.display_limit must not be negative")
	case c.Render.MaxNodes < 0:
		return lrerrors.New(lrerrors.ErrCodeInvalidInput, "render.max_nodes must not be negative")
	case c.Server.SessionTTL.Duration <= 0:
		return lrerrors.New(lrerrors.ErrCodeInvalidInput, "server.session_ttl must be positive")
	case c.Server.MaxUploadBytes <= 0:
		return lrerrors.New(lrerrors.ErrCodeInvalidInput, "server.max_upload_bytes must be positive")
	}
	return nil
}
