package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/lockrisk/pkg/errors"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Analysis.TopN != 10 || cfg.Analysis.DisplayLimit != 20 || cfg.Analysis.IncludeDev {
		t.Errorf("analysis defaults = %+v", cfg.Analysis)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.SessionTTL.Duration != time.Hour || cfg.Server.MaxUploadBytes != 33554432 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvAddr, "")
	t.Setenv(EnvRedisAddr, "")
	path := writeConfig(t, `
[analysis]
top_n = 5
include_dev = true

[render]
detailed = true

[server]
addr = "127.0.0.1:9000"
session_ttl = "90m"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Analysis.TopN != 5 || !cfg.Analysis.IncludeDev {
		t.Errorf("analysis = %+v", cfg.Analysis)
	}
	if cfg.Analysis.DisplayLimit != 20 {
		t.Errorf("unset key lost its default: %d", cfg.Analysis.DisplayLimit)
	}
	if !cfg.Render.Detailed {
		t.Error("render.detailed not applied")
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.SessionTTL.Duration != 90*time.Minute {
		t.Errorf("server = %+v", cfg.Server)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(EnvAddr, "")
	t.Setenv(EnvRedisAddr, "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load(missing) = %v", err)
	}
	if cfg.Analysis.TopN != Default().Analysis.TopN {
		t.Errorf("missing file should give defaults, got %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvAddr, ":7000")
	t.Setenv(EnvRedisAddr, "redis://localhost:6379/0")
	path := writeConfig(t, "[server]\naddr = \":9000\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("Addr = %q, want env override", cfg.Server.Addr)
	}
	if cfg.Server.RedisAddr != "redis://localhost:6379/0" {
		t.Errorf("RedisAddr = %q", cfg.Server.RedisAddr)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		msg  string
	}{
		{"syntax", "[analysis\n", "config"},
		{"unknown key", "[analysis]\ntop = 3\n", "analysis.top"},
		{"bad duration", "[server]\nsession_ttl = \"soon\"\n", "config"},
		{"negative", "[analysis]\ntop_n = -1\n", "top_n"},
		{"zero ttl", "[server]\nsession_ttl = \"0s\"\n", "session_ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.text))
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("code = %v, want INVALID_INPUT", errors.GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not mention %q", err, tt.msg)
			}
		})
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse("[render]\nmax_nodes = 200\n")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Render.MaxNodes != 200 {
		t.Errorf("MaxNodes = %d", cfg.Render.MaxNodes)
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	p, err := Path()
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join("/tmp/xdg", "lockrisk", "config.toml") {
		t.Errorf("Path() = %q", p)
	}

	t.Setenv(EnvConfig, "/etc/lockrisk.toml")
	if p, _ := Path(); p != "/etc/lockrisk.toml" {
		t.Errorf("Path() with %s = %q", EnvConfig, p)
	}
}
