package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/grephite/pkg/colormap"
	"github.com/matzehuels/grephite/pkg/errors"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grephite.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Layout.Repulsion != 5000 || cfg.Layout.Gravity != 0.2 || !cfg.Layout.Enabled {
		t.Errorf("layout defaults = %+v", cfg.Layout)
	}
	if cfg.Script.Dir != "scripts" {
		t.Errorf("Script.Dir = %q, want scripts", cfg.Script.Dir)
	}
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
[layout]
repulsion = 50.0
gravity = 0.0
bucketed = true

[script]
dir = "lua"
speed = 25.0
step_timeout = "250ms"

[colors]
default = "#336699"

[server]
addr = "0.0.0.0:9000"
tick_rate = 30
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Layout.Repulsion != 50 || cfg.Layout.Gravity != 0 || !cfg.Layout.Bucketed {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.Layout.WeightExponent != 0.1 {
		t.Errorf("unset key should keep default, WeightExponent = %v", cfg.Layout.WeightExponent)
	}
	if cfg.Script.Dir != "lua" || cfg.Script.Speed != 25 {
		t.Errorf("Script = %+v", cfg.Script)
	}
	if cfg.Script.StepTimeout.Duration != 250*time.Millisecond {
		t.Errorf("StepTimeout = %v, want 250ms", cfg.Script.StepTimeout)
	}
	if want := colormap.MustParseHex("#336699"); cfg.Colors.Default != want {
		t.Errorf("Colors.Default = %v, want %v", cfg.Colors.Default, want)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" || cfg.Server.TickRate != 30 {
		t.Errorf("Server = %+v", cfg.Server)
	}

	opts := cfg.ScriptOptions()
	if opts.Speed != 25 || opts.StepTimeout != 250*time.Millisecond {
		t.Errorf("ScriptOptions = %+v", opts)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"syntax", "[layout\nrepulsion = 1", errors.ErrCodeInvalidConfig},
		{"unknown key", "[layout]\nrepulson = 1.0", errors.ErrCodeInvalidConfig},
		{"negative repulsion", "[layout]\nrepulsion = -1.0", errors.ErrCodeInvalidConfig},
		{"speed too high", "[script]\nspeed = 5000.0", errors.ErrCodeInvalidConfig},
		{"bad color", "[colors]\ndefault = \"banana\"", errors.ErrCodeInvalidConfig},
		{"bad duration", "[script]\nstep_timeout = \"soon\"", errors.ErrCodeInvalidConfig},
		{"empty dir", "[script]\ndir = \"\"", errors.ErrCodeInvalidConfig},
		{"zero tick rate", "[server]\ntick_rate = 0", errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %s, want %s (%v)", got, tt.code, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing file: err = %v, want FILE_NOT_FOUND", err)
	}

	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") without %s: %v", DefaultFile, err)
	}
	if cfg.Script.Dir != "scripts" {
		t.Errorf("expected defaults, got %+v", cfg.Script)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Layout.Repulsion = 123
	cfg.Colors.Default = colormap.MustParseHex("#ff000080")
	path := filepath.Join(t.TempDir(), "out.toml")
	if err := cfg.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Layout.Repulsion != 123 || got.Colors.Default != cfg.Colors.Default {
		t.Errorf("round trip lost values: %+v", got)
	}
	if got.Script.StepTimeout != cfg.Script.StepTimeout {
		t.Errorf("StepTimeout = %v, want %v", got.Script.StepTimeout, cfg.Script.StepTimeout)
	}
}

func TestCacheDir(t *testing.T) {
	cfg := Default()
	cfg.Cache.Dir = "/tmp/grephite-cache"
	dir, err := cfg.CacheDir()
	if err != nil || dir != "/tmp/grephite-cache" {
		t.Errorf("CacheDir() = %q, %v", dir, err)
	}

	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cfg.Cache.Dir = ""
	dir, err = cfg.CacheDir()
	if err != nil {
		t.Fatalf("CacheDir() error: %v", err)
	}
	if filepath.Base(dir) != "render" || filepath.Base(filepath.Dir(dir)) != "grephite" {
		t.Errorf("CacheDir() = %q, want .../grephite/render", dir)
	}
}
