// Package config loads grephite settings from a TOML file.
//
// Every field has a default, so a missing file or section is not an error.
// A file may only set known keys; unknown keys are rejected to catch typos.
//
//	[layout]
//	enabled = true
//	repulsion = 5000.0
//	gravity = 0.2
//	weight_exponent = 0.1
//
//	[script]
//	dir = "scripts"
//	speed = 5.0
//	step_timeout = "2s"
//
//	[colors]
//	default = "#000000"
//
//	[server]
//	addr = "127.0.0.1:8080"
//	tick_rate = 60
//
//	[cache]
//	ttl = "168h"
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/grephite/pkg/colormap"
	"github.com/matzehuels/grephite/pkg/errors"
	"github.com/matzehuels/grephite/pkg/layout"
	"github.com/matzehuels/grephite/pkg/script"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "grephite.toml"

// Config is the full set of settings.
type Config struct {
	Layout layout.Params `toml:"layout"`
	Script Script        `toml:"script"`
	Colors Colors        `toml:"colors"`
	Server Server        `toml:"server"`
	Graph  Graph         `toml:"graph"`
	Cache  Cache         `toml:"cache"`
}

// Script configures the script host and the scripts directory.
type Script struct {
	Dir         string   `toml:"dir" validate:"required"`
	Speed       float64  `toml:"speed" validate:"gte=0.1,lte=1000"`
	StepTimeout Duration `toml:"step_timeout"`
	AutoRun     bool     `toml:"auto_run"`
}

// Colors configures node colors.
type Colors struct {
	Default colormap.Color `toml:"default"`
}

// Server configures the HTTP surface.
type Server struct {
	Addr     string `toml:"addr" validate:"required,hostname_port"`
	TickRate int    `toml:"tick_rate" validate:"gt=0,lte=1000"`
}

// Graph configures edge-list loading.
type Graph struct {
	// Seed makes random initial placement reproducible.
	Seed uint64 `toml:"seed"`
}

// Cache configures the render artifact cache.
type Cache struct {
	// Dir defaults to grephite/render under the user cache directory.
	Dir      string   `toml:"dir,omitempty"`
	TTL      Duration `toml:"ttl"`
	Disabled bool     `toml:"disabled"`
}

// Duration is a time.Duration read from a string such as "250ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("negative duration %q", b)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Layout: layout.DefaultParams(),
		Script: Script{
			Dir:         "scripts",
			Speed:       script.DefaultSpeed,
			StepTimeout: Duration{2 * time.Second},
		},
		Colors: Colors{Default: colormap.Base},
		Server: Server{Addr: "127.0.0.1:8080", TickRate: 60},
		Graph:  Graph{Seed: 1},
		Cache:  Cache{TTL: Duration{7 * 24 * time.Hour}},
	}
}

// Load reads path over the defaults. An empty path tries DefaultFile and
// silently falls back to the defaults when it does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	md, err := toml.DecodeFile(path, cfg)
	switch {
	case err == nil:
	case stderrors.Is(err, fs.ErrNotExist) && !explicit:
		return cfg, nil
	case stderrors.Is(err, fs.ErrNotExist):
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	default:
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := errors.ValidateStruct(errors.ErrCodeInvalidConfig, c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
	}
	return nil
}

// Write encodes c as TOML.
func (c *Config) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ScriptOptions returns the script host options derived from c.
func (c *Config) ScriptOptions() script.Options {
	return script.Options{Speed: c.Script.Speed, StepTimeout: c.Script.StepTimeout.Duration}
}

// CacheDir returns the render cache directory, resolving the default
// against the user cache directory.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "grephite", "render"), nil
}
