// Package config loads the optional hookwire runtime configuration.
//
// A configuration file is either YAML (hookwire.yaml, hookwire.yml) or TOML
// (hookwire.toml). Every field is optional; missing fields keep the values of
// [Default]. The HOOKWIRE_LOG_LEVEL and HOOKWIRE_REPLAY environment variables
// override the file.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/hookwire/pkg/errors"
	"github.com/go-drift/hookwire/pkg/mount"
)

// Environment variables that override loaded values.
const (
	EnvLogLevel = "HOOKWIRE_LOG_LEVEL"
	EnvReplay   = "HOOKWIRE_REPLAY"
)

// Replay mode names accepted in configuration.
const (
	ReplayNonMatching = "non-matching"
	ReplayMatching    = "matching"
)

// CurrentVersion is the configuration schema version this package reads.
const CurrentVersion = "v1"

// Config represents the optional hookwire configuration file.
type Config struct {
	Version string        `yaml:"version" toml:"version"`
	Mount   MountConfig   `yaml:"mount" toml:"mount"`
	Errors  ErrorsConfig  `yaml:"errors" toml:"errors"`
	Log     LogConfig     `yaml:"log" toml:"log"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
}

// MountConfig contains mount tracker settings.
type MountConfig struct {
	// Replay selects which records a new mount subscriber is replayed:
	// "non-matching" (default) or "matching".
	Replay string `yaml:"replay" toml:"replay"`
}

// ErrorsConfig contains error reporting settings.
type ErrorsConfig struct {
	// Verbose adds stack traces to logged errors.
	Verbose bool `yaml:"verbose" toml:"verbose"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// MetricsConfig contains Prometheus collector settings.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Namespace string `yaml:"namespace" toml:"namespace"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Mount:   MountConfig{Replay: ReplayNonMatching},
		Log:     LogConfig{Level: "info"},
		Metrics: MetricsConfig{Namespace: "hookwire"},
	}
}

// Load reads the configuration file at path. The format is chosen by the
// file extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configError(fmt.Errorf("failed to read %s: %w", filepath.Base(path), err))
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, configError(fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err))
		}
	case ".toml":
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, configError(fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err))
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, configError(fmt.Errorf("unknown field %q in %s", undecoded[0].String(), filepath.Base(path)))
		}
	default:
		return nil, configError(fmt.Errorf("unsupported config format %q", ext))
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// candidates are the file names LoadOptional looks for, in order.
var candidates = []string{"hookwire.yaml", "hookwire.yml", "hookwire.toml"}

// LoadOptional reads the first configuration file found in dir. When none is
// present it returns the defaults with environment overrides applied.
func LoadOptional(dir string) (*Config, error) {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	cfg := Default()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		c.Log.Level = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvReplay); ok && strings.TrimSpace(v) != "" {
		c.Mount.Replay = strings.TrimSpace(v)
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if !semver.IsValid(c.Version) || semver.Major(c.Version) != semver.Major(CurrentVersion) {
		return configError(fmt.Errorf("unsupported config version %q (want %s)", c.Version, CurrentVersion))
	}
	if !slices.Contains([]string{ReplayNonMatching, ReplayMatching}, c.Mount.Replay) {
		return configError(fmt.Errorf("mount.replay must be %q or %q, got %q", ReplayNonMatching, ReplayMatching, c.Mount.Replay))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return configError(fmt.Errorf("log.level: %w", err))
	}
	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Namespace) == "" {
		return configError(fmt.Errorf("metrics.namespace is required when metrics are enabled"))
	}
	return nil
}

// ReplayMode returns the mount tracker replay mode.
func (c *Config) ReplayMode() mount.ReplayMode {
	if c.Mount.Replay == ReplayMatching {
		return mount.ReplayMatching
	}
	return mount.ReplayNonMatching
}

// LogLevel returns the parsed log level, falling back to info.
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || c.Log.Level == "" {
		return zerolog.InfoLevel
	}
	return level
}

func configError(err error) error {
	return &errors.HookError{
		Op:   "config.Load",
		Kind: errors.KindConfig,
		Err:  err,
	}
}
