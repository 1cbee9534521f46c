// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the operator configuration.
type Config struct {
	// Console configures the dashboard and its session journal.
	Console ConsoleConfig `yaml:"console"`

	// Engine configures the scenario engine.
	Engine EngineConfig `yaml:"engine"`

	// Effects configures remote sessions.
	Effects EffectsConfig `yaml:"effects"`

	// Replay configures log replay delivery.
	Replay ReplayConfig `yaml:"replay"`
}

// ConsoleConfig configures the operator console.
type ConsoleConfig struct {
	// LogDir is the directory the session journal is written to.
	// Default: . (the working directory)
	LogDir string `yaml:"log_dir"`

	// JournalName is the journal's base name. The journal is
	// <JournalName>.txt, or <JournalName>N.txt when that exists.
	// Default: ECS_Log
	JournalName string `yaml:"journal_name"`

	// Archive enables the CBOR archive written next to the journal.
	// Default: true
	Archive bool `yaml:"archive"`
}

// EngineConfig configures the scenario engine.
type EngineConfig struct {
	// ReapInterval is how often finished workers are removed from the
	// registry.
	// Default: 5s
	ReapInterval string `yaml:"reap_interval"`
}

// EffectsConfig configures remote sessions.
type EffectsConfig struct {
	// ConnectTimeout bounds each SSH connection attempt. Attempts are
	// never retried.
	// Default: 2s
	ConnectTimeout string `yaml:"connect_timeout"`

	// DefaultDestination is the upload destination used when an
	// effect lists files but no destinations.
	// Default: ~/
	DefaultDestination string `yaml:"default_destination"`

	// KnownHosts is an OpenSSH known_hosts file used to verify target
	// host keys. When empty, host keys are not verified.
	KnownHosts string `yaml:"known_hosts"`
}

// ReplayConfig configures log replay.
type ReplayConfig struct {
	// RequestTimeout bounds index deletions on the analytics backend.
	// Default: 5s
	RequestTimeout string `yaml:"request_timeout"`

	// BulkTimeout bounds each bulk write. Empty means no limit beyond
	// cancellation: indexing a large dump can take minutes.
	BulkTimeout string `yaml:"bulk_timeout"`

	// DefaultPort is the backend port used by the standalone replay
	// command when no profile supplies one.
	// Default: 9200
	DefaultPort int `yaml:"default_port"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Console: ConsoleConfig{
			LogDir:      ".",
			JournalName: "ECS_Log",
			Archive:     true,
		},
		Engine: EngineConfig{
			ReapInterval: "5s",
		},
		Effects: EffectsConfig{
			ConnectTimeout:     "2s",
			DefaultDestination: "~/",
		},
		Replay: ReplayConfig{
			RequestTimeout: "5s",
			DefaultPort:    9200,
		},
	}
}

// Load loads configuration from the file named by ECS_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv("ECS_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("ECS_CONFIG environment variable not set; " +
			"set it to the path of your ecs.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// Resolve returns the configuration for a command: the file at path
// when path is non-empty, otherwise the file named by ECS_CONFIG when
// set, otherwise Default(). The result is validated.
func Resolve(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	switch {
	case path != "":
		cfg, err = LoadFile(path)
	case os.Getenv("ECS_CONFIG") != "":
		cfg, err = Load()
	default:
		cfg = Default()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads configuration from a specific file path, on top of
// Default().
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	c.Console.LogDir = expandVars(c.Console.LogDir)
	c.Effects.KnownHosts = expandVars(c.Effects.KnownHosts)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

// ReapInterval returns Engine.ReapInterval as a duration.
func (c *Config) ReapInterval() time.Duration {
	return mustDuration(c.Engine.ReapInterval, 5*time.Second)
}

// ConnectTimeout returns Effects.ConnectTimeout as a duration.
func (c *Config) ConnectTimeout() time.Duration {
	return mustDuration(c.Effects.ConnectTimeout, 2*time.Second)
}

// RequestTimeout returns Replay.RequestTimeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return mustDuration(c.Replay.RequestTimeout, 5*time.Second)
}

// BulkTimeout returns Replay.BulkTimeout as a duration, or zero when
// bulk writes are unbounded.
func (c *Config) BulkTimeout() time.Duration {
	return mustDuration(c.Replay.BulkTimeout, 0)
}

// mustDuration parses value, returning fallback for an empty or
// invalid value. Validate reports invalid values before they get here.
func mustDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	durations := []struct {
		key   string
		value string
	}{
		{"engine.reap_interval", c.Engine.ReapInterval},
		{"effects.connect_timeout", c.Effects.ConnectTimeout},
		{"replay.request_timeout", c.Replay.RequestTimeout},
	}
	if c.Replay.BulkTimeout != "" {
		durations = append(durations, struct {
			key   string
			value string
		}{"replay.bulk_timeout", c.Replay.BulkTimeout})
	}
	for _, duration := range durations {
		parsed, err := time.ParseDuration(duration.value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", duration.key, err))
			continue
		}
		if parsed <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", duration.key, duration.value))
		}
	}

	if c.Console.JournalName == "" {
		errs = append(errs, fmt.Errorf("console.journal_name is required"))
	}
	if c.Effects.DefaultDestination == "" {
		errs = append(errs, fmt.Errorf("effects.default_destination is required"))
	}
	if c.Replay.DefaultPort <= 0 || c.Replay.DefaultPort > 65535 {
		errs = append(errs, fmt.Errorf("replay.default_port out of range: %d", c.Replay.DefaultPort))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
