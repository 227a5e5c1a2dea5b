// Package config loads nosleep settings from a TOML or YAML file, the
// environment and the command line.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/stigoleg/nosleep/internal/deterrence"
	"github.com/stigoleg/nosleep/internal/platform"
	"github.com/stigoleg/nosleep/internal/schedule"
	"github.com/stigoleg/nosleep/internal/util"
	"github.com/stigoleg/nosleep/internal/watcher"
)

// AppName names the config directory, lock file and log file.
const AppName = "nosleep"

// Run modes.
const (
	ModeTray     = "tray"
	ModeTUI      = "tui"
	ModeHeadless = "headless"
)

// Duration is a time.Duration that decodes from "10s" style strings or
// from a bare number of seconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler (used by TOML).
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := util.ParseSeconds(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalTOML accepts integer seconds as well as strings.
func (d *Duration) UnmarshalTOML(v interface{}) error {
	switch x := v.(type) {
	case int64:
		*d = Duration(time.Duration(x) * time.Second)
		return nil
	case string:
		return d.UnmarshalText([]byte(x))
	default:
		return errors.Errorf("unsupported duration value %v", v)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// MarshalText renders the duration in Go notation.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds every tunable of the engine and its front ends.
type Config struct {
	Margin   Duration `toml:"margin" yaml:"margin"`
	Floor    Duration `toml:"floor" yaml:"floor"`
	Fallback Duration `toml:"fallback" yaml:"fallback"`

	Offset        int      `toml:"offset" yaml:"offset"`
	BurstDuration Duration `toml:"burst_duration" yaml:"burst_duration"`
	BurstStep     Duration `toml:"burst_step" yaml:"burst_step"`
	SuppressGrace Duration `toml:"suppress_grace" yaml:"suppress_grace"`

	PollInterval Duration `toml:"poll_interval" yaml:"poll_interval"`
	Debounce     Duration `toml:"debounce" yaml:"debounce"`

	Mode     string `toml:"mode" yaml:"mode"`
	LogLevel string `toml:"log_level" yaml:"log_level"`
	LogFile  string `toml:"log_file" yaml:"log_file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Margin:        Duration(platform.DefaultMargin),
		Floor:         Duration(platform.DefaultFloor),
		Fallback:      Duration(platform.DefaultFallback),
		Offset:        platform.DefaultOffsetPixels,
		BurstDuration: Duration(platform.DefaultBurstDuration),
		BurstStep:     Duration(platform.DefaultBurstStep),
		SuppressGrace: Duration(platform.DefaultSuppressGrace),
		PollInterval:  Duration(platform.DefaultSettingsPollInterval),
		Debounce:      Duration(platform.DefaultDebounce),
		Mode:          ModeTray,
		LogLevel:      "info",
		LogFile:       DefaultLogFile(),
	}
}

// Policy returns the schedule policy part of the configuration.
func (c *Config) Policy() schedule.Policy {
	return schedule.Policy{
		Margin:   c.Margin.Std(),
		Floor:    c.Floor.Std(),
		Fallback: c.Fallback.Std(),
	}
}

// Burst returns the deterrence burst options.
func (c *Config) Burst() deterrence.Options {
	return deterrence.Options{
		Offset:   c.Offset,
		Duration: c.BurstDuration.Std(),
		Step:     c.BurstStep.Std(),
	}
}

// Watch returns the settings watcher options.
func (c *Config) Watch() watcher.Options {
	return watcher.Options{
		PollInterval: c.PollInterval.Std(),
		Debounce:     c.Debounce.Std(),
	}
}

// Level returns the parsed log level.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Policy().Validate(); err != nil {
		return err
	}
	if c.Offset == 0 {
		return errors.New("offset must not be zero")
	}
	if c.BurstDuration <= 0 || c.BurstStep <= 0 {
		return errors.New("burst_duration and burst_step must be positive")
	}
	if c.BurstStep > c.BurstDuration {
		return errors.Errorf("burst_step %s exceeds burst_duration %s", c.BurstStep.Std(), c.BurstDuration.Std())
	}
	if c.SuppressGrace < 0 {
		return errors.New("suppress_grace must not be negative")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	if c.Debounce < 0 {
		return errors.New("debounce must not be negative")
	}
	switch c.Mode {
	case ModeTray, ModeTUI, ModeHeadless:
	default:
		return errors.Errorf("unknown mode %q (want %s, %s or %s)", c.Mode, ModeTray, ModeTUI, ModeHeadless)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}
	return nil
}

var durationEnv = map[string]func(*Config) *Duration{
	"NOSLEEP_MARGIN":         func(c *Config) *Duration { return &c.Margin },
	"NOSLEEP_FLOOR":          func(c *Config) *Duration { return &c.Floor },
	"NOSLEEP_FALLBACK":       func(c *Config) *Duration { return &c.Fallback },
	"NOSLEEP_BURST_DURATION": func(c *Config) *Duration { return &c.BurstDuration },
	"NOSLEEP_BURST_STEP":     func(c *Config) *Duration { return &c.BurstStep },
	"NOSLEEP_SUPPRESS_GRACE": func(c *Config) *Duration { return &c.SuppressGrace },
	"NOSLEEP_POLL_INTERVAL":  func(c *Config) *Duration { return &c.PollInterval },
	"NOSLEEP_DEBOUNCE":       func(c *Config) *Duration { return &c.Debounce },
}

// ApplyEnvOverrides applies NOSLEEP_* environment variables on top of c.
func (c *Config) ApplyEnvOverrides() error {
	for name, field := range durationEnv {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			continue
		}
		if err := field(c).UnmarshalText([]byte(v)); err != nil {
			return errors.Wrap(err, name)
		}
	}

	if v := os.Getenv("NOSLEEP_OFFSET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "NOSLEEP_OFFSET")
		}
		c.Offset = n
	}
	if v := os.Getenv("NOSLEEP_MODE"); v != "" {
		c.Mode = v
	}
	if v := os.Getenv("NOSLEEP_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("NOSLEEP_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	return nil
}

// Dir returns the per-user configuration directory.
func Dir() string {
	if dir := os.Getenv("NOSLEEP_CONFIG_DIR"); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, AppName)
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// DefaultLogFile returns the default log file location.
func DefaultLogFile() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, AppName, AppName+".log")
}
