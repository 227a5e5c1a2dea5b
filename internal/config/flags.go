package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/stigoleg/nosleep/internal/util"
)

// Flags are the command-line settings. Only flags the user actually set
// override the file and environment.
type Flags struct {
	ConfigPath  string
	Mode        string
	Duration    string
	Clock       string
	Margin      time.Duration
	Floor       time.Duration
	LogFile     string
	LogLevel    string
	ShowVersion bool

	fs *pflag.FlagSet
}

// BindFlags registers the nosleep flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "Config file (TOML or YAML); defaults to "+DefaultPath())
	fs.StringVar(&f.Mode, "mode", ModeTray, "Front end: tray, tui or headless")
	fs.StringVarP(&f.Duration, "duration", "d", "", "Stop after this long (minutes or e.g. \"2h30m\")")
	fs.StringVarP(&f.Clock, "clock", "c", "", "Stop at this time of day (e.g. \"22:30\" or \"10:30PM\")")
	fs.DurationVar(&f.Margin, "margin", time.Duration(Default().Margin), "Deter this long before the idle timeout")
	fs.DurationVar(&f.Floor, "floor", time.Duration(Default().Floor), "Shortest countdown interval")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file; defaults to "+DefaultLogFile())
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVarP(&f.ShowVersion, "version", "v", false, "Show version information")
	return f
}

// Apply copies explicitly set flags onto cfg.
func (f *Flags) Apply(cfg *Config) {
	if f.changed("mode") {
		cfg.Mode = f.Mode
	}
	if f.changed("margin") {
		cfg.Margin = Duration(f.Margin)
	}
	if f.changed("floor") {
		cfg.Floor = Duration(f.Floor)
	}
	if f.changed("log-file") {
		cfg.LogFile = f.LogFile
	}
	if f.changed("log-level") {
		cfg.LogLevel = f.LogLevel
	}
}

func (f *Flags) changed(name string) bool {
	return f.fs != nil && f.fs.Changed(name)
}

// RunFor resolves --duration or --clock into a run length. Zero means run
// until stopped.
func (f *Flags) RunFor(now time.Time) (time.Duration, error) {
	if f.Duration != "" && f.Clock != "" {
		return 0, errors.New("--duration and --clock cannot be used together")
	}
	switch {
	case f.Duration != "":
		return util.ParseDuration(f.Duration)
	case f.Clock != "":
		return util.UntilClock(f.Clock, now)
	default:
		return 0, nil
	}
}
