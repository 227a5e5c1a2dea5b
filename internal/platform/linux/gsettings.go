//go:build linux

package linux

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// GNOME schemas holding the idle-lock configuration.
const (
	schemaSession     = "org.gnome.desktop.session"
	schemaScreensaver = "org.gnome.desktop.screensaver"
)

// GSettings reads the GNOME idle configuration through the gsettings tool.
type GSettings struct {
	run Runner
}

// NewGSettings returns a reader that shells out to gsettings. A nil runner uses the real command.
func NewGSettings(run Runner) *GSettings {
	if run == nil {
		run = runVerbose
	}
	return &GSettings{run: run}
}

// IdleDelay returns org.gnome.desktop.session idle-delay in seconds.
func (g *GSettings) IdleDelay() (int, error) {
	out, err := g.get(schemaSession, "idle-delay")
	if err != nil {
		return 0, err
	}
	return parseGVariantUint(out)
}

// LockEnabled reports whether the session either locks or activates the
// screensaver after the idle delay.
func (g *GSettings) LockEnabled() (bool, error) {
	lock, err := g.get(schemaScreensaver, "lock-enabled")
	if err != nil {
		return false, err
	}
	activation, err := g.get(schemaScreensaver, "idle-activation-enabled")
	if err != nil {
		// older schemas lack this key
		activation = "true"
	}
	return parseGVariantBool(lock) || parseGVariantBool(activation), nil
}

func (g *GSettings) get(schema, key string) (string, error) {
	out, err := g.run("gsettings", "get", schema, key)
	if err != nil {
		return "", errors.Wrapf(err, "gsettings get %s %s: %s", schema, key, out)
	}
	return strings.TrimSpace(out), nil
}

// parseGVariantUint parses values printed as "uint32 300" or "300".
func parseGVariantUint(s string) (int, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, errors.New("empty gsettings value")
	}
	v, err := strconv.ParseUint(fields[len(fields)-1], 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "parse gsettings value %q", s)
	}
	return int(v), nil
}

func parseGVariantBool(s string) bool {
	return strings.TrimSpace(s) == "true"
}
