//go:build linux

package platform

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/stigoleg/nosleep/internal/platform/linux"
)

// x11Provider answers from the X server's own screensaver timeout.
type x11Provider struct {
	session *linux.X11Session
}

func (p x11Provider) IdleTimeoutSeconds() (int, error) {
	return p.session.ScreenSaverTimeout()
}

func (p x11Provider) IdleLockEnabled() (bool, error) {
	secs, err := p.session.ScreenSaverTimeout()
	if err != nil {
		return false, err
	}
	return secs > 0, nil
}

// gsettingsProvider answers from the GNOME session and screensaver schemas.
// A zero idle-delay means "never".
type gsettingsProvider struct {
	settings *linux.GSettings
}

func (p gsettingsProvider) IdleTimeoutSeconds() (int, error) {
	return p.settings.IdleDelay()
}

func (p gsettingsProvider) IdleLockEnabled() (bool, error) {
	delay, err := p.settings.IdleDelay()
	if err != nil {
		return false, err
	}
	if delay == 0 {
		return false, nil
	}
	return p.settings.LockEnabled()
}

// xtestInjector warps the pointer through the XTEST extension.
type xtestInjector struct {
	session *linux.X11Session
}

func (i xtestInjector) CursorPosition() (Point, error) {
	x, y, err := i.session.CursorPosition()
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

func (i xtestInjector) Inject(batch Batch) error {
	for _, p := range batch {
		if err := i.session.MoveAbsolute(p.X, p.Y); err != nil {
			return err
		}
	}
	return nil
}

// busInjector is the Wayland fallback: the pointer cannot be moved, so each
// batch becomes one SimulateUserActivity call and the cursor never leaves
// its position.
type busInjector struct {
	bus *linux.SessionBus
}

func (busInjector) CursorPosition() (Point, error) {
	return Point{}, nil
}

func (i busInjector) Inject(batch Batch) error {
	if len(batch) == 0 {
		return nil
	}
	return i.bus.SimulateUserActivity()
}

// busNotifier forwards dconf write notifications from the session bus.
type busNotifier struct {
	bus *linux.SessionBus
}

func (n busNotifier) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	return n.bus.WatchDconf(ctx)
}

func (busNotifier) Close() error { return nil }

// New assembles the Linux platform from whatever the session offers: X11
// with XTEST for injection and idle time, GNOME settings for the timeout,
// and the session bus for Wayland.
func New(opts Options) (*Platform, error) {
	caps := linux.DetectCapabilities()
	p := &Platform{Name: "linux/" + caps.DisplayServer}

	var x11 *linux.X11Session
	var x11Err error
	if caps.DisplayServer == linux.DisplayServerX11 || opts.Display != "" {
		x11, x11Err = linux.OpenX11(opts.Display)
		if x11Err != nil {
			log.Warnf("platform: X11 unavailable: %v", x11Err)
		} else {
			p.OnClose(x11.Close)
		}
	}

	var bus *linux.SessionBus
	if caps.DBusSession {
		var err error
		bus, err = linux.ConnectSessionBus()
		if err != nil {
			log.Warnf("platform: session bus unavailable: %v", err)
		} else {
			p.OnClose(bus.Close)
		}
	}

	switch {
	case caps.UsesGSettings():
		p.Provider = gsettingsProvider{settings: linux.NewGSettings(nil)}
	case x11 != nil:
		p.Provider = x11Provider{session: x11}
	default:
		_ = p.Close()
		return nil, errors.New("linux: no source for the idle timeout (need GNOME gsettings or an X11 display)")
	}

	switch {
	case x11 != nil:
		p.Injector = xtestInjector{session: x11}
	case bus != nil:
		p.Injector = busInjector{bus: bus}
	default:
		_ = p.Close()
		return nil, errors.New("linux: no way to inject input (need XTEST or a session bus)")
	}

	switch {
	case x11 != nil && x11.HasIdleClock():
		p.Observer = NewPollingObserver(x11, opts.IdlePollInterval, nil)
	case bus != nil:
		p.Observer = NewPollingObserver(IdleClockFunc(bus.MutterIdleTime), opts.IdlePollInterval, nil)
	default:
		p.Observer = unavailableObserver{reason: "no idle clock (need MIT-SCREEN-SAVER or Mutter IdleMonitor)"}
	}

	if caps.UsesGSettings() {
		if bus != nil {
			p.Notifier = busNotifier{bus: bus}
		} else if dir, err := os.UserConfigDir(); err == nil {
			p.Notifier = NewFileNotifier(filepath.Join(dir, "dconf", "user"))
		}
	}

	p.DependencyMessage = linux.GetDependencyMessage(x11Err)
	return p, nil
}

// Alert writes the message to stderr.
func Alert(title, message string) {
	_, _ = os.Stderr.WriteString(title + ": " + message + "\n")
}
