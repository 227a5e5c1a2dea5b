//go:build linux

package linux

import (
	"context"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
)

const (
	mutterIdleDest  = "org.gnome.Mutter.IdleMonitor"
	mutterIdlePath  = "/org/gnome/Mutter/IdleMonitor/Core"
	mutterIdleIface = "org.gnome.Mutter.IdleMonitor"

	screenSaverDest  = "org.freedesktop.ScreenSaver"
	screenSaverPath  = "/org/freedesktop/ScreenSaver"
	screenSaverIface = "org.freedesktop.ScreenSaver"

	dconfWriterIface = "ca.desrt.dconf.Writer"

	busCallTimeout = 2 * time.Second
)

// SessionBus wraps a private session bus connection.
type SessionBus struct {
	conn *dbus.Conn
}

// ConnectSessionBus opens a private connection to the user's session bus.
func ConnectSessionBus() (*SessionBus, error) {
	conn, err := dbus.SessionBusPrivate()
	if err != nil {
		return nil, errors.Wrap(err, "open session bus")
	}
	if err := conn.Auth(nil); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "authenticate to session bus")
	}
	if err := conn.Hello(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "session bus hello")
	}
	return &SessionBus{conn: conn}, nil
}

// MutterIdleTime asks the GNOME compositor for the time since the last user input.
func (b *SessionBus) MutterIdleTime() (time.Duration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), busCallTimeout)
	defer cancel()

	var ms uint64
	err := b.conn.Object(mutterIdleDest, mutterIdlePath).
		CallWithContext(ctx, mutterIdleIface+".GetIdletime", 0).
		Store(&ms)
	if err != nil {
		return 0, errors.Wrap(err, "Mutter GetIdletime")
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// SimulateUserActivity resets the session idle timer through the freedesktop screensaver service.
func (b *SessionBus) SimulateUserActivity() error {
	ctx, cancel := context.WithTimeout(context.Background(), busCallTimeout)
	defer cancel()

	call := b.conn.Object(screenSaverDest, screenSaverPath).
		CallWithContext(ctx, screenSaverIface+".SimulateUserActivity", 0)
	if call.Err != nil {
		return errors.Wrap(call.Err, "ScreenSaver SimulateUserActivity")
	}
	return nil
}

// WatchDconf delivers a value whenever dconf announces a write. The
// subscription ends when ctx is cancelled.
func (b *SessionBus) WatchDconf(ctx context.Context) (<-chan struct{}, error) {
	match := []dbus.MatchOption{
		dbus.WithMatchInterface(dconfWriterIface),
		dbus.WithMatchMember("Notify"),
	}
	if err := b.conn.AddMatchSignal(match...); err != nil {
		return nil, errors.Wrap(err, "subscribe to dconf notifications")
	}

	sigs := make(chan *dbus.Signal, 16)
	b.conn.Signal(sigs)

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer func() {
			b.conn.RemoveSignal(sigs)
			_ = b.conn.RemoveMatchSignal(match...)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-sigs:
				if !ok {
					return
				}
				if sig == nil || sig.Name != dconfWriterIface+".Notify" {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}

// Close releases the bus connection.
func (b *SessionBus) Close() error {
	return b.conn.Close()
}
