package platform

import (
	"context"
	"fmt"
	"time"
)

// Provider reports the operating system's idle-lock configuration.
type Provider interface {
	// IdleTimeoutSeconds returns the configured idle timeout in seconds.
	IdleTimeoutSeconds() (int, error)
	// IdleLockEnabled reports whether an idle-triggered screensaver or lock is configured at all.
	IdleLockEnabled() (bool, error)
}

// ActivityObserver taps the global keyboard and pointer stream.
//
// Install registers onActivity, which is invoked for every qualifying event.
// Implementations never swallow input and must return from their event
// callback promptly. Uninstall releases every OS-level handle acquired by
// Install and is safe to call more than once.
type ActivityObserver interface {
	Install(onActivity func()) error
	Uninstall() error
}

// Injector moves the pointer using absolute coordinates.
type Injector interface {
	// CursorPosition returns the current absolute pointer position.
	CursorPosition() (Point, error)
	// Inject submits the batch to the OS input queue in order.
	Inject(batch Batch) error
}

// ContextInjector is implemented by injectors whose Inject can block for a
// noticeable time. InjectContext returns early once ctx is done.
type ContextInjector interface {
	InjectContext(ctx context.Context, batch Batch) error
}

// SettingsNotifier delivers a value on the returned channel whenever the
// idle-lock configuration may have changed. Deliveries may be spurious and
// may arrive in bursts; consumers are expected to coalesce them.
type SettingsNotifier interface {
	Subscribe(ctx context.Context) (<-chan struct{}, error)
	Close() error
}

// Point is an absolute pointer position in screen pixels.
type Point struct {
	X int
	Y int
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Batch is an ordered sequence of absolute pointer positions.
type Batch []Point

// IdleTimeoutConfig is a snapshot of the provider's answers.
type IdleTimeoutConfig struct {
	TimeoutSeconds  int
	IdleLockEnabled bool
}

// Snapshot queries both provider values. A disabled idle lock short-circuits
// the timeout query.
func Snapshot(p Provider) (IdleTimeoutConfig, error) {
	enabled, err := p.IdleLockEnabled()
	if err != nil {
		return IdleTimeoutConfig{}, err
	}
	if !enabled {
		return IdleTimeoutConfig{}, nil
	}
	secs, err := p.IdleTimeoutSeconds()
	if err != nil {
		return IdleTimeoutConfig{}, err
	}
	if secs < 0 {
		secs = 0
	}
	return IdleTimeoutConfig{TimeoutSeconds: secs, IdleLockEnabled: true}, nil
}

// Options tunes platform construction.
type Options struct {
	// IdlePollInterval is the sampling period of polling observers.
	IdlePollInterval time.Duration

	// Display overrides $DISPLAY on X11.
	Display string
}

// Platform bundles the OS collaborators used by the keeper.
type Platform struct {
	Name     string
	Provider Provider
	Observer ActivityObserver
	Injector Injector

	// Notifier is optional; without it settings changes are picked up by polling.
	Notifier SettingsNotifier

	// DependencyMessage explains reduced functionality, if any.
	DependencyMessage string

	closers []func() error
}

// OnClose registers a release function run by Close in reverse order.
func (p *Platform) OnClose(fn func() error) {
	p.closers = append(p.closers, fn)
}

// Close releases platform resources such as display or bus connections.
func (p *Platform) Close() error {
	var firstErr error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.closers = nil
	return firstErr
}
