package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stigoleg/nosleep/internal/deterrence"
	"github.com/stigoleg/nosleep/internal/keepalive"
	"github.com/stigoleg/nosleep/internal/platform"
	"github.com/stigoleg/nosleep/internal/schedule"
	"github.com/stigoleg/nosleep/internal/watcher"
)

// Harness is a scripted platform plus a keeper running over it.
type Harness struct {
	Keeper *keepalive.Keeper

	mu      sync.Mutex
	timeout int
	enabled bool
	order   []string
	onInput func()
	cursor  platform.Point
	batches int64
	ping    chan struct{}

	// UninstallDelay stalls observer removal, to exercise stop timeouts.
	UninstallDelay time.Duration
}

// NewHarness builds a keeper whose countdown is interval long.
func NewHarness(interval time.Duration, logger logrus.FieldLogger) *Harness {
	h := &Harness{
		timeout: 1,
		enabled: true,
		cursor:  platform.Point{X: 100, Y: 100},
		ping:    make(chan struct{}, 1),
	}

	plat := &platform.Platform{
		Name:     "harness",
		Provider: (*harnessProvider)(h),
		Observer: (*harnessObserver)(h),
		Injector: (*harnessInjector)(h),
		Notifier: (*harnessNotifier)(h),
	}
	plat.OnClose(func() error { h.record("platform"); return nil })

	// a 1s timeout minus this margin leaves exactly interval
	h.Keeper = keepalive.New(plat, keepalive.Options{
		Policy: schedule.Policy{
			Margin:   time.Second - interval,
			Floor:    interval,
			Fallback: interval,
		},
		Burst: deterrence.Options{Offset: 3, Duration: 20 * time.Millisecond, Step: 5 * time.Millisecond},
		Watch: watcher.Options{PollInterval: time.Hour, Debounce: 10 * time.Millisecond},
		SuppressGrace: 10 * time.Millisecond,
		StopTimeout:   time.Second,
		Logger:        logger,
	})
	return h
}

// Input simulates real user input.
func (h *Harness) Input() {
	h.mu.Lock()
	cb := h.onInput
	h.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// SetIdleLock changes the reported OS settings and pings the notifier.
func (h *Harness) SetIdleLock(timeoutSeconds int, enabled bool) {
	h.mu.Lock()
	h.timeout, h.enabled = timeoutSeconds, enabled
	h.mu.Unlock()
	select {
	case h.ping <- struct{}{}:
	default:
	}
}

// Batches returns how many synthetic batches were injected.
func (h *Harness) Batches() int64 { return atomic.LoadInt64(&h.batches) }

// Cursor returns the simulated pointer position.
func (h *Harness) Cursor() platform.Point {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor
}

// Order returns the teardown sequence observed so far.
func (h *Harness) Order() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.order...)
}

func (h *Harness) record(step string) {
	h.mu.Lock()
	h.order = append(h.order, step)
	h.mu.Unlock()
}

type harnessProvider Harness

func (p *harnessProvider) IdleTimeoutSeconds() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timeout, nil
}

func (p *harnessProvider) IdleLockEnabled() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled, nil
}

type harnessObserver Harness

func (o *harnessObserver) Install(cb func()) error {
	o.mu.Lock()
	o.onInput = cb
	o.mu.Unlock()
	return nil
}

func (o *harnessObserver) Uninstall() error {
	time.Sleep(o.UninstallDelay)
	o.mu.Lock()
	o.onInput = nil
	o.mu.Unlock()
	(*Harness)(o).record("observer")
	return nil
}

type harnessInjector Harness

func (i *harnessInjector) CursorPosition() (platform.Point, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cursor, nil
}

func (i *harnessInjector) Inject(b platform.Batch) error {
	atomic.AddInt64(&i.batches, 1)
	i.mu.Lock()
	i.cursor = b[len(b)-1]
	i.mu.Unlock()
	return nil
}

type harnessNotifier Harness

func (n *harnessNotifier) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	return n.ping, nil
}

func (n *harnessNotifier) Close() error {
	(*Harness)(n).record("watcher")
	return nil
}
