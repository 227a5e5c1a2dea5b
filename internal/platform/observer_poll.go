package platform

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"k8s.io/utils/clock"
)

// IdleClock reports how long the session has gone without real user input.
type IdleClock interface {
	IdleTime() (time.Duration, error)
}

// IdleClockFunc adapts a function to IdleClock.
type IdleClockFunc func() (time.Duration, error)

// IdleTime implements IdleClock.
func (f IdleClockFunc) IdleTime() (time.Duration, error) { return f() }

// PollingObserver derives activity signals from an idle clock on systems
// where a global input tap is not available. A sample that went backwards,
// or that is shorter than the poll interval, means input happened since the
// previous sample.
type PollingObserver struct {
	idle     IdleClock
	interval time.Duration
	clock    clock.WithTicker

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	failing bool
}

// NewPollingObserver samples idle every interval. A nil clk uses the wall clock.
func NewPollingObserver(idle IdleClock, interval time.Duration, clk clock.WithTicker) *PollingObserver {
	if interval <= 0 {
		interval = DefaultIdlePollInterval
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &PollingObserver{idle: idle, interval: interval, clock: clk}
}

// Install starts sampling and calls onActivity whenever input is detected.
func (o *PollingObserver) Install(onActivity func()) error {
	if onActivity == nil {
		return errors.New("activity callback is nil")
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stop != nil {
		return errors.New("observer already installed")
	}

	// Fail fast if the clock cannot be read at all.
	first, err := o.idle.IdleTime()
	if err != nil {
		return errors.Wrap(err, "read idle clock")
	}

	o.stop = make(chan struct{})
	o.done = make(chan struct{})
	go o.loop(first, onActivity, o.stop, o.done)
	return nil
}

func (o *PollingObserver) loop(last time.Duration, onActivity func(), stop, done chan struct{}) {
	defer close(done)

	ticker := o.clock.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			idle, err := o.idle.IdleTime()
			if err != nil {
				o.noteFailure(err)
				continue
			}
			o.noteRecovery()

			if idle < last || idle < o.interval {
				onActivity()
			}
			last = idle
		}
	}
}

func (o *PollingObserver) noteFailure(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.failing {
		log.Warnf("platform: idle clock read failed: %v", err)
	}
	o.failing = true
}

func (o *PollingObserver) noteRecovery() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failing {
		log.Info("platform: idle clock readable again")
	}
	o.failing = false
}

// Uninstall stops sampling and waits for the sampler to exit.
func (o *PollingObserver) Uninstall() error {
	o.mu.Lock()
	stop, done := o.stop, o.done
	o.stop, o.done = nil, nil
	o.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}
