// Package timer implements the idle countdown that drives deterrence.
//
// The countdown is an explicit state machine:
//
//	Disarmed -> Armed -> Expired -> Armed -> ...
//
// Every Reset or Reconfigure restarts the countdown from zero. A generation
// counter ties each pending expiry to the arming that created it, so a Reset
// that happens before an expiry is delivered always cancels it.
package timer

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// State of the countdown.
type State int

const (
	Disarmed State = iota
	Armed
	Expired
)

func (s State) String() string {
	switch s {
	case Disarmed:
		return "disarmed"
	case Armed:
		return "armed"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Timer is a resettable countdown. The expiry handler runs on a goroutine
// owned by the timer, never on the caller of Reset.
type Timer struct {
	clock    clock.WithDelayedExecution
	onExpire func()
	log      logrus.FieldLogger

	mu       sync.Mutex
	state    State
	interval time.Duration
	gen      uint64
	deadline time.Time
	pending  clock.Timer

	busy     int32
	expiries uint64
}

// New returns a disarmed timer. A nil clk uses the wall clock.
func New(clk clock.WithDelayedExecution, onExpire func(), logger logrus.FieldLogger) *Timer {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Timer{
		clock:    clk,
		onExpire: onExpire,
		log:      logger.WithField("component", "timer"),
	}
}

// Start arms the countdown with interval. Starting an armed timer behaves like Reconfigure.
func (t *Timer) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.interval = interval
	t.armLocked()
	t.log.Debugf("timer: armed for %s", interval)
	return nil
}

// Reset restarts an armed countdown with the current interval. It does
// nothing while disarmed.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Armed {
		return
	}
	t.armLocked()
}

// Reconfigure replaces the interval. An armed countdown restarts from now
// with the new interval; a disarmed timer only remembers it.
func (t *Timer) Reconfigure(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	old := t.interval
	t.interval = interval
	if t.state == Armed {
		t.armLocked()
	}
	t.log.Debugf("timer: interval %s -> %s (%s)", old, interval, t.state)
	return nil
}

// Stop disarms the timer and cancels any pending expiry. It is idempotent.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.deadline = time.Time{}
	t.state = Disarmed
}

// State returns the current state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Interval returns the interval used for the next arming.
func (t *Timer) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}

// Deadline returns when the pending expiry is due; ok is false when disarmed.
func (t *Timer) Deadline() (deadline time.Time, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Armed {
		return time.Time{}, false
	}
	return t.deadline, true
}

// Expiries returns how many times the countdown has expired.
func (t *Timer) Expiries() uint64 {
	return atomic.LoadUint64(&t.expiries)
}

func (t *Timer) armLocked() {
	t.gen++
	gen := t.gen
	if t.pending != nil {
		t.pending.Stop()
	}
	t.state = Armed
	t.deadline = t.clock.Now().Add(t.interval)
	// The callback may run with the clock's own lock held; hand off at once.
	t.pending = t.clock.AfterFunc(t.interval, func() { go t.fire(gen) })
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.state != Armed {
		t.mu.Unlock()
		return
	}
	t.state = Expired
	atomic.AddUint64(&t.expiries, 1)
	t.armLocked()
	t.mu.Unlock()

	if t.onExpire == nil {
		return
	}
	if !atomic.CompareAndSwapInt32(&t.busy, 0, 1) {
		t.log.Warn("timer: previous expiry still running; skipping")
		return
	}
	defer atomic.StoreInt32(&t.busy, 0)
	t.onExpire()
}
