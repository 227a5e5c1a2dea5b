// Package keepalive wires the activity observer, idle timer, deterrence
// burst and settings watcher into one engine with a start/stop lifecycle.
package keepalive

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/stigoleg/nosleep/internal/deterrence"
	"github.com/stigoleg/nosleep/internal/platform"
	"github.com/stigoleg/nosleep/internal/schedule"
	"github.com/stigoleg/nosleep/internal/timer"
	"github.com/stigoleg/nosleep/internal/watcher"
)

// SimulationHealth represents the runtime health of synthetic input.
type SimulationHealth int

const (
	SimulationHealthUnknown SimulationHealth = iota
	SimulationHealthOK
	SimulationHealthFailed
)

func (h SimulationHealth) String() string {
	switch h {
	case SimulationHealthOK:
		return "ok"
	case SimulationHealthFailed:
		return "failing"
	default:
		return "unknown"
	}
}

const defaultStopTimeout = 5 * time.Second

// Options configures a Keeper. Zero values select the defaults.
type Options struct {
	Policy        schedule.Policy
	Burst         deterrence.Options
	Watch         watcher.Options
	SuppressGrace time.Duration
	StopTimeout   time.Duration

	Clock  clock.WithTickerAndDelayedExecution
	Logger logrus.FieldLogger
}

// Status is a point-in-time view of the engine.
type Status struct {
	Running        bool
	Platform       string
	TimerState     timer.State
	Schedule       schedule.Schedule
	NextDeterrence time.Time
	Remaining      time.Duration
	Bursts         uint64
	Suppressed     uint64
	Health         SimulationHealth
	Blind          bool
	SettingsError  error
}

// Keeper manages the deterrence engine.
type Keeper struct {
	plat    *platform.Platform
	opts    Options
	clock   clock.WithTickerAndDelayedExecution
	log     logrus.FieldLogger
	timer   *timer.Timer
	burster *deterrence.Burster
	watcher *watcher.Watcher

	mu          sync.Mutex
	running     bool
	shutdown    bool
	ctx         context.Context
	cancel      context.CancelFunc
	burstCancel context.CancelFunc
	endTimer    clock.Timer
	endTime     time.Time
	cleanup     *CleanupManager
	watchDone   chan struct{}
	blind       bool

	// schedMu orders schedule application against Stop so a late
	// watcher refresh cannot re-arm a stopped timer.
	schedMu sync.Mutex
	active  bool

	burstWG       sync.WaitGroup
	bursting      int32
	suppressUntil int64

	bursts     uint64
	suppressed uint64

	// simulationFailCount tracks consecutive injection failures
	simulationFailCount int64
	simulationRuns      int64

	hookReport    sync.Once
	closePlatform sync.Once
}

// New builds a keeper over plat. Nothing is started until Start.
func New(plat *platform.Platform, opts Options) *Keeper {
	if opts.Policy == (schedule.Policy{}) {
		opts.Policy = schedule.DefaultPolicy()
	}
	if opts.SuppressGrace <= 0 {
		opts.SuppressGrace = platform.DefaultSuppressGrace
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = defaultStopTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	k := &Keeper{
		plat:  plat,
		opts:  opts,
		clock: opts.Clock,
		log:   opts.Logger.WithField("component", "keeper"),
	}
	k.timer = timer.New(opts.Clock, k.onExpire, opts.Logger)
	k.burster = deterrence.New(plat.Injector, opts.Burst, opts.Clock, opts.Logger)
	k.watcher = watcher.New(plat.Provider, plat.Notifier, opts.Policy, k.applySchedule, opts.Watch, opts.Clock, opts.Logger)
	return k
}

// IsRunning returns whether the engine is currently active
func (k *Keeper) IsRunning() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.running
}

// Start runs the engine until Stop, Shutdown or ctx cancellation.
func (k *Keeper) Start(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.startLocked(ctx)
}

// StartTimed runs the engine and stops it after d.
func (k *Keeper) StartTimed(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %s", d)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if err := k.startLocked(ctx); err != nil {
		return err
	}

	k.endTime = k.clock.Now().Add(d)
	k.endTimer = k.clock.AfterFunc(d, func() {
		go func() {
			k.log.Infof("keeper: duration %s elapsed", d)
			_ = k.Stop()
		}()
	})
	k.log.Infof("keeper: started (timed=%s)", d)
	return nil
}

func (k *Keeper) startLocked(parent context.Context) error {
	if k.shutdown {
		return ErrShutdown
	}
	if k.running {
		return ErrRunning
	}

	k.ctx, k.cancel = context.WithCancel(parent)
	k.cleanup = NewCleanupManager(k.opts.StopTimeout, k.log)
	k.endTime = time.Time{}

	k.schedMu.Lock()
	k.active = true
	k.schedMu.Unlock()

	// Shutdown order: timer, burst, observer, watcher.
	k.cleanup.RegisterFunc("timer", func() error {
		k.schedMu.Lock()
		k.active = false
		k.timer.Stop()
		k.schedMu.Unlock()
		return nil
	})
	k.cleanup.RegisterFunc("burst", func() error {
		k.mu.Lock()
		if k.burstCancel != nil {
			k.burstCancel()
		}
		k.mu.Unlock()
		k.burstWG.Wait()
		return nil
	})

	// a restarted engine needs the schedule even when it has not changed
	if _, err := k.watcher.Sync(); err != nil {
		k.log.Warnf("keeper: %v: %v", ErrSettingsQuery, err)
	}

	k.blind = false
	if err := k.plat.Observer.Install(k.onActivity); err != nil {
		k.blind = true
		k.hookReport.Do(func() {
			k.log.Errorf("keeper: %v: %v; deterring on every interval", ErrHookInstallation, err)
		})
	} else {
		k.cleanup.RegisterFunc("observer", k.plat.Observer.Uninstall)
	}

	watchCtx, stopWatch := context.WithCancel(k.ctx)
	done := make(chan struct{})
	k.watchDone = done
	go func() {
		defer close(done)
		k.watcher.Run(watchCtx)
	}()
	k.cleanup.RegisterFunc("watcher", func() error {
		stopWatch()
		<-done
		return k.watcher.Close()
	})

	// a cancelled parent context stops the engine
	go func(ctx context.Context, session context.Context) {
		<-session.Done()
		if ctx.Err() != nil {
			_ = k.Stop()
		}
	}(parent, k.ctx)

	k.running = true
	k.log.Infof("keeper: started on %s (schedule %s)", k.plat.Name, k.currentSchedule())
	return nil
}

// Stop stops the engine. It is idempotent.
func (k *Keeper) Stop() error {
	return k.StopWithTimeout(0)
}

// StopWithTimeout stops the engine, giving cleanup at most timeout.
func (k *Keeper) StopWithTimeout(timeout time.Duration) error {
	k.mu.Lock()
	if !k.running {
		k.mu.Unlock()
		return nil
	}
	if timeout > 0 {
		k.cleanup.timeout = timeout
	}
	if k.endTimer != nil {
		k.endTimer.Stop()
		k.endTimer = nil
	}
	cleanup := k.cleanup
	cancel := k.cancel
	k.running = false
	k.mu.Unlock()

	errs := cleanup.Execute()
	cancel()

	if len(errs) > 0 {
		k.log.Warnf("keeper: stopped with %d cleanup errors", len(errs))
		return errs[0]
	}
	k.log.Info("keeper: stopped")
	return nil
}

// Shutdown stops the engine and releases the platform. The keeper cannot be
// started again afterwards.
func (k *Keeper) Shutdown() error {
	err := k.Stop()

	k.mu.Lock()
	k.shutdown = true
	k.mu.Unlock()

	k.closePlatform.Do(func() {
		if cerr := k.plat.Close(); cerr != nil {
			k.log.Warnf("keeper: closing platform: %v", cerr)
			if err == nil {
				err = cerr
			}
		}
	})
	return err
}

// TimeRemaining returns the remaining duration for timed mode
func (k *Keeper) TimeRemaining() time.Duration {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.running || k.endTime.IsZero() {
		return 0
	}
	remaining := k.endTime.Sub(k.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SetPolicy changes margin, floor and fallback; a running engine picks up
// the new interval immediately.
func (k *Keeper) SetPolicy(p schedule.Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	k.watcher.SetPolicy(p)
	return nil
}

// Status returns a snapshot of the engine.
func (k *Keeper) Status() Status {
	k.mu.Lock()
	running, blind := k.running, k.blind
	k.mu.Unlock()

	st := Status{
		Running:       running,
		Platform:      k.plat.Name,
		TimerState:    k.timer.State(),
		Schedule:      k.currentSchedule(),
		Remaining:     k.TimeRemaining(),
		Bursts:        atomic.LoadUint64(&k.bursts),
		Suppressed:    atomic.LoadUint64(&k.suppressed),
		Health:        k.GetSimulationHealth(),
		Blind:         running && blind,
		SettingsError: k.watcher.LastError(),
	}
	if d, ok := k.timer.Deadline(); ok {
		st.NextDeterrence = d
	}
	return st
}

func (k *Keeper) currentSchedule() schedule.Schedule {
	s, _ := k.watcher.Current()
	return s
}

// applySchedule is the watcher's sink. A disabled schedule disarms the timer.
func (k *Keeper) applySchedule(s schedule.Schedule) {
	k.schedMu.Lock()
	defer k.schedMu.Unlock()

	if !k.active {
		return
	}
	if !s.Enabled {
		if k.timer.State() != timer.Disarmed {
			k.log.Info("keeper: idle lock disabled; countdown disarmed")
		}
		k.timer.Stop()
		return
	}

	var err error
	switch {
	case k.timer.State() == timer.Disarmed:
		err = k.timer.Start(s.Interval)
	case k.timer.Interval() == s.Interval:
		return
	default:
		err = k.timer.Reconfigure(s.Interval)
	}
	if err != nil {
		k.log.Errorf("keeper: applying schedule %s: %v", s, err)
	}
}

// onActivity is called from the observer for every qualifying input event.
func (k *Keeper) onActivity() {
	if k.selfInflicted() {
		atomic.AddUint64(&k.suppressed, 1)
		return
	}
	k.timer.Reset()
}

func (k *Keeper) selfInflicted() bool {
	if atomic.LoadInt32(&k.bursting) == 1 {
		return true
	}
	return k.clock.Now().UnixNano() < atomic.LoadInt64(&k.suppressUntil)
}

// onExpire runs a burst on the timer's goroutine.
func (k *Keeper) onExpire() {
	k.mu.Lock()
	if !k.running {
		k.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(k.ctx)
	k.burstCancel = cancel
	k.burstWG.Add(1)
	k.mu.Unlock()

	defer k.burstWG.Done()
	defer func() {
		cancel()
		k.mu.Lock()
		k.burstCancel = nil
		k.mu.Unlock()
	}()

	atomic.StoreInt32(&k.bursting, 1)
	res, err := k.burster.Run(ctx)
	atomic.StoreInt64(&k.suppressUntil, k.clock.Now().Add(k.opts.SuppressGrace).UnixNano())
	atomic.StoreInt32(&k.bursting, 0)
	atomic.AddInt64(&k.simulationRuns, 1)

	if err != nil {
		fails := k.RecordSimulationFailure()
		if fails == 1 {
			k.log.Warnf("keeper: %v: %v", ErrSyntheticInput, err)
		} else {
			k.log.Debugf("keeper: %v (%d in a row): %v", ErrSyntheticInput, fails, err)
		}
		return
	}

	k.ResetSimulationHealth()
	atomic.AddUint64(&k.bursts, 1)
	k.log.Debugf("keeper: deterrence burst done (%d batches, interrupted=%t)", res.Batches, res.Interrupted)
}

// GetSimulationHealth returns the current health of synthetic input
func (k *Keeper) GetSimulationHealth() SimulationHealth {
	if atomic.LoadInt64(&k.simulationFailCount) > 0 {
		return SimulationHealthFailed
	}
	if atomic.LoadInt64(&k.simulationRuns) == 0 {
		return SimulationHealthUnknown
	}
	return SimulationHealthOK
}

// RecordSimulationFailure increments the simulation failure counter and
// returns the length of the current failure streak.
func (k *Keeper) RecordSimulationFailure() int64 {
	return atomic.AddInt64(&k.simulationFailCount, 1)
}

// ResetSimulationHealth resets the simulation failure counter
func (k *Keeper) ResetSimulationHealth() {
	atomic.StoreInt64(&k.simulationFailCount, 0)
}
