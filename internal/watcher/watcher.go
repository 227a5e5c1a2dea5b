// Package watcher keeps the deterrence interval in step with the OS idle-lock settings.
package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/stigoleg/nosleep/internal/platform"
	"github.com/stigoleg/nosleep/internal/schedule"
)

// ApplyFunc receives every new schedule.
type ApplyFunc func(schedule.Schedule)

// Options tunes a Watcher.
type Options struct {
	PollInterval time.Duration
	Debounce     time.Duration
}

// Watcher re-reads the provider on change notifications and on a poll tick,
// and hands changed schedules to apply. Bursts of notifications are
// collapsed into one query.
type Watcher struct {
	provider platform.Provider
	notifier platform.SettingsNotifier
	apply    ApplyFunc
	opts     Options
	clock    clock.WithTickerAndDelayedExecution
	log      logrus.FieldLogger

	// refreshMu serialises query-derive-apply so results reach apply in order.
	refreshMu sync.Mutex

	mu          sync.Mutex
	policy      schedule.Policy
	current     schedule.Schedule
	haveCurrent bool
	lastErr     error
	failures    int

	kick chan struct{}
}

// New returns a watcher. notifier may be nil, in which case only polling is used.
func New(provider platform.Provider, notifier platform.SettingsNotifier, policy schedule.Policy,
	apply ApplyFunc, opts Options, clk clock.WithTickerAndDelayedExecution, logger logrus.FieldLogger) *Watcher {
	if opts.PollInterval <= 0 {
		opts.PollInterval = platform.DefaultSettingsPollInterval
	}
	if opts.Debounce <= 0 {
		opts.Debounce = platform.DefaultDebounce
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Watcher{
		provider: provider,
		notifier: notifier,
		apply:    apply,
		opts:     opts,
		clock:    clk,
		log:      logger.WithField("component", "watcher"),
		policy:   policy,
		kick:     make(chan struct{}, 1),
	}
}

// Current returns the schedule most recently handed to apply.
func (w *Watcher) Current() (schedule.Schedule, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current, w.haveCurrent
}

// LastError returns the most recent provider failure, or nil after a successful query.
func (w *Watcher) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// SetPolicy replaces the derivation policy and re-applies the schedule if it changed.
func (w *Watcher) SetPolicy(p schedule.Policy) {
	w.mu.Lock()
	w.policy = p
	w.mu.Unlock()
	w.Refresh()
}

// Refresh queries the provider and applies the derived schedule if it
// differs from the current one. When the provider fails the last known
// schedule stays in force; with nothing known yet the fallback interval is used.
func (w *Watcher) Refresh() (schedule.Schedule, error) {
	return w.refresh(false)
}

// Sync is Refresh that always hands the result to apply, changed or not.
func (w *Watcher) Sync() (schedule.Schedule, error) {
	return w.refresh(true)
}

func (w *Watcher) refresh(force bool) (schedule.Schedule, error) {
	w.refreshMu.Lock()
	defer w.refreshMu.Unlock()

	cfg, qerr := platform.Snapshot(w.provider)

	w.mu.Lock()
	var next schedule.Schedule
	switch {
	case qerr == nil:
		next = w.policy.Derive(cfg)
		if w.failures > 0 {
			w.log.Infof("watcher: settings readable again after %d failures", w.failures)
		}
		w.failures = 0
		w.lastErr = nil
	case w.haveCurrent:
		w.failures++
		w.lastErr = qerr
		if w.failures == 1 {
			w.log.Warnf("watcher: settings query failed, keeping %s: %v", w.current, qerr)
		}
		cur := w.current
		w.mu.Unlock()
		if force && w.apply != nil {
			w.apply(cur)
		}
		return cur, errors.Wrap(qerr, "query idle settings")
	default:
		w.failures++
		w.lastErr = qerr
		next = w.policy.FallbackSchedule()
		w.log.Warnf("watcher: settings query failed, using fallback %s: %v", next, qerr)
	}

	changed := !w.haveCurrent || next != w.current
	if changed {
		w.log.Infof("watcher: schedule %s (timeout=%ds enabled=%t)", next, cfg.TimeoutSeconds, cfg.IdleLockEnabled)
	}
	w.current = next
	w.haveCurrent = true
	w.mu.Unlock()

	if (changed || force) && w.apply != nil {
		w.apply(next)
	}
	if qerr != nil {
		return next, errors.Wrap(qerr, "query idle settings")
	}
	return next, nil
}

// Run watches until ctx is cancelled. It does not perform an initial
// Refresh; callers do that before arming anything.
func (w *Watcher) Run(ctx context.Context) {
	var notes <-chan struct{}
	if w.notifier != nil {
		ch, err := w.notifier.Subscribe(ctx)
		if err != nil {
			w.log.Warnf("watcher: change notifications unavailable, polling every %s: %v", w.opts.PollInterval, err)
		} else {
			notes = ch
		}
	}

	ticker := w.clock.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	var debounce clock.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case _, ok := <-notes:
			if !ok {
				notes = nil
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = w.clock.AfterFunc(w.opts.Debounce, func() {
				select {
				case w.kick <- struct{}{}:
				default:
				}
			})

		case <-w.kick:
			_, _ = w.Refresh()

		case <-ticker.C():
			_, _ = w.Refresh()
		}
	}
}

// Close releases the notifier.
func (w *Watcher) Close() error {
	if w.notifier == nil {
		return nil
	}
	return w.notifier.Close()
}
