// Package schedule turns the OS idle-lock configuration into a deterrence interval.
package schedule

import (
	"fmt"
	"time"

	"github.com/stigoleg/nosleep/internal/platform"
)

// Policy holds the tuning used to derive an interval.
type Policy struct {
	// Margin is how long before the OS timeout the deterrent fires.
	Margin time.Duration
	// Floor is the shortest interval ever produced.
	Floor time.Duration
	// Fallback is used when the timeout is unknown.
	Fallback time.Duration
}

// DefaultPolicy returns the stock margin, floor and fallback.
func DefaultPolicy() Policy {
	return Policy{
		Margin:   platform.DefaultMargin,
		Floor:    platform.DefaultFloor,
		Fallback: platform.DefaultFallback,
	}
}

// Validate rejects non-positive floors and fallbacks and negative margins.
func (p Policy) Validate() error {
	if p.Margin < 0 {
		return fmt.Errorf("margin must not be negative, got %s", p.Margin)
	}
	if p.Floor <= 0 {
		return fmt.Errorf("floor must be positive, got %s", p.Floor)
	}
	if p.Fallback <= 0 {
		return fmt.Errorf("fallback must be positive, got %s", p.Fallback)
	}
	return nil
}

// Schedule is the result of a derivation. A disabled schedule means no
// countdown should be armed.
type Schedule struct {
	Enabled  bool
	Interval time.Duration
}

func (s Schedule) String() string {
	if !s.Enabled {
		return "disabled"
	}
	return s.Interval.String()
}

// Derive computes max(timeout - Margin, Floor) for an enabled idle lock.
// A timeout of zero is treated as "never lock".
func (p Policy) Derive(cfg platform.IdleTimeoutConfig) Schedule {
	if !cfg.IdleLockEnabled || cfg.TimeoutSeconds <= 0 {
		return Schedule{}
	}
	interval := time.Duration(cfg.TimeoutSeconds)*time.Second - p.Margin
	if interval < p.Floor {
		interval = p.Floor
	}
	return Schedule{Enabled: true, Interval: interval}
}

// FallbackSchedule is armed when the provider cannot be read and nothing is known yet.
func (p Policy) FallbackSchedule() Schedule {
	return Schedule{Enabled: true, Interval: p.Fallback}
}
