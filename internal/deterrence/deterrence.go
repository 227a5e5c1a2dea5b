// Package deterrence injects the short pointer-motion burst that resets the
// OS idle clock without leaving the cursor displaced.
package deterrence

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/stigoleg/nosleep/internal/platform"
)

// Options shapes a burst.
type Options struct {
	// Offset is the horizontal displacement of the first position in each batch, in pixels.
	Offset int
	// Duration is the total length of the burst.
	Duration time.Duration
	// Step is the pause between batches.
	Step time.Duration
}

// DefaultOptions returns a 2 s burst of batches every 10 ms.
func DefaultOptions() Options {
	return Options{
		Offset:   platform.DefaultOffsetPixels,
		Duration: platform.DefaultBurstDuration,
		Step:     platform.DefaultBurstStep,
	}
}

// Result describes a finished burst.
type Result struct {
	Origin      platform.Point
	Batches     int
	Interrupted bool
}

// Burster runs bursts against an injector.
type Burster struct {
	injector platform.Injector
	opts     Options
	clock    clock.WithTicker
	log      logrus.FieldLogger
}

// New returns a burster. Zero option fields fall back to the defaults; a nil clk uses the wall clock.
func New(injector platform.Injector, opts Options, clk clock.WithTicker, logger logrus.FieldLogger) *Burster {
	def := DefaultOptions()
	if opts.Offset == 0 {
		opts.Offset = def.Offset
	}
	if opts.Duration <= 0 {
		opts.Duration = def.Duration
	}
	if opts.Step <= 0 {
		opts.Step = def.Step
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Burster{
		injector: injector,
		opts:     opts,
		clock:    clk,
		log:      logger.WithField("component", "deterrence"),
	}
}

// Options returns the effective burst shape.
func (b *Burster) Options() Options {
	return b.opts
}

// BatchFor returns the two-step batch that nudges the pointer away from
// origin and back.
func BatchFor(origin platform.Point, offset int) platform.Batch {
	return platform.Batch{
		{X: origin.X + offset, Y: origin.Y},
		origin,
	}
}

// Run reads the cursor and injects a batch every Step until Duration has
// elapsed or ctx is cancelled. A cancelled burst restores the origin and is
// not an error. The first injection failure ends the burst.
func (b *Burster) Run(ctx context.Context) (Result, error) {
	origin, err := b.injector.CursorPosition()
	if err != nil {
		return Result{}, errors.Wrap(err, "read cursor position")
	}
	res := Result{Origin: origin}
	batch := BatchFor(origin, b.opts.Offset)
	deadline := b.clock.Now().Add(b.opts.Duration)

	ticker := b.clock.NewTicker(b.opts.Step)
	defer ticker.Stop()

	for {
		if err := b.inject(ctx, batch); err != nil {
			b.restore(origin)
			if ctx.Err() != nil {
				res.Interrupted = true
				b.log.Debugf("deterrence: burst interrupted during batch %d", res.Batches+1)
				return res, nil
			}
			return res, errors.Wrapf(err, "inject batch %d", res.Batches+1)
		}
		res.Batches++

		select {
		case <-ctx.Done():
			res.Interrupted = true
			b.restore(origin)
			b.log.Debugf("deterrence: burst interrupted after %d batches", res.Batches)
			return res, nil
		case now := <-ticker.C():
			if !now.Before(deadline) {
				b.log.Debugf("deterrence: burst of %d batches at %s", res.Batches, origin)
				return res, nil
			}
		}
	}
}

func (b *Burster) inject(ctx context.Context, batch platform.Batch) error {
	if ci, ok := b.injector.(platform.ContextInjector); ok {
		return ci.InjectContext(ctx, batch)
	}
	return b.injector.Inject(batch)
}

func (b *Burster) restore(origin platform.Point) {
	if err := b.injector.Inject(platform.Batch{origin}); err != nil {
		b.log.Warnf("deterrence: restoring cursor to %s failed: %v", origin, err)
	}
}
