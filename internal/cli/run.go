package cli

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/stigoleg/nosleep/internal/config"
	"github.com/stigoleg/nosleep/internal/keepalive"
	"github.com/stigoleg/nosleep/internal/platform"
	"github.com/stigoleg/nosleep/internal/single"
	"github.com/stigoleg/nosleep/internal/tray"
	"github.com/stigoleg/nosleep/internal/ui"
)

const shutdownTimeout = 5 * time.Second

func run(ctx context.Context, flags *config.Flags, version string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	loader := config.NewLoader(flags.ConfigPath, nil)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	flags.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	runFor, err := flags.RunFor(time.Now())
	if err != nil {
		return err
	}

	// another instance owns the session; say so and leave everything alone
	guard, err := single.Acquire(config.AppName)
	if errors.Is(err, single.ErrAlreadyRunning) {
		platform.Alert(config.AppName, "nosleep is already running.")
		return &ExitError{Code: 1, Err: err}
	} else if err != nil {
		return err
	}
	defer func() { _ = guard.Release() }()

	logger, logFile, err := newLogger(cfg.LogFile, cfg.Level(), cfg.Mode == config.ModeHeadless)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log := logger.WithField("component", "main")
	log.Infof("main: %s %s starting in %s mode", config.AppName, version, cfg.Mode)

	plat, err := platform.New(platform.Options{
		IdlePollInterval: platform.DefaultIdlePollInterval,
		Display:          os.Getenv("DISPLAY"),
	})
	if err != nil {
		return errors.Wrap(err, "initialise platform")
	}

	keeper := keepalive.New(plat, keepalive.Options{
		Policy:        cfg.Policy(),
		Burst:         cfg.Burst(),
		Watch:         cfg.Watch(),
		SuppressGrace: cfg.SuppressGrace.Std(),
		StopTimeout:   shutdownTimeout,
		Logger:        logger,
	})
	defer func() {
		if err := keeper.Shutdown(); err != nil {
			log.Warnf("main: shutdown: %v", err)
		}
		log.Info("main: exited")
	}()

	loader.OnChange(func(c *config.Config) {
		flags.Apply(c)
		if err := keeper.SetPolicy(c.Policy()); err != nil {
			log.Warnf("main: ignoring reloaded policy: %v", err)
			return
		}
		logger.SetLevel(c.Level())
		logrus.SetLevel(c.Level())
	})
	if err := loader.Watch(); err != nil {
		log.Warnf("main: config hot reload disabled: %v", err)
	}
	defer loader.Close()

	ctx, stop := signal.NotifyContext(ctx, exitSignals()...)
	defer stop()

	switch cfg.Mode {
	case config.ModeTUI:
		return ui.Run(ctx, keeper, plat.DependencyMessage, runFor)
	case config.ModeTray:
		if runFor > 0 {
			if err := keeper.StartTimed(ctx, runFor); err != nil {
				return err
			}
		}
		tray.New(keeper, plat.DependencyMessage, logger).Run(ctx)
		return nil
	default:
		return runHeadless(ctx, keeper, plat.DependencyMessage, runFor, log)
	}
}

// runHeadless runs the engine until a signal arrives or a timed run ends.
func runHeadless(ctx context.Context, keeper *keepalive.Keeper, notice string, runFor time.Duration, log logrus.FieldLogger) error {
	if notice != "" {
		log.Warn(notice)
	}

	var err error
	if runFor > 0 {
		err = keeper.StartTimed(ctx, runFor)
	} else {
		err = keeper.Start(ctx)
	}
	if err != nil {
		return err
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("main: exit requested")
			return nil
		case <-ticker.C:
			if !keeper.IsRunning() {
				return nil
			}
		}
	}
}
