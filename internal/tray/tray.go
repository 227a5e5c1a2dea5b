// Package tray shows nosleep in the system tray using getlantern/systray.
package tray

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/stigoleg/nosleep/internal/keepalive"
	"github.com/stigoleg/nosleep/internal/timer"
)

const refreshInterval = 2 * time.Second

// Engine is the part of the keeper the tray drives.
type Engine interface {
	Start(ctx context.Context) error
	Stop() error
	Status() keepalive.Status
}

// Tray owns the icon, its menu and the status refresh loop.
type Tray struct {
	engine Engine
	notice string
	log    logrus.FieldLogger

	status *systray.MenuItem
	start  *systray.MenuItem
	stop   *systray.MenuItem
	exit   *systray.MenuItem
}

// New creates a tray for engine. notice, when set, is added as a disabled
// menu entry (missing platform dependencies).
func New(engine Engine, notice string, logger logrus.FieldLogger) *Tray {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Tray{
		engine: engine,
		notice: notice,
		log:    logger.WithField("component", "tray"),
	}
}

// Run starts the engine and blocks in the tray event loop until Exit is
// clicked or ctx is cancelled. It must be called from the main goroutine.
func (t *Tray) Run(ctx context.Context) {
	systray.Run(func() { t.onReady(ctx) }, func() {
		t.log.Debug("tray: event loop finished")
	})
}

func (t *Tray) onReady(ctx context.Context) {
	systray.SetIcon(icon())
	systray.SetTitle("")
	systray.SetTooltip("nosleep")

	t.status = systray.AddMenuItem("Starting…", "")
	t.status.Disable()
	if t.notice != "" {
		n := systray.AddMenuItem(firstLine(t.notice), strings.TrimSpace(t.notice))
		n.Disable()
	}
	systray.AddSeparator()
	t.start = systray.AddMenuItem("Start", "Hold off the screen lock")
	t.stop = systray.AddMenuItem("Stop", "Let the screen lock normally")
	systray.AddSeparator()
	t.exit = systray.AddMenuItem("Exit", "Quit nosleep")

	// a timed run is started by the caller before the tray comes up
	if !t.engine.Status().Running {
		if err := t.engine.Start(ctx); err != nil {
			t.log.Errorf("tray: starting engine: %v", err)
		}
	}
	t.refresh()

	go t.loop(ctx)
}

func (t *Tray) loop(ctx context.Context) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			systray.Quit()
			return
		case <-t.exit.ClickedCh:
			t.log.Info("tray: exit requested")
			systray.Quit()
			return
		case <-t.start.ClickedCh:
			if err := t.engine.Start(ctx); err != nil {
				t.log.Warnf("tray: start: %v", err)
			}
			t.refresh()
		case <-t.stop.ClickedCh:
			if err := t.engine.Stop(); err != nil {
				t.log.Warnf("tray: stop: %v", err)
			}
			t.refresh()
		case <-ticker.C:
			t.refresh()
		}
	}
}

func (t *Tray) refresh() {
	st := t.engine.Status()
	systray.SetTooltip(Tooltip(st))
	t.status.SetTitle(Headline(st))

	startOK, stopOK := MenuState(st)
	setEnabled(t.start, startOK)
	setEnabled(t.stop, stopOK)
}

func setEnabled(item *systray.MenuItem, on bool) {
	if on {
		item.Enable()
	} else {
		item.Disable()
	}
}

// MenuState reports whether Start and Stop should be clickable.
func MenuState(st keepalive.Status) (start, stop bool) {
	return !st.Running, st.Running
}

// Headline is the one-line status shown at the top of the menu.
func Headline(st keepalive.Status) string {
	switch {
	case !st.Running:
		return "Stopped"
	case st.TimerState == timer.Disarmed:
		return "Idle lock off"
	case st.Blind:
		return fmt.Sprintf("Deterring every %s (blind)", st.Schedule.Interval)
	default:
		return fmt.Sprintf("Deterring every %s", st.Schedule.Interval)
	}
}

// Tooltip renders the hover text for the tray icon.
func Tooltip(st keepalive.Status) string {
	lines := []string{"nosleep: " + Headline(st)}
	if st.Running && !st.NextDeterrence.IsZero() {
		lines = append(lines, "next at "+st.NextDeterrence.Format("15:04:05"))
	}
	if st.Running && st.Remaining > 0 {
		lines = append(lines, fmt.Sprintf("stops in %s", st.Remaining.Round(time.Minute)))
	}
	if st.Health == keepalive.SimulationHealthFailed {
		lines = append(lines, "synthetic input failing")
	}
	if st.SettingsError != nil {
		lines = append(lines, "settings unreadable")
	}
	return strings.Join(lines, "\n")
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.Trim(line, " ═")
		if line != "" {
			return line
		}
	}
	return s
}
