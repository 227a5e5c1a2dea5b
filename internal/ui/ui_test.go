package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/nosleep/internal/keepalive"
	"github.com/stigoleg/nosleep/internal/schedule"
	"github.com/stigoleg/nosleep/internal/timer"
)

type fakeEngine struct {
	started  int
	timedFor time.Duration
	stopped  int
	startErr error
	status   keepalive.Status
}

func (e *fakeEngine) Start(ctx context.Context) error {
	if e.startErr != nil {
		return e.startErr
	}
	e.started++
	e.status.Running = true
	return nil
}

func (e *fakeEngine) StartTimed(ctx context.Context, d time.Duration) error {
	if err := e.Start(ctx); err != nil {
		return err
	}
	e.timedFor = d
	e.status.Remaining = d
	return nil
}

func (e *fakeEngine) Stop() error {
	e.stopped++
	e.status.Running = false
	return nil
}

func (e *fakeEngine) Status() keepalive.Status { return e.status }

func newTestModel() (Model, *fakeEngine) {
	e := &fakeEngine{status: keepalive.Status{
		Platform:   "linux",
		TimerState: timer.Armed,
		Schedule:   schedule.Schedule{Enabled: true, Interval: 50 * time.Second},
	}}
	return NewModel(context.Background(), e, ""), e
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel(t *testing.T) {
	m, _ := newTestModel()
	assert.Equal(t, StateMenu, m.State)
	assert.Equal(t, 0, m.Selected)
	assert.Empty(t, m.Input)
	assert.Empty(t, m.ErrorMessage)
	assert.Nil(t, m.Init())
}

func TestMenuView(t *testing.T) {
	m, _ := newTestModel()
	view := View(m)

	for _, opt := range []string{
		"Hold off the screen lock indefinitely",
		"Hold off the screen lock for X minutes",
		"Quit",
	} {
		assert.Contains(t, view, opt)
	}

	found := false
	for _, line := range strings.Split(view, "\n") {
		if strings.Contains(line, ">") && strings.Contains(line, "indefinitely") {
			found = true
		}
	}
	assert.True(t, found, "cursor should be on the first option")
}

func TestMenuShowsNotice(t *testing.T) {
	m := NewModel(context.Background(), &fakeEngine{}, "XTEST extension missing")
	assert.Contains(t, View(m), "XTEST extension missing")
}

func TestMenuNavigation(t *testing.T) {
	m, _ := newTestModel()

	m, _ = Update(keyPress("up"), m)
	assert.Equal(t, 0, m.Selected, "up at top stays at top")

	m, _ = Update(keyPress("down"), m)
	m, _ = Update(keyPress("j"), m)
	m, _ = Update(keyPress("down"), m)
	assert.Equal(t, 2, m.Selected, "down stops at last item")

	m, _ = Update(keyPress("k"), m)
	assert.Equal(t, 1, m.Selected)

	m, _ = Update(keyPress("enter"), m)
	assert.Equal(t, StateTimedInput, m.State)
}

func TestStartIndefinite(t *testing.T) {
	m, e := newTestModel()

	m, cmd := Update(keyPress("enter"), m)
	assert.Equal(t, StateRunning, m.State)
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, e.started)
	assert.Zero(t, m.Duration)

	m, _ = Update(keyPress("s"), m)
	assert.Equal(t, StateMenu, m.State)
	assert.Equal(t, 1, e.stopped)
}

func TestStartFailureStaysOnMenu(t *testing.T) {
	m, e := newTestModel()
	e.startErr = errors.New("keeper already running")

	m, _ = Update(keyPress("enter"), m)
	assert.Equal(t, StateMenu, m.State)
	assert.Contains(t, View(m), "keeper already running")
}

func TestTimedInput(t *testing.T) {
	m, e := newTestModel()
	m.State = StateTimedInput

	m, _ = Update(keyPress("enter"), m)
	assert.Equal(t, "Please enter a duration", m.ErrorMessage)

	m, _ = Update(keyPress("x"), m)
	assert.Empty(t, m.Input, "non-digits are ignored")

	for _, d := range []string{"1", "2", "5", "0", "9"} {
		m, _ = Update(keyPress(d), m)
	}
	assert.Equal(t, "1250", m.Input, "input is capped at four digits")

	m, _ = Update(keyPress("backspace"), m)
	m, _ = Update(keyPress("backspace"), m)
	assert.Equal(t, "12", m.Input)
	assert.Contains(t, View(m), "12")

	m, _ = Update(keyPress("enter"), m)
	assert.Equal(t, StateRunning, m.State)
	assert.Equal(t, 12*time.Minute, e.timedFor)
	assert.Equal(t, 12*time.Minute, m.Duration)
}

func TestTimedInputRejectsZero(t *testing.T) {
	m, _ := newTestModel()
	m.State = StateTimedInput
	m, _ = Update(keyPress("0"), m)
	m, _ = Update(keyPress("enter"), m)
	assert.Equal(t, "Duration must be positive", m.ErrorMessage)
	assert.Equal(t, StateTimedInput, m.State)

	m, _ = Update(keyPress("esc"), m)
	assert.Equal(t, StateMenu, m.State)
}

func TestRunningView(t *testing.T) {
	m, e := newTestModel()
	m = m.WithRunning(5 * time.Minute)
	require.Equal(t, StateRunning, m.State)

	e.status.Bursts = 3
	e.status.Remaining = 4 * time.Minute
	e.status.NextDeterrence = time.Date(2024, 1, 1, 10, 0, 50, 0, time.Local)
	m, cmd := Update(tickMsg(time.Now()), m)
	assert.NotNil(t, cmd)

	view := View(m)
	assert.Contains(t, view, "nosleep active")
	assert.Contains(t, view, "Screen lock is being held off")
	assert.Contains(t, view, "50s")
	assert.Contains(t, view, "10:00:50")
	assert.Contains(t, view, "3 (0 echoes ignored)")
	assert.Contains(t, view, "4:00 remaining")
	assert.Equal(t, 4*time.Minute, m.TimeRemaining())
}

func TestRunningViewWarnings(t *testing.T) {
	m, e := newTestModel()
	e.status.TimerState = timer.Disarmed
	e.status.Blind = true
	e.status.SettingsError = errors.New("gsettings failed")
	m = m.WithRunning(0)

	view := View(m)
	assert.Contains(t, view, "Idle lock is off")
	assert.Contains(t, view, "Activity cannot be observed")
	assert.Contains(t, view, "gsettings failed")
	assert.NotContains(t, view, "remaining")
}

func TestTickReturnsToMenuWhenEngineStops(t *testing.T) {
	m, e := newTestModel()
	m = m.WithRunning(time.Minute)
	e.status.Running = false

	m, cmd := Update(tickMsg(time.Now()), m)
	assert.Equal(t, StateMenu, m.State)
	assert.Nil(t, cmd)
	assert.Zero(t, m.TimeRemaining())
}

func TestHelpToggle(t *testing.T) {
	m, _ := newTestModel()
	m, _ = Update(keyPress("h"), m)
	assert.True(t, m.ShowHelp)
	assert.Contains(t, View(m), "nosleep Help")

	m, _ = Update(keyPress("h"), m)
	assert.False(t, m.ShowHelp)
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "4:05 remaining", formatRemaining(4*time.Minute+5*time.Second))
	assert.Equal(t, "1:02:03 remaining", formatRemaining(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, 0.25, progressOf(45*time.Second, time.Minute))
	assert.Equal(t, 0.0, progressOf(2*time.Minute, time.Minute))
}
