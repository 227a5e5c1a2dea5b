package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stigoleg/nosleep/internal/keepalive"
)

// Engine is the part of the keeper the TUI drives.
type Engine interface {
	Start(ctx context.Context) error
	StartTimed(ctx context.Context, d time.Duration) error
	Stop() error
	Status() keepalive.Status
}

// Model holds the current state of the UI.
type Model struct {
	State        State
	Selected     int
	Input        string
	Engine       Engine
	ErrorMessage string
	Notice       string
	Status       keepalive.Status
	Duration     time.Duration
	ShowHelp     bool

	ctx      context.Context
	keys     KeyMap
	help     help.Model
	progress progress.Model
}

// NewModel returns a model showing the menu. notice is shown above the
// menu when non-empty (missing platform dependencies, for instance).
func NewModel(ctx context.Context, engine Engine, notice string) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	return Model{
		State:    StateMenu,
		Engine:   engine,
		Notice:   notice,
		ctx:      ctx,
		keys:     DefaultKeys(),
		help:     NewHelpModel(),
		progress: progress.New(progress.WithGradient("#7D56F4", "#43BF6D"), progress.WithWidth(30), progress.WithoutPercentage()),
	}
}

// WithRunning returns m with the engine already started for d (0 means
// until stopped).
func (m Model) WithRunning(d time.Duration) Model {
	var err error
	if d > 0 {
		err = m.Engine.StartTimed(m.ctx, d)
	} else {
		err = m.Engine.Start(m.ctx)
	}
	if err != nil {
		m.ErrorMessage = err.Error()
		return m
	}
	m.State = StateRunning
	m.Duration = d
	m.Status = m.Engine.Status()
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	if m.State == StateRunning {
		return tick()
	}
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return Update(msg, m)
}

// View implements tea.Model
func (m Model) View() string {
	return View(m)
}

// TimeRemaining returns what is left of a timed run.
func (m Model) TimeRemaining() time.Duration {
	if m.State != StateRunning || m.Duration <= 0 {
		return 0
	}
	return m.Status.Remaining
}

// Run shows the TUI until the user quits.
func Run(ctx context.Context, engine Engine, notice string, runFor time.Duration) error {
	m := NewModel(ctx, engine, notice)
	if runFor > 0 {
		m = m.WithRunning(runFor)
	}
	_, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
