package ui

import (
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stigoleg/nosleep/internal/util"
)

const menuItems = 3

// tickMsg refreshes the status snapshot once a second.
type tickMsg time.Time

// Update handles messages and updates the model accordingly.
func Update(msg tea.Msg, m Model) (Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.help.Width = ws.Width
		return m, nil
	}

	if km, ok := msg.(tea.KeyMsg); ok && m.ShowHelp {
		if key.Matches(km, m.keys.ToggleHelp) || key.Matches(km, m.keys.Quit) {
			m.ShowHelp = false
		}
		return m, nil
	}

	switch m.State {
	case StateMenu:
		return updateMenu(msg, m)
	case StateTimedInput:
		return updateTimedInput(msg, m)
	case StateRunning:
		return updateRunning(msg, m)
	}
	return m, nil
}

func updateMenu(msg tea.Msg, m Model) (Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, m.keys.Up):
		if m.Selected > 0 {
			m.Selected--
		}
	case key.Matches(km, m.keys.Down):
		if m.Selected < menuItems-1 {
			m.Selected++
		}
	case key.Matches(km, m.keys.ToggleHelp):
		m.ShowHelp = true
	case key.Matches(km, m.keys.Select):
		switch m.Selected {
		case 0:
			return start(m, 0)
		case 1:
			m.State = StateTimedInput
			m.Input = ""
			m.ErrorMessage = ""
		case 2:
			return m, tea.Quit
		}
	case key.Matches(km, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func updateTimedInput(msg tea.Msg, m Model) (Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, m.keys.Submit):
		if m.Input == "" {
			m.ErrorMessage = "Please enter a duration"
			return m, nil
		}
		d, err := util.ParseDuration(m.Input)
		if err != nil {
			m.ErrorMessage = "Invalid duration"
			return m, nil
		}
		if d <= 0 {
			m.ErrorMessage = "Duration must be positive"
			return m, nil
		}
		return start(m, d)
	case key.Matches(km, m.keys.Back):
		m.State = StateMenu
		m.ErrorMessage = ""
	case key.Matches(km, m.keys.Backspace):
		if len(m.Input) > 0 {
			m.Input = m.Input[:len(m.Input)-1]
			m.ErrorMessage = ""
		}
	case km.String() == "ctrl+c":
		return m, tea.Quit
	default:
		s := km.String()
		if len(s) == 1 && unicode.IsDigit(rune(s[0])) && len(m.Input) < 4 {
			m.Input += s
			m.ErrorMessage = ""
		}
	}
	return m, nil
}

func updateRunning(msg tea.Msg, m Model) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Stop):
			if err := m.Engine.Stop(); err != nil {
				m.ErrorMessage = err.Error()
			}
			m.State = StateMenu
			m.Duration = 0
			return m, nil
		case key.Matches(msg, m.keys.ToggleHelp):
			m.ShowHelp = true
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
	case tickMsg:
		m.Status = m.Engine.Status()
		if !m.Status.Running {
			// timed run finished or the engine was stopped elsewhere
			m.State = StateMenu
			m.Duration = 0
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func start(m Model, d time.Duration) (Model, tea.Cmd) {
	m = m.WithRunning(d)
	if m.State != StateRunning {
		return m, nil
	}
	m.ErrorMessage = ""
	return m, tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
