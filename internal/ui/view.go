package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/stigoleg/nosleep/internal/timer"
)

// View renders the current state of the model to a string.
func View(m Model) string {
	if m.ShowHelp {
		return helpView()
	}

	var body string
	switch m.State {
	case StateMenu:
		body = menuView(m)
	case StateTimedInput:
		body = timedInputView(m)
	case StateRunning:
		body = runningView(m)
	}

	if m.ErrorMessage != "" {
		body += "\n\n" + Current.Error.Render(m.ErrorMessage)
	}
	return body + "\n\n" + m.help.View(m.keys.ForState(m.State))
}

func menuView(m Model) string {
	var b strings.Builder

	b.WriteString(Current.Title.Render("nosleep"))
	b.WriteString("\n\n")

	if m.Notice != "" {
		b.WriteString(Current.Notice.Render(strings.TrimSpace(m.Notice)))
		b.WriteString("\n\n")
	}

	b.WriteString(Current.Unselected.Render("Select an option:"))
	b.WriteString("\n\n")

	options := []string{
		"Hold off the screen lock indefinitely",
		"Hold off the screen lock for X minutes",
		"Quit",
	}
	for i, opt := range options {
		if i == m.Selected {
			b.WriteString(Current.Selected.Render("> " + opt))
		} else {
			b.WriteString(Current.Unselected.Render("  " + opt))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func timedInputView(m Model) string {
	var b strings.Builder

	b.WriteString(Current.Title.Render("Enter Duration"))
	b.WriteString("\n\n")
	b.WriteString(Current.Unselected.Render("Enter duration in minutes:"))
	b.WriteString("\n")

	input := m.Input
	if input == "" {
		input = " "
	}
	b.WriteString(Current.InputBox.Render(input))
	return b.String()
}

func runningView(m Model) string {
	var b strings.Builder
	st := m.Status

	b.WriteString(Current.Title.Render("nosleep active"))
	b.WriteString("\n\n")

	if st.TimerState == timer.Disarmed {
		b.WriteString(Current.Warning.Render("Idle lock is off; nothing to hold off"))
	} else {
		b.WriteString(Current.Active.Render("Screen lock is being held off"))
	}
	b.WriteString("\n\n")

	row(&b, "Platform", st.Platform)
	row(&b, "Interval", st.Schedule.String())
	if !st.NextDeterrence.IsZero() {
		row(&b, "Next deterrence", formatClock(st.NextDeterrence))
	}
	row(&b, "Bursts", fmt.Sprintf("%d (%d echoes ignored)", st.Bursts, st.Suppressed))
	row(&b, "Synthetic input", st.Health.String())

	if st.Blind {
		b.WriteString("\n" + Current.Warning.Render("Activity cannot be observed; deterring on every interval"))
	}
	if st.SettingsError != nil {
		b.WriteString("\n" + Current.Warning.Render("Settings unreadable: "+st.SettingsError.Error()))
	}

	if m.Duration > 0 {
		remaining := m.TimeRemaining()
		b.WriteString("\n\n")
		b.WriteString(Current.Countdown.Render(formatRemaining(remaining)))
		b.WriteString("\n ")
		b.WriteString(m.progress.ViewAs(progressOf(remaining, m.Duration)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(Current.Label.Render(label))
	b.WriteString(Current.Value.Render(value))
	b.WriteString("\n")
}

func formatClock(t time.Time) string {
	return t.Format("15:04:05")
}

func formatRemaining(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	mins := int(d.Minutes()) % 60
	secs := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d remaining", h, mins, secs)
	}
	return fmt.Sprintf("%d:%02d remaining", mins, secs)
}

func progressOf(remaining, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	p := 1 - float64(remaining)/float64(total)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}


func helpView() string {
	help := `nosleep Help

Usage:
  nosleep [flags]

Flags:
      --mode string       Front end: tray, tui or headless
  -d, --duration string   Stop after this long (e.g., "2h30m" or "150")
  -c, --clock string      Stop at this time of day (e.g., "22:30")
      --config string     Config file (TOML or YAML)
  -v, --version           Show version information
  -h, --help              Show help message

Examples:
  nosleep --mode tui            # Interactive terminal UI
  nosleep -d 2h30m              # Hold off the lock for 2 hours and 30 minutes
  nosleep -c 17:00 --mode tui   # Until five o'clock

Navigation:
  ↑/k, ↓/j  : Navigate menu
  Enter      : Select option
  h          : Show this help
  q/Esc      : Quit/Back

Press 'h' or 'q' to close help`

	return Current.Help.Render(help)
}
