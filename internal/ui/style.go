// Package ui provides the terminal front end for nosleep.
package ui

import "github.com/charmbracelet/lipgloss"

// Colors defines the color scheme used throughout the application
type Colors struct {
	Subtle    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Special   lipgloss.AdaptiveColor
	Warning   lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor
}

var defaultColors = Colors{
	Subtle:    lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"},
	Highlight: lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"},
	Special:   lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"},
	Warning:   lipgloss.AdaptiveColor{Light: "#B58900", Dark: "#F2C94C"},
	Error:     lipgloss.AdaptiveColor{Light: "#FF0000", Dark: "#FF4040"},
}

// Style represents a collection of styles used in the application
type Style struct {
	Title      lipgloss.Style
	Selected   lipgloss.Style
	Unselected lipgloss.Style
	Active     lipgloss.Style
	Label      lipgloss.Style
	Value      lipgloss.Style
	Warning    lipgloss.Style
	InputBox   lipgloss.Style
	Help       lipgloss.Style
	Error      lipgloss.Style
	Countdown  lipgloss.Style
	Notice     lipgloss.Style
}

// DefaultStyle returns the default style configuration
func DefaultStyle() Style {
	base := lipgloss.NewStyle().
		PaddingLeft(1).
		PaddingRight(1)

	return Style{
		Title: base.
			Bold(true).
			Foreground(defaultColors.Highlight),

		Selected: base.
			Bold(true).
			Foreground(defaultColors.Highlight),

		Unselected: base,

		Active: base.
			Foreground(defaultColors.Special),

		Label: base.
			Width(18).
			Foreground(defaultColors.Subtle),

		Value: lipgloss.NewStyle(),

		Warning: base.
			Foreground(defaultColors.Warning),

		InputBox: base.
			Border(lipgloss.RoundedBorder()).
			BorderForeground(defaultColors.Highlight).
			Padding(0, 1),

		Help: base.
			Foreground(defaultColors.Subtle),

		Error: base.
			Foreground(defaultColors.Error),

		Countdown: base.
			Foreground(defaultColors.Highlight).
			Bold(true),

		Notice: base.
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(defaultColors.Warning).
			Foreground(defaultColors.Subtle),
	}
}

// Current holds the current style configuration
var Current = DefaultStyle()
