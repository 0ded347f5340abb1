package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	purple = lipgloss.AdaptiveColor{Light: "#5A3FD1", Dark: "#7D56F4"}
	green  = lipgloss.AdaptiveColor{Light: "#168D40", Dark: "#1DB954"}
	red    = lipgloss.AdaptiveColor{Light: "#C4161C", Dark: "#FF4D4D"}
	amber  = lipgloss.AdaptiveColor{Light: "#B36B00", Dark: "#FFA500"}
	grey   = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#626262"}
)

var styles = palette{
	title: lipgloss.NewStyle().Foreground(purple).Bold(true).MarginBottom(1),
	ok:    lipgloss.NewStyle().Foreground(green).Bold(true),
	err:   lipgloss.NewStyle().Foreground(red).Bold(true),
	warn:  lipgloss.NewStyle().Foreground(amber),
	help:  lipgloss.NewStyle().Foreground(grey).Italic(true),
	link:  lipgloss.NewStyle().Foreground(purple).Underline(true),
}

// palette holds the named [lipgloss.Style] values used by the views.
type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	link  lipgloss.Style
}
