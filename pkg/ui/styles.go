package ui

import "github.com/charmbracelet/lipgloss"

var (
	cyan   = lipgloss.Color("#00FFFF")
	green  = lipgloss.Color("#39FF14")
	yellow = lipgloss.Color("#FFFF00")
	orange = lipgloss.Color("#FF6700")
	red    = lipgloss.Color("#FF0000")
	dim    = lipgloss.Color("#B0B0B0")

	labelStyle = lipgloss.NewStyle().
			Foreground(cyan).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(yellow)

	successStyle = lipgloss.NewStyle().
			Foreground(green).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(red).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(orange).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(dim).
			Faint(true)

	titleStyle = lipgloss.NewStyle().
			Foreground(cyan).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cyan)
)
