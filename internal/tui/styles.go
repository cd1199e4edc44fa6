// Package tui holds the terminal presentation of snoopflow runs.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#06B6D4") // Cyan
	successColor   = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	oliveColor     = lipgloss.Color("#808000") // matches self-edge labels
)

var (
	// BoxStyle frames the end-of-run summary
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	// HeaderStyle for the summary title
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	// KeyStyle for statistic names
	KeyStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Width(12)

	// MutedStyle for less important text
	MutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	SelfEdgeStyle = lipgloss.NewStyle().
			Foreground(oliveColor)
)
