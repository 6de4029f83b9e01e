package ui

import "github.com/charmbracelet/lipgloss"

// Styles using the "Hacker Slate" palette.
var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#64748B"} // Sub-text/Labels
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#6366F1"} // Indigo Headers
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#10B981"} // Emerald Success
	danger    = lipgloss.AdaptiveColor{Light: "#FF0000", Dark: "#F43F5E"} // Rose Red Failure

	titleStyle = lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true).
			Padding(0, 1)

	dimStyle  = lipgloss.NewStyle().Foreground(subtle)
	passStyle = lipgloss.NewStyle().Foreground(special)
	failStyle = lipgloss.NewStyle().Foreground(danger)

	iconPass = passStyle.SetString("✓")
	iconFail = failStyle.SetString("✗")
)
