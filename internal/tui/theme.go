package tui

import "github.com/charmbracelet/lipgloss"

// Color palette used across the interactive screens.
var (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorSecondary = lipgloss.Color("#06B6D4")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorError     = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorText      = lipgloss.Color("#E5E7EB")
	ColorMuted     = lipgloss.Color("#9CA3AF")
	ColorSubtle    = lipgloss.Color("#6B7280")
)
