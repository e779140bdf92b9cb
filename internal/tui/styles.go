package tui

import "github.com/charmbracelet/lipgloss"

var (
	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			MarginBottom(1)

	StyleSubHeader = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StyleValue = lipgloss.NewStyle().
			Foreground(ColorText)

	StyleLogo = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)
)

const logoASCII = `
                           _          _
 ___ _ __   ___  ___  ___| |__  _ __ (_)_ __   ___
/ __| '_ \ / _ \/ _ \/ __| '_ \| '_ \| | '_ \ / _ \
\__ \ |_) |  __/  __/ (__| | | | |_) | | |_) |  __/
|___/ .__/ \___|\___|\___|_| |_| .__/|_| .__/ \___|
    |_|                        |_|     |_|
`

// Logo returns the styled banner shown at the top of the wizard.
func Logo() string {
	return StyleLogo.Render(logoASCII)
}
