package sim

import "github.com/charmbracelet/lipgloss"

// OLED palette: cyan on black like the usual SSD1306 modules
var (
	ColorInk    = lipgloss.Color("#7FDBFF")
	ColorDim    = lipgloss.Color("#2E6F8A")
	ColorPanel  = lipgloss.Color("#000000")
	ColorError  = lipgloss.Color("#FF3300")
	ColorAccent = lipgloss.Color("#FFCC00")
)

var (
	StyleScreen = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDim).
			Background(ColorPanel).
			Foreground(ColorInk).
			Padding(0, 1).
			Width(44)

	StyleHeadline = lipgloss.NewStyle().
			Foreground(ColorInk).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorDim)

	StyleSelected = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleStatusBar = lipgloss.NewStyle().
			Foreground(ColorDim).
			Padding(0, 1)

	StyleKey = lipgloss.NewStyle().
			Foreground(ColorInk).
			Bold(true)
)
