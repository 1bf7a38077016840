// Package theme holds the shared color palette and lipgloss styles for the
// velocity TUI and styled CLI output.
package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Kanagawa-ish dark palette.
const (
	colorGreen      = "#98BB6C"
	colorYellow     = "#FF9E3B"
	colorRed        = "#FF5D62"
	colorOrange     = "#FFA066"
	colorCyan       = "#7E9CD8"
	colorBlue       = "#7FB4CA"
	colorViolet     = "#957FB8"
	colorLightText  = "#DCD7BA"
	colorMutedText  = "#727169"
	colorBorder     = "#363646"
	colorSelected   = "#223249"
	colorSubtleBack = "#1F1F28"
)

// Light variants used when the terminal background is light.
const (
	lightGreen     = "#4E7C5A"
	lightYellow    = "#A68A64"
	lightRed       = "#C34043"
	lightOrange    = "#CC6B4E"
	lightCyan      = "#5B8BBE"
	lightBlue      = "#4F7CAC"
	lightViolet    = "#674D7A"
	lightText      = "#2B2F42"
	lightMutedText = "#6C7086"
	lightBorder    = "#B5BDC5"
	lightSelected  = "#E2E6F3"
	lightSubtle    = "#F7F7FB"
)

// Colors is the raw palette.
type Colors struct {
	Green    lipgloss.Color
	Yellow   lipgloss.Color
	Red      lipgloss.Color
	Orange   lipgloss.Color
	Cyan     lipgloss.Color
	Blue     lipgloss.Color
	Violet   lipgloss.Color
	Text     lipgloss.Color
	Muted    lipgloss.Color
	Border   lipgloss.Color
	Selected lipgloss.Color
	Subtle   lipgloss.Color
}

// Theme bundles the palette with ready-to-use styles.
type Theme struct {
	Colors Colors

	Title   lipgloss.Style
	Section lipgloss.Style
	Italic  lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	PaneBorder        lipgloss.Style
	FocusedPaneBorder lipgloss.Style
	StatusBar         lipgloss.Style
	SelectedRow       lipgloss.Style
}

func buildTheme(c Colors) *Theme {
	return &Theme{
		Colors:  c,
		Title:   lipgloss.NewStyle().Bold(true).Foreground(c.Orange),
		Section: lipgloss.NewStyle().Italic(true).Foreground(c.Orange),
		Italic:  lipgloss.NewStyle().Italic(true),
		Muted:   lipgloss.NewStyle().Foreground(c.Muted),
		Success: lipgloss.NewStyle().Foreground(c.Green),
		Warning: lipgloss.NewStyle().Foreground(c.Yellow),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(c.Red),

		PaneBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c.Border),
		FocusedPaneBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c.Cyan),
		StatusBar: lipgloss.NewStyle().
			Foreground(c.Text).
			Background(lipgloss.Color(colorSubtleBack)),
		SelectedRow: lipgloss.NewStyle().
			Background(c.Selected).
			Foreground(c.Text),
	}
}

func darkColors() Colors {
	return Colors{
		Green:    lipgloss.Color(colorGreen),
		Yellow:   lipgloss.Color(colorYellow),
		Red:      lipgloss.Color(colorRed),
		Orange:   lipgloss.Color(colorOrange),
		Cyan:     lipgloss.Color(colorCyan),
		Blue:     lipgloss.Color(colorBlue),
		Violet:   lipgloss.Color(colorViolet),
		Text:     lipgloss.Color(colorLightText),
		Muted:    lipgloss.Color(colorMutedText),
		Border:   lipgloss.Color(colorBorder),
		Selected: lipgloss.Color(colorSelected),
		Subtle:   lipgloss.Color(colorSubtleBack),
	}
}

func lightColors() Colors {
	return Colors{
		Green:    lipgloss.Color(lightGreen),
		Yellow:   lipgloss.Color(lightYellow),
		Red:      lipgloss.Color(lightRed),
		Orange:   lipgloss.Color(lightOrange),
		Cyan:     lipgloss.Color(lightCyan),
		Blue:     lipgloss.Color(lightBlue),
		Violet:   lipgloss.Color(lightViolet),
		Text:     lipgloss.Color(lightText),
		Muted:    lipgloss.Color(lightMutedText),
		Border:   lipgloss.Color(lightBorder),
		Selected: lipgloss.Color(lightSelected),
		Subtle:   lipgloss.Color(lightSubtle),
	}
}

// DefaultTheme follows the terminal's detected background.
var DefaultTheme = func() *Theme {
	if termenv.HasDarkBackground() {
		return buildTheme(darkColors())
	}
	return buildTheme(lightColors())
}()
