package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorTeal    = lipgloss.AdaptiveColor{Dark: "#38D9A9", Light: "#2C7A7B"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps a full-width content panel.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// CardStyle frames a single stat card.
var CardStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// TitleStyle is used for panel titles.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	MarginBottom(1)

// TabStyle and ActiveTabStyle render the view switcher in the header.
var (
	TabStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Background(ColorBlue).
			Padding(0, 1)

	ActiveTabStyle = TabStyle.
			Bold(true).
			Underline(true)
)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// MutedStyle is used for labels and secondary text.
var MutedStyle = lipgloss.NewStyle().Foreground(ColorGray)

// ErrorStyle renders user-facing error messages.
var ErrorStyle = lipgloss.NewStyle().Foreground(ColorRed)

// SuccessStyle renders confirmations such as "Connected to ...".
var SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)

// StaleStyle marks data shown from the offline cache.
var StaleStyle = lipgloss.NewStyle().Foreground(ColorYellow).Italic(true)

// AmountStyle colors a transaction amount by direction.
func AmountStyle(income bool) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	if income {
		return base.Foreground(ColorGreen)
	}
	return base.Foreground(ColorRed)
}

// GoalColor maps a goal's color key to a theme color.
func GoalColor(key string) lipgloss.AdaptiveColor {
	switch key {
	case "primary":
		return ColorBlue
	case "warning":
		return ColorYellow
	case "accent":
		return ColorMagenta
	case "success":
		return ColorGreen
	default:
		return ColorGray
	}
}

var chartPalette = []lipgloss.AdaptiveColor{
	ColorBlue, ColorGreen, ColorYellow, ColorMagenta, ColorOrange, ColorTeal, ColorRed,
}

// ChartColor returns the color for the i-th spending category.
func ChartColor(i int) lipgloss.AdaptiveColor {
	return chartPalette[i%len(chartPalette)]
}
