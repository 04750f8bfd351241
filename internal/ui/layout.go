package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/financeai/internal/theme"
)

// Layout manages the header / content / status bar split of the terminal.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return max(l.Height-l.HeaderHeight-l.StatusBarHeight, 0)
}

// Tab is one entry of the header view switcher.
type Tab struct {
	Label  string
	Active bool
}

// RenderHeader renders the top bar: title and tabs on the left, status
// (account, sync state) on the right.
func (l Layout) RenderHeader(title string, tabs []Tab, status string) string {
	parts := []string{theme.HeaderStyle.Render(title)}
	for _, t := range tabs {
		style := theme.TabStyle
		if t.Active {
			style = theme.ActiveTabStyle
		}
		parts = append(parts, style.Render(t.Label))
	}
	left := lipgloss.JoinHorizontal(lipgloss.Top, parts...)

	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(status)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		left,
		fill(l.Width-lipgloss.Width(left)-lipgloss.Width(statusRendered), theme.HeaderStyle),
		statusRendered,
	)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		rendered,
		fill(l.Width-lipgloss.Width(rendered), theme.StatusBarStyle),
	)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}

// fill renders a run of width cells in style's background.
func fill(width int, style lipgloss.Style) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Width(width).
		Background(style.GetBackground()).
		Render("")
}
