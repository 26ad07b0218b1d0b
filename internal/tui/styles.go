package tui

import (
	"github.com/charmbracelet/lipgloss"

	"choromap/internal/classify"
)

// Styles
var (
	baseFg    = lipgloss.Color("#E6E6E6")
	baseDimFg = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	accentFg  = lipgloss.Color("#7C3AED")
	errorFg   = lipgloss.Color("#EF4444")
	borderCol = lipgloss.Color("#243141")

	appStyle    = lipgloss.NewStyle().Foreground(baseFg)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(baseDimFg)
	errorStyle  = lipgloss.NewStyle().Foreground(errorFg)
	legendTitle = lipgloss.NewStyle().Bold(true)

	spinnerStyle = lipgloss.NewStyle().Foreground(accentFg)
)

// bucketStyles colors braille cells by density tier. Index 0 is unused
// (empty cell); 1..Buckets are tiers; the last slot is the hover shade.
var (
	highlightClass = uint8(classify.Buckets() + 1)
	bucketStyles   = buildBucketStyles()
)

func buildBucketStyles() []lipgloss.Style {
	pal := classify.Palette()
	styles := make([]lipgloss.Style, len(pal)+2)
	styles[0] = lipgloss.NewStyle()
	for i, c := range pal {
		styles[i+1] = lipgloss.NewStyle().Foreground(lipgloss.Color(string(c)))
	}
	styles[highlightClass] = lipgloss.NewStyle().
		Foreground(lipgloss.Color(string(classify.HighlightColor(pal[len(pal)-1])))).
		Bold(true)
	return styles
}

// basemapStyle shades the graticule by opacity tier.
func basemapStyle(opacity float64) lipgloss.Style {
	switch {
	case opacity < 0.35:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#1A2733"))
	case opacity < 0.7:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#243141"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#3A4A5C"))
	}
}
