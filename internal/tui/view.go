package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"choromap/internal/classify"
	"choromap/internal/engine"
	"choromap/internal/loader"
)

const panelWidth = 24

// layoutMap computes the map canvas size for the current terminal and
// records it for mouse hit testing. Update and View share this.
func (m *Model) layoutMap() (int, int) {
	headerHeight := 1
	footerHeight := 2
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 4 {
		contentHeight = 4
	}
	contentWidth := max(10, m.width)

	mapWidth := contentWidth
	if m.panelVisible() {
		mapWidth = contentWidth - panelWidth - 1
	}
	if mapWidth < 10 {
		mapWidth = 10
	}
	m.mapW = max(8, mapWidth)
	m.mapH = max(4, contentHeight)
	return m.mapW, m.mapH
}

func (m *Model) panelVisible() bool {
	if !m.showLegend || m.manager.Phase() != engine.Ready {
		return false
	}
	vp := m.surface.viewport()
	return vp != nil && (vp.hasControl("legend") || vp.hasControl("info"))
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	mapW, mapH := m.layoutMap()
	contentWidth := max(10, m.width)
	m.help.Width = contentWidth

	// Header
	title := titleStyle.Render(" choromap ─ regional density viewer ")
	if vp := m.surface.viewport(); vp != nil && vp.hasControl("zoom") {
		_, z, _, _ := vp.snapshot()
		title += dimStyle.Render(fmt.Sprintf(" z=%.2f", z))
	}
	header := lipgloss.NewStyle().Width(contentWidth).Render(title)

	// Map column
	var mapView string
	st := m.ldr.State()
	switch st.Phase {
	case loader.Loading:
		msg := m.spin.View() + " loading regions"
		mapView = lipgloss.Place(mapW, mapH, lipgloss.Center, lipgloss.Center, dimStyle.Render(msg))
	case loader.Failed:
		box := boxStyle.Render(errorStyle.Render("load failed") + "\n" +
			dimStyle.Render(truncate(st.Reason, mapW-8)) + "\n" +
			dimStyle.Render("press r to retry"))
		mapView = lipgloss.Place(mapW, mapH, lipgloss.Center, lipgloss.Center, box)
	case loader.Ready:
		mapView = lipgloss.NewStyle().Width(mapW).Height(mapH).Render(m.renderMap(mapW, mapH))
	default:
		mapView = lipgloss.Place(mapW, mapH, lipgloss.Center, lipgloss.Center, dimStyle.Render("no data"))
	}

	// Body row
	body := mapView
	if m.panelVisible() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, mapView, " ", m.renderPanel(mapH))
	}

	// Footer / help
	status := dimStyle.Render(" " + m.status + " ")
	coords := ""
	if m.hoverHasGeo {
		coords = dimStyle.Render(fmt.Sprintf("  lon=%.5f lat=%.5f  ", m.hoverLon, m.hoverLat))
	} else if vp := m.surface.viewport(); vp != nil && vp.hasControl("attribution") {
		coords = dimStyle.Render("  regional statistics  ")
	}
	spacerW := max(0, contentWidth-lipgloss.Width(status)-lipgloss.Width(coords))
	right := lipgloss.Place(spacerW+lipgloss.Width(coords), 1, lipgloss.Right, lipgloss.Center, coords)
	statusLine := lipgloss.JoinHorizontal(lipgloss.Bottom, status, right)
	helpLine := m.help.View(m.keys)
	footer := lipgloss.NewStyle().Width(contentWidth).Render(statusLine + "\n" + helpLine)

	ui := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	return appStyle.Width(contentWidth).Height(m.height).Render(ui)
}

// renderPanel stacks the hover info box on top of the legend.
func (m *Model) renderPanel(maxH int) string {
	vp := m.surface.viewport()
	var parts []string

	if vp != nil && vp.hasControl("info") {
		var body string
		if ri := m.surface.currentInfo(); ri != nil {
			body = ri.Name + "\n" + dimStyle.Render(fmt.Sprintf("%v people / mi²", ri.Density))
		} else {
			body = dimStyle.Render("hover over a region")
		}
		info := boxStyle.Width(panelWidth).Render(legendTitle.Render("Region Density") + "\n" + body)
		parts = append(parts, info)
	}

	if vp != nil && vp.hasControl("legend") {
		rows := make([]string, 0, classify.Buckets()+1)
		rows = append(rows, legendTitle.Render("Legend"))
		for _, row := range classify.Legend() {
			swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(string(row.Color))).Render("██")
			rows = append(rows, swatch+" "+row.Label)
		}
		parts = append(parts, boxStyle.Width(panelWidth).Render(strings.Join(rows, "\n")))
	}

	panel := lipgloss.JoinVertical(lipgloss.Left, parts...)
	return lipgloss.NewStyle().MaxHeight(maxH).Render(panel)
}

func truncate(s string, n int) string {
	if n < 4 || len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
