package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"

	"choromap/internal/engine"
	"choromap/internal/loader"
)

const zoomStep = 1.2

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		mapW, mapH := m.layoutMap()
		m.surface.setSize(msg.Width, msg.Height, mapW, mapH)
		if r := m.manager.Resize(); r != nil {
			r.Observe(mapW, mapH)
		} else {
			m.manager.TryInit()
		}

	case RefreshMsg:
		// engine or loader state changed; initialize once data is in
		if m.manager.Phase() == engine.Uninitialized {
			m.manager.TryInit()
		}
		if m.ldr.State().Phase == loader.Loading {
			return m, m.spin.Tick
		}

	case spinner.TickMsg:
		// keep animating only while a load is in flight
		if m.ldr.State().Phase == loader.Loading {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.manager.Destroy()
		m.ldr.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Pan):
		if vp := m.surface.viewport(); vp != nil {
			switch msg.String() {
			case "up":
				vp.pan(0, 0.1)
			case "down":
				vp.pan(0, -0.1)
			case "left":
				vp.pan(-0.1, 0)
			case "right":
				vp.pan(0.1, 0)
			}
		}

	case key.Matches(msg, m.keys.ZoomIn):
		if vp := m.surface.viewport(); vp != nil {
			vp.zoomBy(zoomStep)
			_, z, _, _ := vp.snapshot()
			m.status = fmt.Sprintf("zoom: %.2fx", z)
		}

	case key.Matches(msg, m.keys.ZoomOut):
		if vp := m.surface.viewport(); vp != nil {
			vp.zoomBy(1 / zoomStep)
			_, z, _, _ := vp.snapshot()
			m.status = fmt.Sprintf("zoom: %.2fx", z)
		}

	case key.Matches(msg, m.keys.Fit):
		vp := m.surface.viewport()
		if col, ok := m.ldr.Collection(); ok && vp != nil {
			vp.FitBounds(col.Bound, 0)
			m.status = "fit to data"
		}

	case key.Matches(msg, m.keys.Basemap):
		if bg := m.manager.Background(); bg != nil {
			bg.SetVisible(!bg.Visible())
			m.status = fmt.Sprintf("basemap: %v", bg.Visible())
		}

	case key.Matches(msg, m.keys.OpacityUp):
		if bg := m.manager.Background(); bg != nil {
			bg.SetOpacity(bg.Opacity() + 0.1)
			m.status = fmt.Sprintf("basemap opacity: %.1f", bg.Opacity())
		}

	case key.Matches(msg, m.keys.OpacityDn):
		if bg := m.manager.Background(); bg != nil {
			bg.SetOpacity(bg.Opacity() - 0.1)
			m.status = fmt.Sprintf("basemap opacity: %.1f", bg.Opacity())
		}

	case key.Matches(msg, m.keys.Legend):
		m.showLegend = !m.showLegend

	case key.Matches(msg, m.keys.Retry):
		if m.ldr.State().Phase == loader.Failed {
			m.ldr.Retry()
			m.status = "retrying"
			return m, m.spin.Tick
		}

	case key.Matches(msg, m.keys.Help):
		m.helpFull = !m.helpFull
		m.help.ShowAll = m.helpFull
	}
	return m, nil
}

// handleMouse drives the highlight tracker from hover and click events
// over the map area. The layout here must match View.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	tr := m.manager.Tracker()
	vp := m.surface.viewport()
	col, ok := m.ldr.Collection()
	if tr == nil || vp == nil || !ok {
		return
	}

	mapOriginX, mapOriginY := 0, 1
	cx := msg.X - mapOriginX
	cy := msg.Y - mapOriginY
	inside := cx >= 0 && cx < m.mapW && cy >= 0 && cy < m.mapH

	m.hoverHasGeo = false
	if !inside {
		if m.hoverID >= 0 {
			tr.Leave(m.hoverID)
			m.hoverID = -1
		}
		return
	}

	lon, lat, geoOK := vp.cellToLonLat(cx, cy, m.mapW, m.mapH)
	if !geoOK {
		return
	}
	m.hoverHasGeo = true
	m.hoverLon, m.hoverLat = lon, lat

	id, hit := col.FindAt(orb.Point{lon, lat})

	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		if hit {
			tr.Click(id)
		}
		return
	}

	switch {
	case hit && id != m.hoverID:
		if m.hoverID >= 0 {
			tr.Leave(m.hoverID)
		}
		tr.Enter(id)
		m.hoverID = id
	case !hit && m.hoverID >= 0:
		tr.Leave(m.hoverID)
		m.hoverID = -1
	}
}
