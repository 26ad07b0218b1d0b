package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"

	"choromap/internal/classify"
	"choromap/internal/geo"
)

// renderMap draws the choropleth into a w*h cell canvas: basemap
// graticule beneath, filled regions above, hovered region last so its
// shade wins the cell.
func (m *Model) renderMap(w, h int) string {
	vp := m.surface.viewport()
	if vp == nil {
		return ""
	}
	_, _, layers, dead := vp.snapshot()
	if dead {
		return ""
	}

	var grid []string
	var gridStyle lipgloss.Style
	var col *geo.Collection
	emphasized := -1
	for _, l := range layers {
		switch layer := l.(type) {
		case *basemapLayer:
			op := layer.currentOpacity()
			if op >= 0.05 {
				grid = m.graticule(vp, w, h)
				gridStyle = basemapStyle(op)
			}
			// first render of this layer counts as its load
			layer.confirmLoaded()
		case *vectorLayer:
			col, emphasized = layer.state()
		}
	}

	br := newBrailleBuf(w, h)
	if col != nil {
		for id := range col.Regions {
			if id == emphasized {
				continue
			}
			class := uint8(classify.BucketIndex(col.Regions[id].Density) + 1)
			drawRegion(br, vp, col.Regions[id].Geometry, w, h, class)
		}
		if emphasized >= 0 && emphasized < len(col.Regions) {
			drawRegion(br, vp, col.Regions[emphasized].Geometry, w, h, highlightClass)
		}
	}

	lines := make([]string, h)
	for y := 0; y < h; y++ {
		var sb strings.Builder
		var run []rune
		runClass := uint8(0)
		runBase := false
		flush := func() {
			if len(run) == 0 {
				return
			}
			s := string(run)
			switch {
			case runBase:
				sb.WriteString(gridStyle.Render(s))
			case runClass == 0:
				sb.WriteString(s)
			default:
				sb.WriteString(bucketStyles[runClass].Render(s))
			}
			run = run[:0]
		}
		for x := 0; x < w; x++ {
			r, cls := br.cell(x, y)
			isBase := false
			if r == ' ' && grid != nil {
				if gr := []rune(grid[y]); x < len(gr) && gr[x] != ' ' {
					r = gr[x]
					isBase = true
				}
			}
			if cls != runClass || isBase != runBase {
				flush()
				runClass, runBase = cls, isBase
			}
			run = append(run, r)
		}
		flush()
		lines[y] = sb.String()
	}
	return strings.Join(lines, "\n")
}

// drawRegion fills one region's multipolygon and traces its edges on
// the microgrid. Scanline fill is even-odd across all rings, so holes
// stay empty.
func drawRegion(br *brailleBuf, vp *termViewport, mp orb.MultiPolygon, w, h int, class uint8) {
	hMic := h * 4
	for _, poly := range mp {
		var rings [][][2]int
		for _, ring := range poly {
			var sm [][2]int
			for _, p := range ring {
				mx, my, ok := vp.microXY(p[0], p[1], w, h)
				if !ok {
					continue
				}
				sm = append(sm, [2]int{mx, my})
			}
			if len(sm) >= 3 {
				rings = append(rings, sm)
			}
		}
		if len(rings) == 0 {
			continue
		}
		for yMic := 0; yMic < hMic; yMic++ {
			var xs []int
			for _, ring := range rings {
				for i := 0; i < len(ring); i++ {
					a := ring[i]
					b := ring[(i+1)%len(ring)]
					if a[1] == b[1] { // horizontal edge: skip
						continue
					}
					y0, y1 := a[1], b[1]
					x0, x1 := a[0], b[0]
					if (yMic >= y0 && yMic < y1) || (yMic >= y1 && yMic < y0) {
						t := float64(yMic-y0) / float64(y1-y0)
						xs = append(xs, int(float64(x0)+t*float64(x1-x0)))
					}
				}
			}
			if len(xs) < 2 {
				continue
			}
			sort.Ints(xs)
			for i := 0; i+1 < len(xs); i += 2 {
				xstart, xend := xs[i], xs[i+1]
				if xstart > xend {
					xstart, xend = xend, xstart
				}
				for xMic := max(0, xstart); xMic <= xend; xMic++ {
					br.setPixel(xMic, yMic, class)
				}
			}
		}
		// edges on top for crisp borders
		for _, ring := range rings {
			for i := 0; i < len(ring); i++ {
				a := ring[i]
				b := ring[(i+1)%len(ring)]
				br.drawLineMicro(a[0], a[1], b[0], b[1], class)
			}
		}
	}
}

// graticule computes the dotted lon/lat grid for the current view.
// Rendering it is pure given the viewport geometry, so rows are cached
// by a quantized key.
func (m *Model) graticule(vp *termViewport, w, h int) []string {
	b := vp.visibleBound()
	key := fmt.Sprintf("%dx%d|%.5f,%.5f|%.5f,%.5f", w, h, b.Min[0], b.Min[1], b.Max[0], b.Max[1])
	if rows, ok := m.basemap.Get(key); ok {
		return rows
	}

	dx := span(b.Min[0], b.Max[0])
	dy := span(b.Min[1], b.Max[1])
	stepX := niceStep(dx / 6)
	stepY := niceStep(dy / 6)

	cols := map[int]bool{}
	for g := math.Ceil(b.Min[0]/stepX) * stepX; g <= b.Max[0]; g += stepX {
		x := int((g - b.Min[0]) / dx * float64(w))
		if x >= 0 && x < w {
			cols[x] = true
		}
	}
	rowsAt := map[int]bool{}
	for g := math.Ceil(b.Min[1]/stepY) * stepY; g <= b.Max[1]; g += stepY {
		y := int((1 - (g-b.Min[1])/dy) * float64(h))
		if y >= 0 && y < h {
			rowsAt[y] = true
		}
	}

	rows := make([]string, h)
	for y := 0; y < h; y++ {
		line := make([]rune, w)
		for x := 0; x < w; x++ {
			switch {
			case cols[x] && rowsAt[y]:
				line[x] = '┼'
			case cols[x] || rowsAt[y]:
				line[x] = '·'
			default:
				line[x] = ' '
			}
		}
		rows[y] = string(line)
	}
	m.basemap.Add(key, rows)
	return rows
}

// niceStep picks a round graticule interval at least as large as want.
func niceStep(want float64) float64 {
	steps := []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10, 15, 30, 45, 90}
	for _, s := range steps {
		if s >= want {
			return s
		}
	}
	return 90
}
