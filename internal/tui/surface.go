package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"

	"choromap/internal/engine"
	"choromap/internal/geo"
)

// RefreshMsg asks the program to repaint after an engine state change.
type RefreshMsg struct{}

// Notifier bridges engine callbacks (which fire on timer goroutines) into
// the bubbletea message loop.
type Notifier struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func NewNotifier() *Notifier { return &Notifier{} }

// Bind connects the notifier to a running program.
func (n *Notifier) Bind(send func(tea.Msg)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.send = send
}

// Notify requests a repaint. Safe before Bind.
func (n *Notifier) Notify() {
	n.mu.Lock()
	send := n.send
	n.mu.Unlock()
	if send != nil {
		send(RefreshMsg{})
	}
}

// termSurface is the terminal rendering backend for the engine: the
// "container" is the terminal window, attached once the first non-zero
// size arrives.
type termSurface struct {
	mu   sync.Mutex
	w, h int
	mapW int
	mapH int
	vp   *termViewport
	info *engine.RegionInfo
}

func newTermSurface() *termSurface {
	return &termSurface{}
}

func (s *termSurface) setSize(w, h, mapW, mapH int) {
	s.mu.Lock()
	s.w, s.h = w, h
	s.mapW, s.mapH = mapW, mapH
	s.mu.Unlock()
}

func (s *termSurface) mapSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapW, s.mapH
}

func (s *termSurface) setInfo(ri *engine.RegionInfo) {
	s.mu.Lock()
	s.info = ri
	s.mu.Unlock()
}

func (s *termSurface) currentInfo() *engine.RegionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

func (s *termSurface) viewport() *termViewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vp
}

// Attached reports whether the terminal has delivered a usable size yet.
func (s *termSurface) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w > 0 && s.h > 0
}

func (s *termSurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapW, s.mapH
}

func (s *termSurface) CreateViewport(opts engine.ViewportOptions) (engine.Viewport, error) {
	vp := &termViewport{surface: s, opts: opts, center: opts.Center, zoom: opts.Zoom}
	vp.clampCenter()
	s.mu.Lock()
	s.vp = vp
	w, h := s.mapW, s.mapH
	s.mu.Unlock()
	vp.resize(w, h)
	return vp, nil
}

func (s *termSurface) NewVectorLayer(c *geo.Collection) (engine.VectorLayer, error) {
	return &vectorLayer{collection: c, emphasized: -1, opacity: 1}, nil
}

func (s *termSurface) NewBasemapLayer() engine.Layer {
	return &basemapLayer{}
}

func (s *termSurface) Controls() []engine.Control {
	return []engine.Control{zoomControl{}, attributionControl{}, infoControl{}, legendControl{}}
}

type zoomControl struct{}
type attributionControl struct{}
type infoControl struct{}
type legendControl struct{}

func (zoomControl) ControlName() string        { return "zoom" }
func (attributionControl) ControlName() string { return "attribution" }
func (infoControl) ControlName() string        { return "info" }
func (legendControl) ControlName() string      { return "legend" }

// termViewport is the live map surface: center, zoom, clamps, and the
// attached layers. Zoom 1.0 shows the full max bounds.
type termViewport struct {
	mu       sync.Mutex
	surface  *termSurface
	opts     engine.ViewportOptions
	center   orb.Point
	zoom     float64
	w, h     int // map area in cells
	layers   []engine.Layer
	controls []engine.Control
	dead     bool
}

func (v *termViewport) FitBounds(b orb.Bound, maxZoom float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.dead {
		return
	}
	v.center = b.Center()
	full := v.opts.MaxBounds
	zx := span(full.Min[0], full.Max[0]) / span(b.Min[0], b.Max[0])
	zy := span(full.Min[1], full.Max[1]) / span(b.Min[1], b.Max[1])
	z := zx
	if zy < z {
		z = zy
	}
	limit := v.opts.MaxZoom
	if maxZoom > 0 && maxZoom < limit {
		limit = maxZoom
	}
	v.zoom = clampF(z, v.opts.MinZoom, limit)
	v.clampCenterLocked()
}

func (v *termViewport) InvalidateSize() {
	w, h := v.surface.mapSize()
	v.resize(w, h)
}

func (v *termViewport) resize(w, h int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.dead {
		return
	}
	v.w, v.h = w, h
}

func (v *termViewport) AddLayer(l engine.Layer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.dead {
		return
	}
	v.layers = append(v.layers, l)
}

func (v *termViewport) RemoveLayer(l engine.Layer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, have := range v.layers {
		if have == l {
			v.layers = append(v.layers[:i], v.layers[i+1:]...)
			return
		}
	}
}

func (v *termViewport) AddControl(c engine.Control) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.dead {
		return
	}
	v.controls = append(v.controls, c)
}

func (v *termViewport) Destroy() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dead = true
	v.layers = nil
	v.controls = nil
}

func (v *termViewport) hasControl(name string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, c := range v.controls {
		if c.ControlName() == name {
			return true
		}
	}
	return false
}

func (v *termViewport) snapshot() (center orb.Point, zoom float64, layers []engine.Layer, dead bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.center, v.zoom, append([]engine.Layer(nil), v.layers...), v.dead
}

// zoomBy scales the zoom level around the current center.
func (v *termViewport) zoomBy(factor float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.dead {
		return
	}
	v.zoom = clampF(v.zoom*factor, v.opts.MinZoom, v.opts.MaxZoom)
}

// pan shifts the center by a fraction of the visible window.
func (v *termViewport) pan(dx, dy float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.dead {
		return
	}
	b := v.visibleBoundLocked()
	v.center[0] += dx * span(b.Min[0], b.Max[0])
	v.center[1] += dy * span(b.Min[1], b.Max[1])
	v.clampCenterLocked()
}

func (v *termViewport) clampCenter() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clampCenterLocked()
}

func (v *termViewport) clampCenterLocked() {
	mb := v.opts.MaxBounds
	v.center[0] = clampF(v.center[0], mb.Min[0], mb.Max[0])
	v.center[1] = clampF(v.center[1], mb.Min[1], mb.Max[1])
}

// visibleBound is the lon/lat window currently on screen.
func (v *termViewport) visibleBound() orb.Bound {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visibleBoundLocked()
}

func (v *termViewport) visibleBoundLocked() orb.Bound {
	mb := v.opts.MaxBounds
	halfX := span(mb.Min[0], mb.Max[0]) / 2 / v.zoom
	halfY := span(mb.Min[1], mb.Max[1]) / 2 / v.zoom
	return orb.Bound{
		Min: orb.Point{v.center[0] - halfX, v.center[1] - halfY},
		Max: orb.Point{v.center[0] + halfX, v.center[1] + halfY},
	}
}

// microXY maps lon/lat into the 2x4 braille microgrid.
func (v *termViewport) microXY(lon, lat float64, w, h int) (int, int, bool) {
	b := v.visibleBound()
	dx := span(b.Min[0], b.Max[0])
	dy := span(b.Min[1], b.Max[1])
	if dx <= 0 || dy <= 0 {
		return 0, 0, false
	}
	wMic := w * 2
	hMic := h * 4
	sx := int((lon - b.Min[0]) / dx * float64(wMic-1))
	sy := int((1.0 - (lat-b.Min[1])/dy) * float64(hMic-1))
	return sx, sy, true
}

// cellToLonLat converts a map cell back to lon/lat for hit testing.
func (v *termViewport) cellToLonLat(cx, cy, w, h int) (float64, float64, bool) {
	if w <= 1 || h <= 1 {
		return 0, 0, false
	}
	b := v.visibleBound()
	nx := (float64(cx) + 0.5) / float64(w)
	ny := 1.0 - (float64(cy)+0.5)/float64(h)
	lon := b.Min[0] + nx*span(b.Min[0], b.Max[0])
	lat := b.Min[1] + ny*span(b.Min[1], b.Max[1])
	return lon, lat, true
}

// vectorLayer holds the region collection plus the single emphasized id.
type vectorLayer struct {
	mu         sync.Mutex
	collection *geo.Collection
	emphasized int
	opacity    float64
	onLoad     func()
	loaded     bool
}

func (l *vectorLayer) SetOpacity(o float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opacity = o
}

// OnLoad fires immediately: vector data is already in memory.
func (l *vectorLayer) OnLoad(fn func()) {
	l.mu.Lock()
	l.loaded = true
	l.mu.Unlock()
	fn()
}

func (l *vectorLayer) Emphasize(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.emphasized = id
}

func (l *vectorLayer) ResetStyle(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.emphasized == id {
		l.emphasized = -1
	}
}

func (l *vectorLayer) state() (*geo.Collection, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.collection, l.emphasized
}

// basemapLayer is the shaded graticule beneath the vector layer. Its
// "first load" is the first time its cells are rendered.
type basemapLayer struct {
	mu      sync.Mutex
	opacity float64
	onLoad  func()
	loaded  bool
}

func (l *basemapLayer) SetOpacity(o float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opacity = o
}

func (l *basemapLayer) OnLoad(fn func()) {
	l.mu.Lock()
	fired := l.loaded
	l.onLoad = fn
	l.mu.Unlock()
	if fired {
		fn()
	}
}

func (l *basemapLayer) currentOpacity() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opacity
}

// confirmLoaded fires the registered load callback exactly once.
func (l *basemapLayer) confirmLoaded() {
	l.mu.Lock()
	fn := l.onLoad
	fired := l.loaded
	l.loaded = true
	l.mu.Unlock()
	if !fired && fn != nil {
		fn()
	}
}

func span(lo, hi float64) float64 {
	d := hi - lo
	if d <= 0 {
		return 1e-9
	}
	return d
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
