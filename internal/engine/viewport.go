package engine

import (
	"sync"
	"time"

	"choromap/internal/config"
	"choromap/internal/geo"
	"choromap/internal/logging"

	"github.com/paulmach/orb"
)

// Phase is the lifecycle state of the viewport.
type Phase int

const (
	Uninitialized Phase = iota
	Initializing
	Ready
	Destroyed
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Destroyed:
		return "destroyed"
	}
	return "unknown"
}

// Manager owns creation, teardown, and re-creation of the viewport,
// sequenced against data availability and container readiness. One Manager
// exists per mount; there is no cross-instance shared state.
type Manager struct {
	cfg     *config.Config
	surface Surface
	data    func() (*geo.Collection, bool)
	notify  func()
	onInfo  func(*RegionInfo)

	mu         sync.Mutex
	phase      Phase
	gen        int // bumped on every teardown; late timers compare it
	vp         Viewport
	vector     VectorLayer
	collection *geo.Collection
	tracker    *Tracker
	background *Background
	resize     *Resize

	attachTimer    *time.Timer
	remeasureTimer *time.Timer
}

// NewManager builds an uninitialized manager. data reports ready feature
// data; notify (optional) fires after phase changes; onInfo (optional)
// receives highlight info for the host's info panel.
func NewManager(cfg *config.Config, surface Surface, data func() (*geo.Collection, bool), notify func(), onInfo func(*RegionInfo)) *Manager {
	if notify == nil {
		notify = func() {}
	}
	return &Manager{
		cfg:     cfg,
		surface: surface,
		data:    data,
		notify:  notify,
		onInfo:  onInfo,
		phase:   Uninitialized,
	}
}

// Phase returns the current lifecycle state.
func (m *Manager) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Viewport returns the live viewport, nil unless Ready.
func (m *Manager) Viewport() Viewport {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != Ready {
		return nil
	}
	return m.vp
}

// Tracker returns the highlight tracker, nil unless Ready.
func (m *Manager) Tracker() *Tracker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tracker
}

// Background returns the background layer controller, nil unless Ready.
func (m *Manager) Background() *Background {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.background
}

// Resize returns the resize coordinator, nil unless Ready.
func (m *Manager) Resize() *Resize {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resize
}

// TryInit constructs the viewport once both ready data and an attached,
// sized container exist. Both conditions are re-checked on every call.
// Called while Ready it tears the old viewport down first, so at most one
// live viewport ever exists per manager.
func (m *Manager) TryInit() {
	m.mu.Lock()
	if m.phase == Initializing {
		m.mu.Unlock()
		return
	}

	col, ok := m.data()
	if !ok {
		m.mu.Unlock()
		return
	}

	w, h := m.surface.Size()
	if !m.surface.Attached() || w <= 0 || h <= 0 {
		// The container can exist before it is attached to the visible
		// tree; poll instead of failing permanently.
		if m.attachTimer == nil {
			gen := m.gen
			m.attachTimer = time.AfterFunc(m.cfg.Timing.AttachPoll(), func() {
				m.mu.Lock()
				stale := m.gen != gen
				m.attachTimer = nil
				m.mu.Unlock()
				if !stale {
					m.TryInit()
				}
			})
		}
		m.mu.Unlock()
		return
	}
	if m.attachTimer != nil {
		m.attachTimer.Stop()
		m.attachTimer = nil
	}

	if m.phase == Ready {
		m.teardownLocked()
	}
	m.phase = Initializing
	m.mu.Unlock()
	m.notify()

	m.mu.Lock()
	if m.phase != Initializing { // destroyed while unlocked
		m.mu.Unlock()
		return
	}
	opts := ViewportOptions{
		Center:    orb.Point{m.cfg.Map.CenterLon, m.cfg.Map.CenterLat},
		Zoom:      m.cfg.Map.Zoom,
		MinZoom:   m.cfg.Map.MinZoom,
		MaxZoom:   m.cfg.Map.MaxZoom,
		MaxBounds: col.Bound.Pad(m.cfg.Map.BoundsPad),
	}
	vp, err := m.surface.CreateViewport(opts)
	if err == nil {
		m.vector, err = m.surface.NewVectorLayer(col)
	}
	if err != nil {
		logging.L().Error("viewport init failed", "err", err)
		if vp != nil {
			vp.Destroy()
		}
		// Recoverable: a later event (resize, remount) may retry.
		m.phase = Uninitialized
		m.mu.Unlock()
		m.notify()
		return
	}

	m.vp = vp
	m.collection = col
	vp.AddLayer(m.vector)
	for _, c := range m.surface.Controls() {
		vp.AddControl(c)
	}
	// initial view: the whole collection
	vp.FitBounds(col.Bound, m.cfg.Map.MaxZoom)

	m.tracker = NewTracker(m.cfg.Timing, m.vector, m.fitRegion, m.onInfo, m.lookup)
	m.background = NewBackground(m.cfg, m.attachBasemap, vp.RemoveLayer)
	m.resize = NewResize(m.cfg.Map, m.cfg.Timing, vp, m.bounds, w)
	m.phase = Ready
	gen := m.gen

	// Hosts often report a container size before layout settles; force one
	// guarded re-measurement shortly after creation.
	m.remeasureTimer = time.AfterFunc(m.cfg.Timing.RemeasureDelay(), func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.remeasureTimer = nil
		if m.gen != gen || m.phase != Ready || !m.surface.Attached() {
			return
		}
		m.vp.InvalidateSize()
	})
	background := m.background
	m.mu.Unlock()

	if m.cfg.Basemap.Visible {
		background.SetOpacity(m.cfg.Basemap.Opacity)
		background.SetVisible(true)
	}
	logging.L().Info("viewport ready", "regions", len(col.Regions))
	m.notify()
}

// Destroy tears everything down. Idempotent; safe while timers are in
// flight because they compare generations.
func (m *Manager) Destroy() {
	m.mu.Lock()
	already := m.phase == Destroyed
	if !already {
		m.teardownLocked()
		m.phase = Destroyed
	}
	m.mu.Unlock()
	if !already {
		m.notify()
	}
}

func (m *Manager) teardownLocked() {
	m.gen++
	if m.attachTimer != nil {
		m.attachTimer.Stop()
		m.attachTimer = nil
	}
	if m.remeasureTimer != nil {
		m.remeasureTimer.Stop()
		m.remeasureTimer = nil
	}
	if m.tracker != nil {
		m.tracker.Close()
		m.tracker = nil
	}
	if m.background != nil {
		m.background.Close()
		m.background = nil
	}
	if m.resize != nil {
		m.resize.Close()
		m.resize = nil
	}
	if m.vp != nil {
		m.vp.Destroy()
		m.vp = nil
	}
	m.vector = nil
	m.collection = nil
	m.phase = Uninitialized
}

func (m *Manager) fitRegion(id int) {
	m.mu.Lock()
	vp, col := m.vp, m.collection
	maxZoom := m.cfg.Map.MaxZoom
	ready := m.phase == Ready
	m.mu.Unlock()
	if !ready || vp == nil || col == nil {
		return
	}
	if r, ok := col.Region(id); ok {
		vp.FitBounds(r.Bound, maxZoom)
	}
}

func (m *Manager) lookup(id int) (RegionInfo, bool) {
	m.mu.Lock()
	col := m.collection
	m.mu.Unlock()
	if col == nil {
		return RegionInfo{}, false
	}
	r, ok := col.Region(id)
	if !ok {
		return RegionInfo{}, false
	}
	return RegionInfo{Name: r.Name, Density: r.RawDensity}, true
}

func (m *Manager) bounds() (orb.Bound, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.collection == nil {
		return orb.Bound{}, false
	}
	return m.collection.Bound, true
}

func (m *Manager) attachBasemap() Layer {
	m.mu.Lock()
	vp := m.vp
	m.mu.Unlock()
	if vp == nil {
		return nil
	}
	l := m.surface.NewBasemapLayer()
	vp.AddLayer(l)
	return l
}
