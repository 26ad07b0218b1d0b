package engine

import (
	"sync"

	"choromap/internal/config"
	"choromap/internal/ratelimit"

	"github.com/paulmach/orb"
)

// Resize keeps viewport sizing and zoom constraints consistent with
// container and device-class changes. Size observations are throttled; a
// full bounds refit happens only when the width crosses the narrow/wide
// breakpoint, using a device-appropriate max zoom.
type Resize struct {
	mapCfg config.MapConfig
	vp     Viewport
	bounds func() (orb.Bound, bool)

	mu     sync.Mutex
	width  int
	narrow bool
	th     *ratelimit.Throttled
	closed bool
}

// NewResize builds a coordinator. initialWidth establishes the starting
// device class without triggering a refit.
func NewResize(mapCfg config.MapConfig, timing config.TimingConfig, vp Viewport, bounds func() (orb.Bound, bool), initialWidth int) *Resize {
	r := &Resize{
		mapCfg: mapCfg,
		vp:     vp,
		bounds: bounds,
		width:  initialWidth,
		narrow: initialWidth < mapCfg.NarrowBreakpoint,
	}
	r.th = ratelimit.Throttle(r.apply, timing.ResizeThrottle())
	return r
}

// Observe records a new container size. The heavy work runs throttled.
func (r *Resize) Observe(w, h int) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.width = w
	r.mu.Unlock()
	r.th.Call()
}

// Close cancels any pending throttled work.
func (r *Resize) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.th.Cancel()
}

func (r *Resize) apply() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	narrow := r.width < r.mapCfg.NarrowBreakpoint
	crossed := narrow != r.narrow
	r.narrow = narrow
	r.mu.Unlock()

	r.vp.InvalidateSize()
	if !crossed {
		return
	}
	b, ok := r.bounds()
	if !ok {
		return
	}
	maxZoom := r.mapCfg.MaxZoom
	if narrow {
		// lower ceiling on narrow devices to bound rendering cost
		maxZoom = r.mapCfg.MaxZoomNarrow
	}
	r.vp.FitBounds(b, maxZoom)
}
