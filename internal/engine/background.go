package engine

import (
	"sync"

	"choromap/internal/config"
	"choromap/internal/ratelimit"
)

// Background manages the auxiliary basemap layer independently of the
// vector layer. Hiding fully detaches the layer (no wasted tile work);
// showing attaches a fresh layer at zero opacity and raises it to the
// target only after the layer confirms its first load, so creation and
// opacity application never race visibly.
type Background struct {
	attach func() Layer
	detach func(Layer)

	mu      sync.Mutex
	layer   Layer
	visible bool
	opacity float64
	deb     *ratelimit.Debounced
	closed  bool
}

// NewBackground builds a controller around the manager-provided attach and
// detach operations.
func NewBackground(cfg *config.Config, attach func() Layer, detach func(Layer)) *Background {
	b := &Background{
		attach:  attach,
		detach:  detach,
		opacity: cfg.Basemap.Opacity,
	}
	b.deb = ratelimit.Debounce(b.applyOpacity, cfg.Timing.OpacityDebounce())
	return b
}

// Visible reports whether the layer is currently attached.
func (b *Background) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible
}

// Opacity returns the configured target opacity.
func (b *Background) Opacity() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opacity
}

// SetVisible toggles the layer. Re-showing always attaches a fresh layer,
// never a stale reference.
func (b *Background) SetVisible(v bool) {
	b.mu.Lock()
	if b.closed || v == b.visible {
		b.mu.Unlock()
		return
	}
	b.visible = v
	if !v {
		old := b.layer
		b.layer = nil
		b.mu.Unlock()
		b.deb.Cancel()
		if old != nil {
			b.detach(old)
		}
		return
	}
	b.mu.Unlock()

	l := b.attach()
	if l == nil {
		b.mu.Lock()
		b.visible = false
		b.mu.Unlock()
		return
	}
	l.SetOpacity(0)

	b.mu.Lock()
	b.layer = l
	b.mu.Unlock()
	l.OnLoad(func() {
		b.mu.Lock()
		apply := !b.closed && b.visible && b.layer == l
		opacity := b.opacity
		b.mu.Unlock()
		if apply {
			l.SetOpacity(opacity)
		}
	})
}

// SetOpacity records the target opacity in [0,1]. While the layer is
// visible the application is debounced to absorb slider-drag storms.
func (b *Background) SetOpacity(o float64) {
	if o < 0 {
		o = 0
	}
	if o > 1 {
		o = 1
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.opacity = o
	debounce := b.visible && b.layer != nil
	b.mu.Unlock()
	if debounce {
		b.deb.Call()
	}
}

// Close cancels the pending opacity application. Layer detachment is the
// viewport teardown's job.
func (b *Background) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.deb.Cancel()
}

func (b *Background) applyOpacity() {
	b.mu.Lock()
	l := b.layer
	o := b.opacity
	ok := !b.closed && b.visible && l != nil
	b.mu.Unlock()
	if ok {
		l.SetOpacity(o)
	}
}
