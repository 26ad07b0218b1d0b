package engine

import (
	"sync"
	"testing"
	"time"

	"choromap/internal/config"
)

type basemapHarness struct {
	mu       sync.Mutex
	attached []*fakeLayer
	detached []Layer
}

func (h *basemapHarness) attach() Layer {
	h.mu.Lock()
	defer h.mu.Unlock()
	l := &fakeLayer{opacity: -1}
	h.attached = append(h.attached, l)
	return l
}

func (h *basemapHarness) detach(l Layer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detached = append(h.detached, l)
}

func backgroundConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Basemap.Opacity = 0.5
	cfg.Timing.OpacityDebounceMS = 15
	return cfg
}

func TestToggleAttachesFreshLayer(t *testing.T) {
	t.Parallel()

	h := &basemapHarness{}
	b := NewBackground(backgroundConfig(), h.attach, h.detach)
	defer b.Close()

	b.SetVisible(true)
	if len(h.attached) != 1 {
		t.Fatalf("expected one attach, got %d", len(h.attached))
	}
	first := h.attached[0]
	first.fireLoad()
	if got := first.currentOpacity(); got != 0.5 {
		t.Fatalf("expected target opacity after load, got %v", got)
	}

	b.SetVisible(false)
	if len(h.detached) != 1 || h.detached[0] != Layer(first) {
		t.Fatalf("hide must fully detach the layer: %v", h.detached)
	}

	b.SetVisible(true)
	if len(h.attached) != 2 {
		t.Fatalf("re-show must attach a fresh layer, attaches=%d", len(h.attached))
	}
	second := h.attached[1]
	if second == first {
		t.Fatal("stale layer reference reused")
	}
	if got := second.currentOpacity(); got != 0 {
		t.Fatalf("fresh layer must start transparent, got %v", got)
	}
	second.fireLoad()
	if got := second.currentOpacity(); got != 0.5 {
		t.Fatalf("expected opacity raised after load confirm, got %v", got)
	}
}

func TestLateLoadConfirmOnDetachedLayerIsIgnored(t *testing.T) {
	t.Parallel()

	h := &basemapHarness{}
	b := NewBackground(backgroundConfig(), h.attach, h.detach)
	defer b.Close()

	b.SetVisible(true)
	first := h.attached[0]
	b.SetVisible(false)

	// the tile load of the removed layer finishes late
	first.fireLoad()
	if got := first.currentOpacity(); got != 0 {
		t.Fatalf("detached layer mutated by late load: opacity=%v", got)
	}
}

func TestOpacityDebounced(t *testing.T) {
	t.Parallel()

	h := &basemapHarness{}
	b := NewBackground(backgroundConfig(), h.attach, h.detach)
	defer b.Close()

	b.SetVisible(true)
	l := h.attached[0]
	l.fireLoad()

	// slider drag: many updates in quick succession
	for _, o := range []float64{0.1, 0.2, 0.3, 0.4, 0.9} {
		b.SetOpacity(o)
	}
	l.mu.Lock()
	writes := len(l.history)
	l.mu.Unlock()
	if writes != 2 { // initial 0 + load confirm
		t.Fatalf("opacity applied during burst: %d writes", writes)
	}

	time.Sleep(50 * time.Millisecond)
	if got := l.currentOpacity(); got != 0.9 {
		t.Fatalf("expected debounced final opacity 0.9, got %v", got)
	}
}

func TestOpacityClamped(t *testing.T) {
	t.Parallel()

	h := &basemapHarness{}
	b := NewBackground(backgroundConfig(), h.attach, h.detach)
	defer b.Close()

	b.SetOpacity(4)
	if got := b.Opacity(); got != 1 {
		t.Fatalf("expected clamp to 1, got %v", got)
	}
	b.SetOpacity(-2)
	if got := b.Opacity(); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
}

func TestCloseCancelsPendingOpacity(t *testing.T) {
	t.Parallel()

	h := &basemapHarness{}
	b := NewBackground(backgroundConfig(), h.attach, h.detach)

	b.SetVisible(true)
	l := h.attached[0]
	l.fireLoad()
	b.SetOpacity(0.8)
	b.Close()

	time.Sleep(50 * time.Millisecond)
	if got := l.currentOpacity(); got != 0.5 {
		t.Fatalf("debounced opacity fired after Close: %v", got)
	}
}
