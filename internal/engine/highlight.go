package engine

import (
	"sync"
	"time"

	"choromap/internal/config"
	"choromap/internal/ratelimit"
)

// Tracker guarantees that at most one region is visually highlighted at any
// instant, even under rapid, overlapping pointer events. It operates purely
// on stable region ids against a single tracked slot; the styled layer is
// only asked to emphasize or reset.
type Tracker struct {
	timing config.TimingConfig
	styler VectorLayer
	info   func(*RegionInfo)
	lookup func(id int) (RegionInfo, bool)

	mu         sync.Mutex
	current    int // -1 when nothing is highlighted
	leaveTimer *time.Timer
	touchTimer *time.Timer
	clickID    int
	click      *ratelimit.Throttled
	closed     bool
}

// NewTracker wires a tracker to a vector layer. fit receives throttled
// click-to-zoom requests; info (optional) feeds the host's info panel.
func NewTracker(timing config.TimingConfig, styler VectorLayer, fit func(id int), info func(*RegionInfo), lookup func(id int) (RegionInfo, bool)) *Tracker {
	t := &Tracker{
		timing:  timing,
		styler:  styler,
		info:    info,
		lookup:  lookup,
		current: -1,
	}
	t.click = ratelimit.Throttle(func() {
		t.mu.Lock()
		id := t.clickID
		closed := t.closed
		t.mu.Unlock()
		if !closed {
			fit(id)
		}
	}, timing.ClickThrottle())
	return t
}

// Current returns the highlighted region id, or -1.
func (t *Tracker) Current() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Enter highlights id: any previously tracked region is reset first, then
// the emphasis is applied, then id becomes the sole tracked handle.
func (t *Tracker) Enter(id int) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if t.current >= 0 && t.current != id {
		t.styler.ResetStyle(t.current)
	}
	t.styler.Emphasize(id)
	t.current = id
	t.mu.Unlock()

	if t.info != nil && t.lookup != nil {
		if ri, ok := t.lookup(id); ok {
			t.info(&ri)
		}
	}
}

// Leave schedules a reset of id after the flicker-absorption delay. The
// reset only happens if id is still the tracked region when the delayed
// check runs; an intervening Enter for another region makes it a no-op.
func (t *Tracker) Leave(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if t.leaveTimer != nil {
		t.leaveTimer.Stop()
	}
	t.leaveTimer = time.AfterFunc(t.timing.Flicker(), func() { t.delayedReset(id) })
}

// Click requests a viewport fit to id, throttled so repeated clicks do not
// queue competing transitions.
func (t *Tracker) Click(id int) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.clickID = id
	t.mu.Unlock()
	t.click.Call()
}

// TouchStart behaves as Enter.
func (t *Tracker) TouchStart(id int) { t.Enter(id) }

// TouchEnd behaves as Click plus a long delayed Leave, giving the user time
// to read the info panel before the highlight resets.
func (t *Tracker) TouchEnd(id int) {
	t.Click(id)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if t.touchTimer != nil {
		t.touchTimer.Stop()
	}
	t.touchTimer = time.AfterFunc(t.timing.TouchHold(), func() { t.delayedReset(id) })
}

// Close cancels pending resets and throttled clicks. The tracker must not
// touch the layer afterwards.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	if t.leaveTimer != nil {
		t.leaveTimer.Stop()
		t.leaveTimer = nil
	}
	if t.touchTimer != nil {
		t.touchTimer.Stop()
		t.touchTimer = nil
	}
	t.mu.Unlock()
	t.click.Cancel()
}

func (t *Tracker) delayedReset(id int) {
	t.mu.Lock()
	if t.closed || t.current != id {
		t.mu.Unlock()
		return
	}
	t.styler.ResetStyle(id)
	t.current = -1
	t.mu.Unlock()

	if t.info != nil {
		t.info(nil)
	}
}
