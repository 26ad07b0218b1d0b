package engine

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"choromap/internal/config"
)

func trackerTiming() config.TimingConfig {
	t := config.DefaultConfig().Timing
	t.FlickerMS = 20
	t.ClickThrottleMS = 50
	t.TouchHoldMS = 60
	return t
}

func TestEnterKeepsSingleHighlight(t *testing.T) {
	t.Parallel()

	v := &fakeVector{emphasized: map[int]bool{}}
	tr := NewTracker(trackerTiming(), v, func(int) {}, nil, nil)
	defer tr.Close()

	tr.Enter(0)
	tr.Enter(1) // no intervening Leave

	if got := tr.Current(); got != 1 {
		t.Fatalf("expected region 1 tracked, got %d", got)
	}
	ids := v.emphasizedIDs()
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("expected exactly region 1 emphasized, got %v", ids)
	}
}

func TestLeaveIsNoOpAfterReenter(t *testing.T) {
	t.Parallel()

	v := &fakeVector{emphasized: map[int]bool{}}
	tr := NewTracker(trackerTiming(), v, func(int) {}, nil, nil)
	defer tr.Close()

	// all three events land inside the flicker window
	tr.Enter(0)
	tr.Leave(0)
	tr.Enter(1)

	time.Sleep(80 * time.Millisecond) // past the delayed reset

	if got := tr.Current(); got != 1 {
		t.Fatalf("delayed reset clobbered the new highlight: current=%d", got)
	}
	ids := v.emphasizedIDs()
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("expected only region 1 emphasized, got %v", ids)
	}
}

func TestLeaveResetsWhenStillTracked(t *testing.T) {
	t.Parallel()

	var cleared atomic.Bool
	v := &fakeVector{emphasized: map[int]bool{}}
	tr := NewTracker(trackerTiming(), v, func(int) {}, func(ri *RegionInfo) {
		if ri == nil {
			cleared.Store(true)
		}
	}, func(id int) (RegionInfo, bool) { return RegionInfo{Name: "x"}, true })
	defer tr.Close()

	tr.Enter(2)
	tr.Leave(2)
	time.Sleep(80 * time.Millisecond)

	if got := tr.Current(); got != -1 {
		t.Fatalf("expected highlight cleared, current=%d", got)
	}
	if len(v.emphasizedIDs()) != 0 {
		t.Fatalf("expected no emphasized regions, got %v", v.emphasizedIDs())
	}
	if !cleared.Load() {
		t.Fatal("expected info panel to receive the clear")
	}
}

func TestClickIsThrottled(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var fits []int
	v := &fakeVector{emphasized: map[int]bool{}}
	tr := NewTracker(trackerTiming(), v, func(id int) {
		mu.Lock()
		fits = append(fits, id)
		mu.Unlock()
	}, nil, nil)
	defer tr.Close()

	tr.Click(0)
	tr.Click(1)
	tr.Click(2)

	mu.Lock()
	immediate := len(fits)
	first := -1
	if immediate > 0 {
		first = fits[0]
	}
	mu.Unlock()
	if immediate != 1 || first != 0 {
		t.Fatalf("expected one immediate fit for region 0, got %d fits", immediate)
	}

	time.Sleep(120 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(fits) != 2 || fits[1] != 2 {
		t.Fatalf("expected one trailing fit with the latest region, got %v", fits)
	}
}

func TestTouchSequence(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var fits []int
	v := &fakeVector{emphasized: map[int]bool{}}
	tr := NewTracker(trackerTiming(), v, func(id int) {
		mu.Lock()
		fits = append(fits, id)
		mu.Unlock()
	}, nil, nil)
	defer tr.Close()

	tr.TouchStart(1)
	if got := tr.Current(); got != 1 {
		t.Fatalf("touchstart should highlight, current=%d", got)
	}

	tr.TouchEnd(1)
	mu.Lock()
	n := len(fits)
	mu.Unlock()
	if n != 1 {
		t.Fatalf("touchend should zoom immediately, fits=%d", n)
	}
	// highlight survives long enough to read the info panel
	time.Sleep(20 * time.Millisecond)
	if got := tr.Current(); got != 1 {
		t.Fatalf("highlight reset too early, current=%d", got)
	}
	time.Sleep(80 * time.Millisecond)
	if got := tr.Current(); got != -1 {
		t.Fatalf("highlight not reset after touch hold, current=%d", got)
	}
}

func TestCloseCancelsPendingReset(t *testing.T) {
	t.Parallel()

	v := &fakeVector{emphasized: map[int]bool{}}
	tr := NewTracker(trackerTiming(), v, func(int) {}, nil, nil)

	tr.Enter(0)
	tr.Leave(0)
	tr.Close()
	time.Sleep(60 * time.Millisecond)

	v.mu.Lock()
	events := len(v.events)
	v.mu.Unlock()
	if events != 1 { // just the Enter's emphasize
		t.Fatalf("layer touched after Close: %d events", events)
	}
}
