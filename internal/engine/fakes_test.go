package engine

import (
	"errors"
	"sync"

	"choromap/internal/geo"

	"github.com/paulmach/orb"
)

// fakeSurface records viewport construction and simulates container
// attachment.
type fakeSurface struct {
	mu         sync.Mutex
	attached   bool
	w, h       int
	failCreate bool
	created    []*fakeViewport
	vectors    []*fakeVector
	basemaps   []*fakeLayer
	controls   []Control
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{attached: true, w: 120, h: 40}
}

func (s *fakeSurface) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

func (s *fakeSurface) setAttached(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = v
}

func (s *fakeSurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w, s.h
}

func (s *fakeSurface) CreateViewport(opts ViewportOptions) (Viewport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return nil, errors.New("container is gone")
	}
	vp := &fakeViewport{opts: opts}
	s.created = append(s.created, vp)
	return vp, nil
}

func (s *fakeSurface) NewVectorLayer(c *geo.Collection) (VectorLayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := &fakeVector{emphasized: map[int]bool{}}
	s.vectors = append(s.vectors, v)
	return v, nil
}

func (s *fakeSurface) NewBasemapLayer() Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := &fakeLayer{opacity: -1}
	s.basemaps = append(s.basemaps, l)
	return l
}

func (s *fakeSurface) Controls() []Control {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controls
}

func (s *fakeSurface) liveViewports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, vp := range s.created {
		if !vp.destroyed() {
			n++
		}
	}
	return n
}

type fakeViewport struct {
	mu          sync.Mutex
	opts        ViewportOptions
	layers      []Layer
	controls    []Control
	fits        []orb.Bound
	fitZooms    []float64
	invalidates int
	dead        bool
}

func (v *fakeViewport) FitBounds(b orb.Bound, maxZoom float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fits = append(v.fits, b)
	v.fitZooms = append(v.fitZooms, maxZoom)
}

func (v *fakeViewport) InvalidateSize() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.invalidates++
}

func (v *fakeViewport) AddLayer(l Layer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.layers = append(v.layers, l)
}

func (v *fakeViewport) RemoveLayer(l Layer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, have := range v.layers {
		if have == l {
			v.layers = append(v.layers[:i], v.layers[i+1:]...)
			return
		}
	}
}

func (v *fakeViewport) AddControl(c Control) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.controls = append(v.controls, c)
}

func (v *fakeViewport) Destroy() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dead = true
	v.layers = nil
	v.controls = nil
}

func (v *fakeViewport) destroyed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dead
}

func (v *fakeViewport) fitCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.fits)
}

func (v *fakeViewport) invalidateCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.invalidates
}

// fakeLayer records opacity changes and lets tests fire the load
// confirmation by hand.
type fakeLayer struct {
	mu        sync.Mutex
	opacity   float64
	history   []float64
	onLoad    func()
	loadFired bool
}

func (l *fakeLayer) SetOpacity(o float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opacity = o
	l.history = append(l.history, o)
}

func (l *fakeLayer) OnLoad(fn func()) {
	l.mu.Lock()
	fired := l.loadFired
	l.onLoad = fn
	l.mu.Unlock()
	if fired {
		fn()
	}
}

func (l *fakeLayer) fireLoad() {
	l.mu.Lock()
	l.loadFired = true
	fn := l.onLoad
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (l *fakeLayer) currentOpacity() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opacity
}

// fakeVector records styling calls and tracks the emphasized set so tests
// can check the at-most-one invariant.
type fakeVector struct {
	fakeLayer
	mu         sync.Mutex
	emphasized map[int]bool
	events     []string
}

func (v *fakeVector) Emphasize(id int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.emphasized[id] = true
	v.events = append(v.events, "emphasize")
}

func (v *fakeVector) ResetStyle(id int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.emphasized, id)
	v.events = append(v.events, "reset")
}

func (v *fakeVector) emphasizedIDs() []int {
	v.mu.Lock()
	defer v.mu.Unlock()
	var ids []int
	for id := range v.emphasized {
		ids = append(ids, id)
	}
	return ids
}
