// Package engine owns the map viewport lifecycle and the interaction state
// machines around it. It is host-agnostic: rendering surfaces implement the
// interfaces below, and the engine only requests operations on them.
package engine

import (
	"github.com/paulmach/orb"

	"choromap/internal/geo"
)

// ViewportOptions carries the construction parameters for a viewport.
type ViewportOptions struct {
	Center    orb.Point
	Zoom      float64
	MinZoom   float64
	MaxZoom   float64
	MaxBounds orb.Bound // panning beyond this box is disallowed
}

// Viewport is the live map surface. It is created and destroyed exclusively
// by the Manager; every other component only requests operations on it.
type Viewport interface {
	FitBounds(b orb.Bound, maxZoom float64)
	InvalidateSize()
	AddLayer(Layer)
	RemoveLayer(Layer)
	AddControl(Control)
	Destroy()
}

// Layer is an attachable map layer.
type Layer interface {
	SetOpacity(float64)
	// OnLoad registers fn to run once the layer completes its first
	// successful load. Implementations must invoke it at most once.
	OnLoad(fn func())
}

// VectorLayer additionally exposes per-region styling, addressed by the
// stable region ids of the loaded collection.
type VectorLayer interface {
	Layer
	Emphasize(id int)
	ResetStyle(id int)
}

// Control is an auxiliary viewport widget (zoom, attribution, legend,
// info panel).
type Control interface {
	ControlName() string
}

// Surface is the host rendering backend: it reports container readiness and
// constructs viewports and layers on request.
type Surface interface {
	Attached() bool
	Size() (w, h int)
	CreateViewport(ViewportOptions) (Viewport, error)
	NewVectorLayer(c *geo.Collection) (VectorLayer, error)
	NewBasemapLayer() Layer
	Controls() []Control
}

// RegionInfo is what the info panel receives for a highlighted region.
type RegionInfo struct {
	Name    string
	Density any
}
