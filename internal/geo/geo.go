package geo

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Region is one administrative area with its display attributes. ID is the
// feature's index in the source collection and is stable for the lifetime of
// a loaded Collection.
type Region struct {
	ID         int
	Name       string
	Density    float64 // clamped to 0 when absent or non-numeric
	RawDensity any     // verbatim property value, kept for display
	Geometry   orb.MultiPolygon
	Bound      orb.Bound
}

// Collection is an ordered set of regions plus their union bound.
type Collection struct {
	Regions []Region
	Bound   orb.Bound
}

// Parse decodes a GeoJSON FeatureCollection into a Collection.
func Parse(data []byte) (*Collection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}
	return FromFeatureCollection(fc)
}

// FromFeatureCollection keeps polygonal features in order, reading the
// name and density properties. Polygons are promoted to MultiPolygons.
func FromFeatureCollection(fc *geojson.FeatureCollection) (*Collection, error) {
	c := &Collection{}
	for _, f := range fc.Features {
		var mp orb.MultiPolygon
		switch g := f.Geometry.(type) {
		case orb.MultiPolygon:
			mp = g
		case orb.Polygon:
			mp = orb.MultiPolygon{g}
		default:
			continue
		}
		r := Region{
			ID:       len(c.Regions),
			Name:     readString(f, "name"),
			Geometry: mp,
			Bound:    mp.Bound(),
		}
		r.RawDensity = f.Properties["density"]
		if d, ok := r.RawDensity.(float64); ok && d >= 0 {
			r.Density = d
		}
		if len(c.Regions) == 0 {
			c.Bound = r.Bound
		} else {
			c.Bound = c.Bound.Union(r.Bound)
		}
		c.Regions = append(c.Regions, r)
	}
	if len(c.Regions) == 0 {
		return nil, errors.New("no polygonal features in collection")
	}
	return c, nil
}

// FindAt returns the id of the first region containing the point.
func (c *Collection) FindAt(p orb.Point) (int, bool) {
	for _, r := range c.Regions {
		if !r.Bound.Contains(p) {
			continue
		}
		if planar.MultiPolygonContains(r.Geometry, p) {
			return r.ID, true
		}
	}
	return 0, false
}

// Region returns the region with the given id.
func (c *Collection) Region(id int) (Region, bool) {
	if id < 0 || id >= len(c.Regions) {
		return Region{}, false
	}
	return c.Regions[id], true
}

func readString(f *geojson.Feature, key string) string {
	if v, ok := f.Properties[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}
