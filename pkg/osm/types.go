// Package osm fetches map geometry from the Overpass API.
//
// The pipeline consumes two shapes of data: a road-network graph whose
// edges carry raw highway-type tags, and per-layer feature collections of
// polygons and lines (water, parks, transit). Fetching is sequential,
// cached, and retried; per-layer failures are recoverable by the caller.
package osm

import "github.com/cartopress/cartopress/pkg/geo"

// Layer tokens understood by the fetcher and the pipeline.
const (
	LayerRoads  = "roads"
	LayerWater  = "water"
	LayerParks  = "parks"
	LayerSubway = "subway"
)

// KnownLayers enumerates the valid layer tokens in canonical order.
var KnownLayers = []string{LayerRoads, LayerWater, LayerParks, LayerSubway}

// Edge is one way of the road network with its raw highway tag. OSM encodes
// multi-value tags as a semicolon-separated list; classification normalizes
// that before use.
type Edge struct {
	ID      int64
	Highway string
	Points  []geo.Point
}

// Graph is the fetched road network.
type Graph struct {
	Edges []Edge
}

// FeatureKind distinguishes filled shapes from stroked ones.
type FeatureKind int

const (
	// KindLine is an open polyline (rivers as ways, transit tracks).
	KindLine FeatureKind = iota
	// KindPolygon is a closed ring to be filled (lakes, parks).
	KindPolygon
)

// Feature is a single geometric shape. No attributes beyond the shape are
// consumed downstream.
type Feature struct {
	Kind   FeatureKind
	Points []geo.Point
}

// FeatureCollection is the set of shapes for one layer.
type FeatureCollection struct {
	Features []Feature
}

// Empty reports whether the collection has nothing to draw.
func (fc *FeatureCollection) Empty() bool {
	return fc == nil || len(fc.Features) == 0
}

// Extent returns the bounding box of all edge geometry in the graph and
// whether any point was seen.
func (g *Graph) Extent() (geo.BBox, bool) {
	if g == nil {
		return geo.BBox{}, false
	}
	var b geo.BBox
	seen := false
	for _, e := range g.Edges {
		for _, p := range e.Points {
			if !seen {
				b = geo.BBox{North: p.Lat, South: p.Lat, East: p.Lng, West: p.Lng}
				seen = true
				continue
			}
			b.North = max(b.North, p.Lat)
			b.South = min(b.South, p.Lat)
			b.East = max(b.East, p.Lng)
			b.West = min(b.West, p.Lng)
		}
	}
	return b, seen
}
