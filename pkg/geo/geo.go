// Package geo provides the geographic primitives used by the poster
// pipeline: points, bounding boxes, and the query modes derived from them.
package geo

import (
	"math"
	"strconv"
	"strings"

	"github.com/cartopress/cartopress/pkg/errors"
)

// metersPerDegree is the approximate length of one degree of latitude.
const metersPerDegree = 111320.0

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BBox is a geographic bounding box. North > South and East > West for any
// box this package produces.
type BBox struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Width returns the longitudinal span in degrees.
func (b BBox) Width() float64 { return b.East - b.West }

// Height returns the latitudinal span in degrees.
func (b BBox) Height() float64 { return b.North - b.South }

// Center returns the box centroid.
func (b BBox) Center() Point {
	return Point{Lat: (b.North + b.South) / 2, Lng: (b.East + b.West) / 2}
}

// Valid reports whether the box has positive extent on both axes.
func (b BBox) Valid() bool {
	return b.North > b.South && b.East > b.West
}

// BBoxAround returns a box spanning dist meters in each direction from
// center. The longitude span is widened by 1/cos(lat) so the box covers the
// same ground distance east-west as north-south.
func BBoxAround(center Point, dist float64) BBox {
	dLat := dist / metersPerDegree
	cos := math.Cos(center.Lat * math.Pi / 180)
	if cos < 0.01 {
		cos = 0.01 // near the poles a degree of longitude vanishes
	}
	dLng := dist / (metersPerDegree * cos)
	return BBox{
		North: center.Lat + dLat,
		South: center.Lat - dLat,
		East:  center.Lng + dLng,
		West:  center.Lng - dLng,
	}
}

// ParseBBox parses "north,south,east,west" into a BBox.
// Returns an INVALID_BOUNDS error for wrong arity, non-numeric values, or
// an inverted box.
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, errors.New(errors.ErrCodeInvalidBounds, "bounds want 4 values (north,south,east,west), got %d", len(parts))
	}

	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BBox{}, errors.New(errors.ErrCodeInvalidBounds, "bounds value %q is not numeric", strings.TrimSpace(p))
		}
		vals[i] = v
	}

	b := BBox{North: vals[0], South: vals[1], East: vals[2], West: vals[3]}
	if !b.Valid() {
		return BBox{}, errors.New(errors.ErrCodeInvalidBounds, "bounds are inverted: north must exceed south and east must exceed west")
	}
	return b, nil
}

// Query describes the geographic extent of one poster run. Exactly one mode
// is active: either exact bounds were supplied, or a center point plus
// radius. The mode changes the crop tolerance policy downstream.
type Query struct {
	Center Point
	Dist   float64 // radius in meters, center mode only
	Bounds BBox    // exact mode only
	Exact  bool    // true when Bounds is authoritative
}

// ExactQuery builds a query from explicit bounds.
func ExactQuery(b BBox) Query {
	return Query{Bounds: b, Center: b.Center(), Exact: true}
}

// RadiusQuery builds a query from a center point and radius in meters.
func RadiusQuery(center Point, dist float64) Query {
	return Query{Center: center, Dist: dist}
}

// BBox returns the fetch window for the query: the exact bounds, or the box
// derived from center and radius.
func (q Query) BBox() BBox {
	if q.Exact {
		return q.Bounds
	}
	return BBoxAround(q.Center, q.Dist)
}
