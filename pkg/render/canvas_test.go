package render

import (
	"testing"

	"github.com/cartopress/cartopress/pkg/geo"
	"github.com/cartopress/cartopress/pkg/osm"
	"github.com/cartopress/cartopress/pkg/theme"
)

func newTestCompositor() *Compositor {
	view := View{MinX: -74.01, MinY: 40.74, MaxX: -73.98, MaxY: 40.78}
	return NewCompositor(theme.Default(), Dimensions{3, 4}, 72, view)
}

func TestCompositorBackground(t *testing.T) {
	c := newTestCompositor()
	w, h := c.Size()
	if w != 216 || h != 288 {
		t.Fatalf("size = %dx%d", w, h)
	}
	img := c.Image()
	bg := theme.Default().Color(theme.SlotBG)
	wr, wg, wb, _ := bg.RGBA()
	r, g, b, _ := img.At(w/2, h/2).RGBA()
	if r != wr || g != wg || b != wb {
		t.Error("canvas not cleared to theme background")
	}
}

func TestProject(t *testing.T) {
	c := newTestCompositor()
	w, h := c.Size()

	// View corners land on canvas corners, north at the top.
	x, y := c.project(geo.Point{Lat: 40.78, Lng: -74.01})
	if x != 0 || y != 0 {
		t.Errorf("NW corner = (%v, %v)", x, y)
	}
	x, y = c.project(geo.Point{Lat: 40.74, Lng: -73.98})
	if x != float64(w) || y != float64(h) {
		t.Errorf("SE corner = (%v, %v)", x, y)
	}
}

func TestDrawRoadsMarksCanvas(t *testing.T) {
	c := newTestCompositor()
	before := countDiffering(c.Image(), theme.Default())

	g := &osm.Graph{Edges: []osm.Edge{{
		Highway: "motorway",
		Points: []geo.Point{
			{Lat: 40.75, Lng: -74.005},
			{Lat: 40.77, Lng: -73.985},
		},
	}}}
	c.DrawRoads(g)

	if after := countDiffering(c.Image(), theme.Default()); after <= before {
		t.Error("road stroke left no pixels")
	}
}

func TestDrawEmptyLayersNoOp(t *testing.T) {
	c := newTestCompositor()
	before := countDiffering(c.Image(), theme.Default())

	c.DrawWater(nil)
	c.DrawWater(&osm.FeatureCollection{})
	c.DrawParks(&osm.FeatureCollection{})
	c.DrawTransit(nil)
	c.DrawRoads(&osm.Graph{})

	if after := countDiffering(c.Image(), theme.Default()); after != before {
		t.Error("empty layers must not paint")
	}
}

func TestDrawWaterPolygonFill(t *testing.T) {
	c := newTestCompositor()
	fc := &osm.FeatureCollection{Features: []osm.Feature{{
		Kind: osm.KindPolygon,
		Points: []geo.Point{
			{Lat: 40.75, Lng: -74.005},
			{Lat: 40.77, Lng: -74.005},
			{Lat: 40.77, Lng: -73.985},
			{Lat: 40.75, Lng: -73.985},
		},
	}}}
	c.DrawWater(fc)

	// A point inside the polygon takes the water color.
	x, y := c.project(geo.Point{Lat: 40.76, Lng: -73.995})
	wc := theme.Default().Color(theme.SlotWater)
	wr, wg, wb, _ := wc.RGBA()
	r, g, b, _ := c.Image().At(int(x), int(y)).RGBA()
	if r != wr || g != wg || b != wb {
		t.Error("polygon interior not filled with water color")
	}
}
