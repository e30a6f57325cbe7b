package render

import (
	"image"

	"github.com/fogleman/gg"

	"github.com/cartopress/cartopress/pkg/geo"
	"github.com/cartopress/cartopress/pkg/osm"
	"github.com/cartopress/cartopress/pkg/theme"
)

// Compositor draws map layers onto a raster canvas. Layers are painted
// back to front in a fixed order (water, parks, transit, roads) so
// roads always read on top of area fills.
type Compositor struct {
	dc    *gg.Context
	view  View
	theme theme.Theme
	dpi   int
	w, h  int
}

// NewCompositor allocates a canvas at the paper's pixel size and fills
// it with the theme background. The view must already be cropped to the
// paper ratio; projection is a uniform linear map from degrees to pixels.
func NewCompositor(t theme.Theme, d Dimensions, dpi int, view View) *Compositor {
	w, h := PixelSize(d, dpi)
	dc := gg.NewContext(w, h)
	dc.SetColor(t.Color(theme.SlotBG))
	dc.Clear()
	return &Compositor{dc: dc, view: view, theme: t, dpi: dpi, w: w, h: h}
}

// View returns the geographic window the canvas covers.
func (c *Compositor) View() View { return c.view }

// Size returns the canvas size in pixels.
func (c *Compositor) Size() (w, h int) { return c.w, c.h }

// project maps a geographic point to canvas coordinates. Pixel y grows
// downward while latitude grows upward, hence the flip.
func (c *Compositor) project(p geo.Point) (x, y float64) {
	x = (p.Lng - c.view.MinX) / c.view.Width() * float64(c.w)
	y = (c.view.MaxY - p.Lat) / c.view.Height() * float64(c.h)
	return x, y
}

// strokeWidth converts a point width (72 DPI) to canvas pixels.
func (c *Compositor) strokeWidth(pts float64) float64 {
	return pts * float64(c.dpi) / 72
}

func (c *Compositor) tracePath(points []geo.Point) {
	for i, p := range points {
		x, y := c.project(p)
		if i == 0 {
			c.dc.MoveTo(x, y)
		} else {
			c.dc.LineTo(x, y)
		}
	}
}

// drawFeatures fills polygon features and strokes line features in the
// given slot's color. Empty collections are skipped entirely, so a city
// without water never paints a stray artifact.
func (c *Compositor) drawFeatures(fc *osm.FeatureCollection, slot theme.Slot, lineWidth float64) {
	if fc == nil || fc.Empty() {
		return
	}
	c.dc.SetColor(c.theme.Color(slot))
	for _, f := range fc.Features {
		if len(f.Points) < 2 {
			continue
		}
		c.tracePath(f.Points)
		if f.Kind == osm.KindPolygon {
			c.dc.ClosePath()
			c.dc.Fill()
		} else {
			c.dc.SetLineWidth(c.strokeWidth(lineWidth))
			c.dc.Stroke()
		}
	}
}

// DrawWater paints water bodies. Open waterway segments are stroked a
// touch wider than roads so rivers stay visible.
func (c *Compositor) DrawWater(fc *osm.FeatureCollection) {
	c.drawFeatures(fc, theme.SlotWater, 0.8)
}

// DrawParks paints green areas.
func (c *Compositor) DrawParks(fc *osm.FeatureCollection) {
	c.drawFeatures(fc, theme.SlotParks, 0.4)
}

// DrawTransit strokes rail lines under the road network.
func (c *Compositor) DrawTransit(fc *osm.FeatureCollection) {
	c.drawFeatures(fc, theme.SlotSubway, 0.6)
}

// DrawRoads strokes every edge in the graph with its classified color
// and width. Edges with fewer than two points carry no geometry.
func (c *Compositor) DrawRoads(g *osm.Graph) {
	if g == nil || len(g.Edges) == 0 {
		return
	}
	colors, widths := EdgeStyles(g, c.theme)
	c.dc.SetLineCapRound()
	for i, e := range g.Edges {
		if len(e.Points) < 2 {
			continue
		}
		c.dc.SetColor(colors[i])
		c.dc.SetLineWidth(c.strokeWidth(widths[i]))
		c.tracePath(e.Points)
		c.dc.Stroke()
	}
}

// Image returns the composed canvas.
func (c *Compositor) Image() image.Image {
	return c.dc.Image()
}
