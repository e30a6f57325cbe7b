package render

import "github.com/cartopress/cartopress/pkg/geo"

// View is the visible map window in degrees. X is longitude, Y is
// latitude; rendering treats degrees as planar with equal aspect, so
// the window ratio is directly comparable to a paper ratio.
type View struct {
	MinX, MinY, MaxX, MaxY float64
}

// ViewFromBBox converts a geographic bounding box to a view window.
func ViewFromBBox(b geo.BBox) View {
	return View{MinX: b.West, MinY: b.South, MaxX: b.East, MaxY: b.North}
}

// BBox converts back to geographic bounds.
func (v View) BBox() geo.BBox {
	return geo.BBox{North: v.MaxY, South: v.MinY, East: v.MaxX, West: v.MinX}
}

// Width is the window's extent in longitude degrees.
func (v View) Width() float64 { return v.MaxX - v.MinX }

// Height is the window's extent in latitude degrees.
func (v View) Height() float64 { return v.MaxY - v.MinY }

// Ratio is width over height.
func (v View) Ratio() float64 { return v.Width() / v.Height() }

// Center is the window midpoint.
func (v View) Center() (x, y float64) {
	return (v.MinX + v.MaxX) / 2, (v.MinY + v.MaxY) / 2
}

// ratioTolerance is how far the data window's aspect ratio may deviate
// from the paper ratio before exact-bounds mode crops. Within it the
// caller-supplied bounds are honored as given.
const ratioTolerance = 0.05

// Crop fits the view to the target aspect ratio by shrinking one axis
// around the center. Content is only ever removed, never stretched.
//
// In exact mode the view is left untouched when its ratio is within 5%
// of the target: the caller asked for those bounds and a tiny letterbox
// beats discarding their area. Otherwise (center+radius queries) the
// crop always runs, so the output ratio matches the paper exactly.
// Cropping an already-matching view is a no-op, so the operation is
// idempotent either way.
func Crop(v View, target float64, exact bool) View {
	current := v.Ratio()
	if exact {
		dev := (current - target) / target
		if dev < 0 {
			dev = -dev
		}
		if dev <= ratioTolerance {
			return v
		}
	}

	cx, cy := v.Center()
	if current > target {
		// Too wide: trim longitude.
		half := v.Height() * target / 2
		return View{MinX: cx - half, MinY: v.MinY, MaxX: cx + half, MaxY: v.MaxY}
	}
	// Too tall: trim latitude.
	half := v.Width() / target / 2
	return View{MinX: v.MinX, MinY: cy - half, MaxX: v.MaxX, MaxY: cy + half}
}
