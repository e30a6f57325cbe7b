package render

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"

	"github.com/cartopress/cartopress/pkg/fonts"
	"github.com/cartopress/cartopress/pkg/geo"
	"github.com/cartopress/cartopress/pkg/theme"
)

// LockscreenPaper is the phone-wallpaper format. It gets a deeper top
// gradient and the blur fade so a lock-screen clock stays readable.
const LockscreenPaper = "9:19.5"

// Gradient extents as fractions of canvas height.
const (
	gradientFraction = 0.25
	topFractionTall  = 0.40
)

// Text layout as fractions of canvas height from the bottom edge.
const (
	cityYFrac    = 0.14
	countryYFrac = 0.10
	coordsYFrac  = 0.07
	dividerYFrac = 0.125
)

// Typography sizes in points at 72 DPI, scaled with the raster density.
const (
	citySizePt        = 60
	countrySizePt     = 22
	coordsSizePt      = 14
	attributionSizePt = 8
)

const attributionText = "© OpenStreetMap contributors"

// DrawGradients fades the gradient color in from the bottom and top
// edges so the typography block and the status area sit on a calm
// backdrop. Runs after the map layers and before the text.
func (c *Compositor) DrawGradients(paperName string) {
	gc := c.theme.Color(theme.SlotGradient)
	h := float64(c.h)
	w := float64(c.w)

	bottom := gradientFraction * h
	g := gg.NewLinearGradient(0, h, 0, h-bottom)
	g.AddColorStop(0, withAlpha(gc, 255))
	g.AddColorStop(1, withAlpha(gc, 0))
	c.dc.SetFillStyle(g)
	c.dc.DrawRectangle(0, h-bottom, w, bottom)
	c.dc.Fill()

	topFrac := gradientFraction
	if paperName == LockscreenPaper {
		topFrac = topFractionTall
	}
	top := topFrac * h
	g = gg.NewLinearGradient(0, 0, 0, top)
	g.AddColorStop(0, withAlpha(gc, 255))
	g.AddColorStop(1, withAlpha(gc, 0))
	c.dc.SetFillStyle(g)
	c.dc.DrawRectangle(0, 0, w, top)
	c.dc.Fill()
}

// TextInfo is everything the typography block needs.
type TextInfo struct {
	City    string
	Country string
	Point   geo.Point
}

// DrawOverlay renders the centered typography block (letter-spaced city
// name, country, divider, coordinates) and the attribution corner.
func (c *Compositor) DrawOverlay(info TextInfo, fs *fonts.Set) {
	scale := float64(c.dpi) / 72
	w := float64(c.w)
	h := float64(c.h)
	cx := w / 2
	textColor := c.theme.Color(theme.SlotText)
	c.dc.SetColor(textColor)

	c.dc.SetFontFace(fs.Face(fonts.Bold, citySizePt*scale))
	c.dc.DrawStringAnchored(letterSpaced(info.City), cx, h*(1-cityYFrac), 0.5, 0.5)

	c.dc.SetFontFace(fs.Face(fonts.Light, countrySizePt*scale))
	c.dc.DrawStringAnchored(strings.ToUpper(info.Country), cx, h*(1-countryYFrac), 0.5, 0.5)

	c.dc.SetLineWidth(scale)
	c.dc.DrawLine(w*0.4, h*(1-dividerYFrac), w*0.6, h*(1-dividerYFrac))
	c.dc.Stroke()

	// The coordinate line sits back at 70% opacity.
	c.dc.SetColor(withAlpha(textColor, 178))
	c.dc.SetFontFace(fs.Face(fonts.Regular, coordsSizePt*scale))
	c.dc.DrawStringAnchored(FormatCoord(info.Point), cx, h*(1-coordsYFrac), 0.5, 0.5)

	// Attribution stays legible but unobtrusive at half opacity.
	c.dc.SetColor(withAlpha(textColor, 128))
	c.dc.SetFontFace(fs.Face(fonts.Light, attributionSizePt*scale))
	c.dc.DrawStringAnchored(attributionText, w*0.98, h*0.98, 1, 0.5)
}

// letterSpaced uppercases a name and opens it up with two spaces
// between characters, the classic poster treatment.
func letterSpaced(s string) string {
	runes := []rune(strings.ToUpper(s))
	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = string(r)
	}
	return strings.Join(parts, "  ")
}

// FormatCoord renders a point as poster coordinates, e.g.
// "40.7128° N / 74.0060° W".
func FormatCoord(p geo.Point) string {
	ns := "N"
	if p.Lat < 0 {
		ns = "S"
	}
	ew := "E"
	if p.Lng < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.4f° %s / %.4f° %s", math.Abs(p.Lat), ns, math.Abs(p.Lng), ew)
}

func withAlpha(c color.RGBA, alpha uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: alpha}
}
