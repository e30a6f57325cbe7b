// Package render turns fetched map data into a finished poster image:
// classification, composition, cropping, the text overlay, and the
// post-processing effects.
package render

import (
	"image/color"
	"strings"

	"github.com/cartopress/cartopress/pkg/osm"
	"github.com/cartopress/cartopress/pkg/theme"
)

// roadClass maps a normalized highway tag to its theme slot and stroke
// width (in points at 72 DPI). Anything absent falls through to the
// default class, so footways, paths and service roads all render thin
// in the default color rather than being dropped.
type roadClass struct {
	slot  theme.Slot
	width float64
}

var roadClasses = map[string]roadClass{
	"motorway":      {theme.SlotRoadMotorway, 1.2},
	"trunk":         {theme.SlotRoadPrimary, 1.0},
	"primary":       {theme.SlotRoadPrimary, 1.0},
	"secondary":     {theme.SlotRoadSecondary, 0.8},
	"tertiary":      {theme.SlotRoadTertiary, 0.6},
	"residential":   {theme.SlotRoadResidential, 0.4},
	"living_street": {theme.SlotRoadResidential, 0.4},
	"unclassified":  {theme.SlotRoadResidential, 0.4},
}

var defaultClass = roadClass{theme.SlotRoadDefault, 0.4}

// NormalizeHighway collapses a raw highway tag to a single class name.
// OSM allows multi-valued tags ("primary;residential"); the first value
// wins. Link roads ("motorway_link") classify with their parent. An
// empty tag classifies as unclassified.
func NormalizeHighway(tag string) string {
	if i := strings.IndexByte(tag, ';'); i >= 0 {
		tag = tag[:i]
	}
	tag = strings.TrimSpace(tag)
	tag = strings.TrimSuffix(tag, "_link")
	if tag == "" {
		return "unclassified"
	}
	return tag
}

// Classify returns the theme slot and stroke width for a raw highway tag.
func Classify(tag string) (theme.Slot, float64) {
	c, ok := roadClasses[NormalizeHighway(tag)]
	if !ok {
		c = defaultClass
	}
	return c.slot, c.width
}

// EdgeStyles resolves per-edge colors and widths for a road graph. The
// returned slices are parallel to g.Edges, so styling stays positional
// and an edge can never pick up its neighbor's color.
func EdgeStyles(g *osm.Graph, t theme.Theme) (colors []color.RGBA, widths []float64) {
	colors = make([]color.RGBA, len(g.Edges))
	widths = make([]float64, len(g.Edges))
	for i, e := range g.Edges {
		slot, w := Classify(e.Highway)
		colors[i] = t.Color(slot)
		widths[i] = w
	}
	return colors, widths
}
