// Package pipeline runs the complete poster generation flow: resolve a
// location, fetch map layers, compose, crop, overlay and post-process.
//
// The package is the single implementation shared by the CLI and the
// HTTP API, so both entry points behave identically. Create a Runner
// and execute:
//
//	runner := pipeline.NewRunner(geocoder, fetcher, logger)
//	opts := pipeline.Options{City: "Oslo", Country: "Norway"}
//	result, err := runner.Execute(ctx, opts)
package pipeline

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cartopress/cartopress/pkg/errors"
	"github.com/cartopress/cartopress/pkg/geo"
	"github.com/cartopress/cartopress/pkg/osm"
	"github.com/cartopress/cartopress/pkg/render"
)

// Defaults shared by the CLI and the API.
const (
	// DefaultDist is the fetch radius in meters around the city center.
	DefaultDist = 29000.0

	// DefaultTheme is the built-in grayscale theme.
	DefaultTheme = "feature_based"
)

// DefaultLayers are the map layers drawn when none are requested.
var DefaultLayers = []string{osm.LayerRoads, osm.LayerWater, osm.LayerParks}

// Options configures one poster run. The struct serializes to JSON for
// API requests.
type Options struct {
	// Location. City and Country drive geocoding and the typography
	// block. Point or Bounds, when set, skip geocoding entirely.
	City    string     `json:"city"`
	Country string     `json:"country"`
	Point   *geo.Point `json:"point,omitempty"`
	Bounds  string     `json:"bounds,omitempty"` // "north,south,east,west"

	// Map content.
	Dist   float64  `json:"dist,omitempty"`
	Layers []string `json:"layers,omitempty"`
	Theme  string   `json:"theme,omitempty"`

	// Output. Grain is the film-grain intensity; zero leaves the poster
	// clean.
	PaperSize string  `json:"paper_size,omitempty"`
	DPI       int     `json:"dpi,omitempty"`
	Grain     float64 `json:"grain,omitempty"`
	OutputDir string  `json:"-"`

	// ThemesDir holds user theme files; empty means built-ins only.
	ThemesDir string `json:"-"`

	// Runtime options (not serialized).
	Logger *log.Logger `json:"-"`

	// Resolved during validation.
	bounds        *geo.BBox
	paperName     string
	paperDims     render.Dimensions
	paperFallback bool

	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// Idempotent, so entry points can call it defensively before Execute.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.City == "" && o.Point == nil && o.Bounds == "" {
		return errors.New(errors.ErrCodeInvalidInput, "city, point or bounds is required")
	}
	if o.Bounds != "" {
		b, err := geo.ParseBBox(o.Bounds)
		if err != nil {
			return err
		}
		o.bounds = &b
	}
	if o.Dist == 0 {
		o.Dist = DefaultDist
	}
	if o.Dist < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "dist must be positive, got %g", o.Dist)
	}
	// nil means "not specified"; an explicit empty list stays empty.
	if o.Layers == nil {
		o.Layers = append([]string(nil), DefaultLayers...)
	}
	if o.Theme == "" {
		o.Theme = DefaultTheme
	}

	name, dims, known := render.LookupPaper(o.PaperSize)
	o.paperName, o.paperDims = name, dims
	o.paperFallback = !known

	dpi, err := render.ValidateDPI(o.DPI)
	if err != nil {
		return err
	}
	o.DPI = dpi

	if o.Grain < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "grain must not be negative, got %g", o.Grain)
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// ExactBounds reports whether the run uses caller-supplied bounds, which
// switches cropping to exact mode.
func (o *Options) ExactBounds() bool { return o.bounds != nil }

// ParseLayers splits a comma-separated layer list, dropping duplicates
// and filtering out anything unknown. Unknown names are returned for
// the caller to warn about instead of silently vanishing. The layers
// slice is never nil, so callers can distinguish "nothing usable" from
// "nothing requested".
func ParseLayers(s string) (layers, unknown []string) {
	layers = []string{}
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(strings.ToLower(part))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if knownLayer(name) {
			layers = append(layers, name)
		} else {
			unknown = append(unknown, name)
		}
	}
	return layers, unknown
}

func knownLayer(name string) bool {
	for _, l := range osm.KnownLayers {
		if l == name {
			return true
		}
	}
	return false
}
