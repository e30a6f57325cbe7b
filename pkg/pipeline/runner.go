package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/cartopress/cartopress/pkg/errors"
	"github.com/cartopress/cartopress/pkg/fonts"
	"github.com/cartopress/cartopress/pkg/geo"
	"github.com/cartopress/cartopress/pkg/geocode"
	"github.com/cartopress/cartopress/pkg/osm"
	"github.com/cartopress/cartopress/pkg/render"
	"github.com/cartopress/cartopress/pkg/theme"
)

// Courtesy pauses before fetches against the shared Overpass service.
// Geocoding carries its own pause in the client. Vars so tests can
// shorten them.
var (
	roadsDelay = 500 * time.Millisecond
	layerDelay = 300 * time.Millisecond
)

// Geocoder resolves place names. Satisfied by *geocode.Client.
type Geocoder interface {
	Geocode(ctx context.Context, city, country string) (*geocode.Result, error)
}

// Fetcher pulls map data for a bounding box. Satisfied by *osm.Client.
type Fetcher interface {
	FetchRoads(ctx context.Context, b geo.BBox) (*osm.Graph, error)
	FetchLayer(ctx context.Context, b geo.BBox, layer string) (*osm.FeatureCollection, error)
}

// Runner executes poster runs. It is stateless apart from its
// collaborators, so one Runner serves concurrent requests.
type Runner struct {
	Geocoder Geocoder
	Fetcher  Fetcher
	Fonts    *fonts.Set
	Logger   *log.Logger

	fontsOnce sync.Once
}

// NewRunner wires a runner. A nil logger discards output; fonts load
// lazily on first use when nil.
func NewRunner(g Geocoder, f Fetcher, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Geocoder: g, Fetcher: f, Logger: logger}
}

// Result is the outcome of one poster run.
type Result struct {
	// Image is the finished poster.
	Image image.Image

	// Path is the saved PNG, empty when no output dir was requested.
	Path     string
	Filename string

	// Theme records which theme actually rendered, including fallback.
	Theme theme.Resolution

	// Center is the map center shown in the coordinates line.
	Center geo.Point

	// View is the final geographic window after cropping.
	View render.View

	// Warnings lists recoverable problems (skipped layers, fallbacks).
	Warnings []string

	Stats Stats
}

// Stats holds run timing and content counts.
type Stats struct {
	GeocodeTime time.Duration
	FetchTime   time.Duration
	RenderTime  time.Duration
	EdgeCount   int
	Features    map[string]int
}

// Execute runs the full flow: resolve location, fetch layers, compose,
// crop, overlay, post-process and optionally save.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := r.logger(&opts)

	result := &Result{Stats: Stats{Features: make(map[string]int)}}

	if opts.paperFallback {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("unknown paper size %q, using %s", opts.PaperSize, opts.paperName))
		logger.Warn("paper size fallback", "requested", opts.PaperSize, "using", opts.paperName)
	}

	query, err := r.resolveQuery(ctx, &opts, result)
	if err != nil {
		return nil, err
	}
	fetchBox := query.BBox()
	result.Center = fetchBox.Center()

	logger.Info("fetching map data",
		"bbox", fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", fetchBox.North, fetchBox.South, fetchBox.East, fetchBox.West),
		"layers", opts.Layers)

	fetchStart := time.Now()
	roads, features, err := r.fetchLayers(ctx, fetchBox, opts.Layers, result, logger)
	if err != nil {
		return nil, err
	}
	result.Stats.FetchTime = time.Since(fetchStart)
	if roads != nil {
		result.Stats.EdgeCount = len(roads.Edges)
	}

	renderStart := time.Now()
	res := theme.Load(opts.ThemesDir, opts.Theme)
	result.Theme = res
	if res.Fallback {
		result.Warnings = append(result.Warnings, res.Reason)
		logger.Warn("theme fallback", "requested", opts.Theme, "reason", res.Reason)
	}

	view := r.finalView(roads, features, fetchBox, opts)
	result.View = view

	img := r.compose(res.Theme, view, roads, features, opts, result, logger)
	result.Stats.RenderTime = time.Since(renderStart)
	result.Image = img

	if opts.OutputDir != "" {
		path, name, err := r.save(img, opts)
		if err != nil {
			return nil, err
		}
		result.Path, result.Filename = path, name
		logger.Info("poster saved", "path", path,
			"edges", result.Stats.EdgeCount,
			"render", result.Stats.RenderTime.Round(time.Millisecond))
	}
	return result, nil
}

// resolveQuery turns the location options into a geographic query.
// Priority: explicit bounds, then explicit point, then geocoding.
func (r *Runner) resolveQuery(ctx context.Context, opts *Options, result *Result) (geo.Query, error) {
	if opts.bounds != nil {
		return geo.ExactQuery(*opts.bounds), nil
	}
	if opts.Point != nil {
		return geo.RadiusQuery(*opts.Point, opts.Dist), nil
	}

	start := time.Now()
	loc, err := r.Geocoder.Geocode(ctx, opts.City, opts.Country)
	result.Stats.GeocodeTime = time.Since(start)
	if err != nil {
		return geo.Query{}, err
	}
	r.logger(opts).Info("location resolved",
		"place", loc.DisplayName,
		"lat", fmt.Sprintf("%.4f", loc.Point.Lat),
		"lng", fmt.Sprintf("%.4f", loc.Point.Lng))
	return geo.RadiusQuery(loc.Point, opts.Dist), nil
}

// fetchLayers pulls the road graph and every requested optional layer.
// A road failure aborts the run; an optional layer failure is logged,
// recorded as a warning, and the layer is skipped.
func (r *Runner) fetchLayers(ctx context.Context, box geo.BBox, layers []string, result *Result, logger *log.Logger) (*osm.Graph, map[string]*osm.FeatureCollection, error) {
	var roads *osm.Graph
	features := make(map[string]*osm.FeatureCollection)

	for _, layer := range layers {
		delay := layerDelay
		if layer == osm.LayerRoads {
			delay = roadsDelay
		}
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(delay):
		}

		if layer == osm.LayerRoads {
			g, err := r.Fetcher.FetchRoads(ctx, box)
			if err != nil {
				return nil, nil, errors.Wrap(errors.ErrCodeFetchFailed, err, "fetching road network")
			}
			roads = g
			logger.Debug("roads fetched", "edges", len(g.Edges))
			continue
		}

		fc, err := r.Fetcher.FetchLayer(ctx, box, layer)
		if err != nil {
			msg := fmt.Sprintf("layer %s unavailable: %v", layer, err)
			result.Warnings = append(result.Warnings, msg)
			logger.Warn("layer skipped", "layer", layer, "error", err)
			continue
		}
		if fc == nil {
			fc = &osm.FeatureCollection{}
		}
		features[layer] = fc
		result.Stats.Features[layer] = len(fc.Features)
		logger.Debug("layer fetched", "layer", layer, "features", len(fc.Features))
	}
	return roads, features, nil
}

// finalView derives the data extent and crops it to the paper ratio.
// With exact bounds the caller's window is the extent; otherwise the
// union of fetched geometry is used, falling back to the query box when
// a fetch returned nothing at all.
func (r *Runner) finalView(roads *osm.Graph, features map[string]*osm.FeatureCollection, fetchBox geo.BBox, opts Options) render.View {
	var box geo.BBox
	if opts.bounds != nil {
		box = *opts.bounds
	} else {
		box = dataExtent(roads, features, fetchBox)
	}
	return render.Crop(render.ViewFromBBox(box), opts.paperDims.Ratio(), opts.ExactBounds())
}

// dataExtent unions all fetched geometry.
func dataExtent(roads *osm.Graph, features map[string]*osm.FeatureCollection, fallback geo.BBox) geo.BBox {
	var box geo.BBox
	seen := false
	grow := func(p geo.Point) {
		if !seen {
			box = geo.BBox{North: p.Lat, South: p.Lat, East: p.Lng, West: p.Lng}
			seen = true
			return
		}
		box.North = max(box.North, p.Lat)
		box.South = min(box.South, p.Lat)
		box.East = max(box.East, p.Lng)
		box.West = min(box.West, p.Lng)
	}
	if roads != nil {
		for _, e := range roads.Edges {
			for _, p := range e.Points {
				grow(p)
			}
		}
	}
	for _, fc := range features {
		for _, f := range fc.Features {
			for _, p := range f.Points {
				grow(p)
			}
		}
	}
	if !seen || box.Width() == 0 || box.Height() == 0 {
		return fallback
	}
	return box
}

// compose draws layers back to front, overlays gradients and text, and
// applies post-processing.
func (r *Runner) compose(t theme.Theme, view render.View, roads *osm.Graph, features map[string]*osm.FeatureCollection, opts Options, result *Result, logger *log.Logger) image.Image {
	c := render.NewCompositor(t, opts.paperDims, opts.DPI, view)

	c.DrawWater(features[osm.LayerWater])
	c.DrawParks(features[osm.LayerParks])
	c.DrawTransit(features[osm.LayerSubway])
	c.DrawRoads(roads)

	c.DrawGradients(opts.paperName)

	// One Runner serves concurrent requests, so the lazy font load must
	// happen exactly once.
	r.fontsOnce.Do(func() {
		if r.Fonts == nil {
			r.Fonts = fonts.Load()
		}
	})
	fs := r.Fonts
	if fb, reason := fs.Fallback(); fb {
		result.Warnings = append(result.Warnings, "font fallback: "+reason)
		logger.Warn("font fallback", "reason", reason)
	}
	c.DrawOverlay(render.TextInfo{
		City:    opts.City,
		Country: opts.Country,
		Point:   result.Center,
	}, fs)

	img := c.Image()
	if opts.paperName == render.LockscreenPaper {
		img = render.BlurFade(img)
	}
	if opts.Grain > 0 {
		img = render.Grain(img, opts.Grain)
	}
	return img
}

// save writes the poster PNG with a collision-proof filename:
// {city}_{theme}_{timestamp}_{shortid}.png.
func (r *Runner) save(img image.Image, opts Options) (path, name string, err error) {
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return "", "", errors.Wrap(errors.ErrCodeRender, err, "creating output dir %s", opts.OutputDir)
	}
	name = fmt.Sprintf("%s_%s_%s_%s.png",
		slugify(opts.City),
		slugify(opts.Theme),
		time.Now().Format("20060102_150405"),
		uuid.NewString()[:8])
	path = filepath.Join(opts.OutputDir, name)
	if err := imaging.Save(img, path); err != nil {
		return "", "", errors.Wrap(errors.ErrCodeRender, err, "saving poster to %s", path)
	}
	return path, name, nil
}

// slugify lowercases a name and keeps only filename-safe runes.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "poster"
	}
	return b.String()
}

func (r *Runner) logger(opts *Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}
