package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cartopress/cartopress/pkg/geo"
	"github.com/cartopress/cartopress/pkg/pipeline"
	"github.com/cartopress/cartopress/pkg/render"
)

// generateCommand creates the generate command, the main entry point.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		lat, lng  float64
		bounds    string
		layersStr string
		noCache   bool
		redisAddr string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "generate [city] [country]",
		Short: "Render a city map poster to PNG",
		Long: `Render a city map poster to PNG.

The city is geocoded via Nominatim, map data is fetched from the
Overpass API, and the poster is composed with the selected theme,
paper size and layers. Responses from both services are cached
locally, so re-rendering a city with a different theme is fast.

Give --lat/--lng to skip geocoding, or --bounds to render an exact
window instead of a radius around the center.

Examples:
  cartopress generate "New York" USA
  cartopress generate Tokyo Japan --theme noir --paper-size 2:3
  cartopress generate Oslo Norway --bounds 59.95,59.88,10.80,10.68`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.City = args[0]
			}
			if len(args) > 1 {
				opts.Country = args[1]
			}
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
				opts.Point = &geo.Point{Lat: lat, Lng: lng}
			}

			// An unusable bounds string falls back to the radius query
			// when a city is available, loudly. With nothing to fall
			// back to it is fatal.
			if bounds != "" {
				if _, err := geo.ParseBBox(bounds); err != nil {
					if opts.City == "" && opts.Point == nil {
						return err
					}
					printWarning("ignoring bounds: %v", err)
				} else {
					opts.Bounds = bounds
				}
			}

			if layersStr != "" {
				layers, unknown := pipeline.ParseLayers(layersStr)
				for _, u := range unknown {
					printWarning("unknown layer %q skipped", u)
				}
				if len(layers) == 0 {
					printWarning("no usable layers in %q, using defaults", layersStr)
				} else {
					opts.Layers = layers
				}
			}

			return c.runGenerate(cmd, opts, noCache, redisAddr)
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "map center latitude (skips geocoding)")
	cmd.Flags().Float64Var(&lng, "lng", 0, "map center longitude (skips geocoding)")
	cmd.Flags().StringVar(&bounds, "bounds", "", "exact bounds: north,south,east,west")
	cmd.Flags().Float64Var(&opts.Dist, "dist", 0, fmt.Sprintf("fetch radius in meters (default %.0f)", pipeline.DefaultDist))
	cmd.Flags().StringVarP(&layersStr, "layers", "l", "", "map layers, comma-separated: roads,water,parks,subway")
	cmd.Flags().StringVarP(&opts.Theme, "theme", "t", "", fmt.Sprintf("color theme (default %s)", pipeline.DefaultTheme))
	cmd.Flags().StringVarP(&opts.PaperSize, "paper-size", "p", "", fmt.Sprintf("aspect ratio: %s (default %s)", strings.Join(render.PaperSizes(), ", "), render.DefaultPaper))
	cmd.Flags().IntVar(&opts.DPI, "dpi", 0, "raster density: 72, 150 or 300 (default 300)")
	cmd.Flags().Float64Var(&opts.Grain, "grain", 0, fmt.Sprintf("add film grain at the given intensity (%g with a bare --grain)", render.DefaultGrainIntensity))
	cmd.Flags().Lookup("grain").NoOptDefVal = fmt.Sprintf("%g", render.DefaultGrainIntensity)
	cmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", "posters", "output directory")
	cmd.Flags().StringVar(&opts.ThemesDir, "themes-dir", "themes", "directory with theme TOML files")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response caching")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "redis address for a shared response cache")

	return cmd
}

func (c *CLI) runGenerate(cmd *cobra.Command, opts pipeline.Options, noCache bool, redisAddr string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	runner, backend, err := c.newRunner(ctx, noCache, redisAddr)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer backend.Close()

	opts.Logger = logger

	label := opts.City
	if label == "" {
		label = "map"
	}
	spinner := newSpinner(ctx, fmt.Sprintf("Generating poster for %s...", label))
	spinner.Start()

	p := newProgress(logger)
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Poster generation failed")
		return err
	}
	spinner.Stop()
	p.done(fmt.Sprintf("Rendered %d road segments", result.Stats.EdgeCount))

	printSuccess("Poster saved")
	printFile(result.Path)
	printStats(
		fmt.Sprintf("%d edges", result.Stats.EdgeCount),
		fmt.Sprintf("theme %s", result.Theme.Theme.ID),
		fmt.Sprintf("center %s", render.FormatCoord(result.Center)),
	)
	for _, w := range result.Warnings {
		printWarning("%s", w)
	}
	return nil
}
