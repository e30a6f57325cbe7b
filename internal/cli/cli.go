// Package cli implements the cartopress command-line interface.
//
// The main commands are:
//   - generate: Render a city map poster to PNG
//   - themes: List available color themes
//   - serve: Run the HTTP poster service
//
// All commands support --verbose (-v) for debug-level logging. Loggers
// are passed through context.Context so every command sees the same
// structured output.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cartopress/cartopress/pkg/buildinfo"
	"github.com/cartopress/cartopress/pkg/cache"
	"github.com/cartopress/cartopress/pkg/geocode"
	"github.com/cartopress/cartopress/pkg/osm"
	"github.com/cartopress/cartopress/pkg/pipeline"
)

// appName is used for the binary, cache directory and display.
const appName = "cartopress"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Cartopress renders minimalist city map posters",
		Long:         `Cartopress fetches OpenStreetMap data for a city and renders it as a themed, print-ready poster: layered map art, gradient overlays, and classic travel-poster typography.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.themesCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner wired to the live services.
// redisAddr switches the response cache from the local file cache to a
// shared Redis instance.
func (c *CLI) newRunner(ctx context.Context, noCache bool, redisAddr string) (*pipeline.Runner, cache.Cache, error) {
	backend, err := newCache(ctx, noCache, redisAddr)
	if err != nil {
		return nil, nil, err
	}
	geocoder := geocode.NewClient(backend)
	fetcher := osm.NewClient(backend)
	return pipeline.NewRunner(geocoder, fetcher, c.Logger), backend, nil
}

func newCache(ctx context.Context, noCache bool, redisAddr string) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisAddr != "" {
		return cache.NewRedisCache(ctx, redisAddr)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using the XDG convention
// (~/.cache/cartopress/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
