package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/cartopress/cartopress/internal/api"
	"github.com/cartopress/cartopress/pkg/gallery"
)

// serveCommand runs the HTTP poster service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		outputDir string
		themesDir string
		noCache   bool
		redisAddr string
		mongoURI  string
		mongoDB   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP poster service",
		Long: `Run the HTTP poster service.

Endpoints:
  GET  /api/themes               list available themes
  GET  /api/posters              list generated posters
  POST /api/generate             generate a poster
  GET  /api/posters/img/{name}   serve a poster PNG

The gallery is backed by the output directory; give --mongo-uri to
share gallery metadata between instances instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			runner, backend, err := c.newRunner(ctx, noCache, redisAddr)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer backend.Close()

			store, err := newStore(ctx, outputDir, mongoURI, mongoDB)
			if err != nil {
				return fmt.Errorf("initialize gallery: %w", err)
			}
			defer store.Close(context.Background())

			server := api.NewServer(runner, store, themesDir, outputDir, c.Logger)
			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				c.Logger.Info("serving", "addr", addr, "posters", outputDir)
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				c.Logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "posters", "poster output directory")
	cmd.Flags().StringVar(&themesDir, "themes-dir", "themes", "directory with theme TOML files")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response caching")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "redis address for a shared response cache")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "mongodb URI for shared gallery metadata")
	cmd.Flags().StringVar(&mongoDB, "mongo-db", appName, "mongodb database name")

	return cmd
}

// newStore picks the gallery backend: MongoDB when a URI is given,
// otherwise the output directory itself.
func newStore(ctx context.Context, outputDir, mongoURI, mongoDB string) (gallery.Store, error) {
	if mongoURI != "" {
		return gallery.NewMongoStore(ctx, mongoURI, mongoDB, "posters")
	}
	return gallery.NewDirStore(outputDir)
}
