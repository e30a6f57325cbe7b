// Package api exposes poster generation over HTTP. It reuses the same
// pipeline.Runner as the CLI, so a poster generated through either
// surface is pixel-identical.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cartopress/cartopress/pkg/errors"
	"github.com/cartopress/cartopress/pkg/gallery"
	"github.com/cartopress/cartopress/pkg/pipeline"
	"github.com/cartopress/cartopress/pkg/theme"
)

// generateTimeout bounds one poster run end to end, including the
// courtesy delays toward the upstream services.
const generateTimeout = 5 * time.Minute

// Server is the HTTP layer over the poster pipeline.
type Server struct {
	runner    *pipeline.Runner
	store     gallery.Store
	themesDir string
	outputDir string
	logger    *log.Logger
}

// NewServer wires the handler tree.
func NewServer(runner *pipeline.Runner, store gallery.Store, themesDir, outputDir string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		runner:    runner,
		store:     store,
		themesDir: themesDir,
		outputDir: outputDir,
		logger:    logger,
	}
}

// Router builds the chi handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Route("/api", func(r chi.Router) {
		r.Get("/themes", s.handleThemes)
		r.Get("/posters", s.handlePosters)
		r.Post("/generate", s.handleGenerate)
		r.Get("/posters/img/{filename}", s.handlePosterImage)
	})
	return r
}

// cors allows the web gallery to be served from a different origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleThemes lists the built-in default plus everything in the
// themes directory.
func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	d := theme.Default()
	themes := []theme.Info{{ID: d.ID, Name: d.Name, Description: d.Description}}
	for _, info := range theme.List(s.themesDir) {
		if info.ID == d.ID {
			themes[0] = info
			continue
		}
		themes = append(themes, info)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"themes": themes})
}

func (s *Server) handlePosters(w http.ResponseWriter, r *http.Request) {
	posters, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "listing posters"))
		return
	}
	if posters == nil {
		posters = []gallery.Poster{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"posters": posters})
}

// generateResponse is the POST /api/generate payload.
type generateResponse struct {
	Filename string   `json:"filename"`
	URL      string   `json:"url"`
	Theme    string   `json:"theme"`
	Warnings []string `json:"warnings,omitempty"`
	Edges    int      `json:"edge_count"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body: %v", err))
		return
	}
	opts.OutputDir = s.outputDir
	opts.ThemesDir = s.themesDir
	opts.Logger = s.logger

	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()

	result, err := s.runner.Execute(ctx, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	entry := gallery.Poster{
		Filename: result.Filename,
		City:     opts.City,
		Country:  opts.Country,
		Theme:    result.Theme.Theme.ID,
		Created:  time.Now(),
	}
	if err := s.store.Add(ctx, entry); err != nil {
		s.logger.Warn("gallery record failed", "filename", result.Filename, "error", err)
	}

	s.writeJSON(w, http.StatusOK, generateResponse{
		Filename: result.Filename,
		URL:      "/api/posters/img/" + result.Filename,
		Theme:    result.Theme.Theme.ID,
		Warnings: result.Warnings,
		Edges:    result.Stats.EdgeCount,
	})
}

// handlePosterImage serves a single PNG from the output directory.
// chi's URL param decoding plus the filename base check keep traversal
// out.
func (s *Server) handlePosterImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if name == "" || name != filepath.Base(name) || filepath.Ext(name) != ".png" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid poster filename"))
		return
	}
	path := filepath.Join(s.outputDir, name)
	if _, err := os.Stat(path); err != nil {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "poster %s not found", name))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}

// writeError maps error codes to HTTP statuses and emits a stable
// JSON error shape.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidBounds,
		errors.ErrCodeInvalidPaperSize, errors.ErrCodeInvalidDPI,
		errors.ErrCodeInvalidTheme:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeLocationNotFound,
		errors.ErrCodeThemeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeRateLimited:
		status = http.StatusTooManyRequests
	case errors.ErrCodeNetwork, errors.ErrCodeFetchFailed:
		status = http.StatusBadGateway
	}
	s.logger.Error("request failed", "code", errors.GetCode(err), "error", err)
	s.writeJSON(w, status, map[string]any{
		"error": errors.UserMessage(err),
		"code":  string(errors.GetCode(err)),
	})
}
