package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kiesman99/heattile/internal/api"
	"github.com/kiesman99/heattile/internal/logging"
)

// NewRouter mounts the tile route and serves static files for everything else.
// Tile requests end in 200, 400 or 500 only, so no timeout middleware is used.
func NewRouter(s *Server, static http.FileSystem) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)

	// Map viewers are usually served from another origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		MaxAge:         300,
	}))

	files := http.FileServer(static)

	api.HandlerWithOptions(s, api.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: s.BindError,
		NotFoundHandler:  files,
	})

	r.NotFound(files.ServeHTTP)
	r.MethodNotAllowed(files.ServeHTTP)

	return r
}
