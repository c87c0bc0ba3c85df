// Package api provides the HTTP API server and handlers for the BoxOffice presale surface.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/boxofficeapp/boxoffice-server/internal/config"
	"github.com/boxofficeapp/boxoffice-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    *store.Store
	services *Services
	router   *chi.Mux
	api      huma.API
	config   *config.Config
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, st *store.Store, services *Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Auth is resolved once per request; handlers decide whether a
	// missing user is an error.
	router.Use(authMiddleware(services.Session))

	// Login submissions are throttled per client IP before they reach
	// the credential path.
	router.Use(loginRateLimit(cfg.Presale, logger))

	humaConfig := huma.DefaultConfig("BoxOffice Presale API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	humaAPI := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:    st,
		services: services,
		router:   router,
		api:      humaAPI,
		config:   cfg,
		logger:   logger,
	}

	s.registerHealthRoutes()
	s.registerShopRoutes()
	s.registerLoginRoutes()
	s.registerSearchRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
