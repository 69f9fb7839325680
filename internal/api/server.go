// Package api provides the HTTP API server and handlers for the ReelRank
// application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/reelrankapp/reelrank-server/internal/config"
	"github.com/reelrankapp/reelrank-server/internal/ratelimit"
	"github.com/reelrankapp/reelrank-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store        *store.Store
	services     *Services
	router       *chi.Mux
	api          huma.API
	logger       *slog.Logger
	writeLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, st *store.Store, services *Services, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		store:        st,
		services:     services,
		router:       router,
		logger:       logger,
		writeLimiter: ratelimit.New(cfg.Server.WriteRPS, cfg.Server.WriteBurst),
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig(cfg.Server.Name, "1.0.0")
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(router, humaConfig)

	RegisterErrorHandler()
	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(s.writeRateLimit)
}

// registerRoutes registers all huma operations.
func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerRankingRoutes()
	s.registerCollectionRoutes()
	s.registerAggregateRoutes()
}
