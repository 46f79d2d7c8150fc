// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"trendscout/internal/adapter/cache"
	"trendscout/internal/config"
	"trendscout/internal/server/handlers"
	"trendscout/internal/service/analysis"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.ServerConfig,
	analysisService *analysis.Service,
	cacheAdapter *cache.RedisCache,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(2 * time.Minute))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	analysisHandler := handlers.NewAnalysisHandler(analysisService)
	cacheHandler := handlers.NewCacheHandler(cacheAdapter)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Analysis API
			r.Post("/analyze", analysisHandler.Analyze)
			r.Get("/analysis/{username}", analysisHandler.GetAnalysis)
			r.Get("/history/{username}", analysisHandler.GetHistory)

			// Creator data API
			r.Get("/profile/{username}", analysisHandler.GetProfile)
			r.Get("/posts/{username}", analysisHandler.GetPosts)
			r.Get("/hashtag/{tag}/posts", analysisHandler.SearchHashtag)

			// Cache administration
			r.Route("/cache", func(r chi.Router) {
				r.Get("/stats", cacheHandler.Stats)
				r.Delete("/", cacheHandler.Clear)
			})
		})
	})

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
