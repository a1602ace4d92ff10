package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/recordhub/server/internal/http/handlers"
	"github.com/recordhub/server/internal/metrics"
	"github.com/recordhub/server/internal/middleware"
	"github.com/recordhub/server/internal/store"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	userHandler *handlers.UserHandler,
	tokenHandler *handlers.TokenHandler,
	st *store.Store,
	collector *metrics.Collector,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(collector.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "token"},
		MaxAge:         300,
	}))

	// Unknown paths and unsupported methods get JSON bodies like every
	// other response.
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondWithError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", collector.Handler())

	// Token issuance is the credential-stuffing surface; cap attempts per IP.
	tokenLimiter := middleware.NewRateLimiter(10*time.Minute, 20)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.HandleCreate)

		// Reads and mutations require a valid token for the target phone.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireToken(st))
			r.Get("/", userHandler.HandleRead)
			r.Put("/", userHandler.HandleUpdate)
			r.Delete("/", userHandler.HandleDelete)
		})
	})

	r.Route("/tokens", func(r chi.Router) {
		r.With(middleware.RateLimit(tokenLimiter)).Post("/", tokenHandler.HandleCreate)
		r.Get("/", tokenHandler.HandleRead)
		r.Put("/", tokenHandler.HandleUpdate)
		r.Delete("/", tokenHandler.HandleDelete)
	})

	return r
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
