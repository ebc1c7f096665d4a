package api

import (
	"encoding/json"
	"net/http"

	"github.com/genstudio/genstudio/internal/api/handlers"
	"github.com/genstudio/genstudio/internal/api/middleware"
	"github.com/genstudio/genstudio/internal/config"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(cfg *config.Config, h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Telemetry)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health & info
	r.Get("/health", healthHandler)
	r.Get("/version", versionHandler(cfg))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/mode", func(r chi.Router) {
			r.Get("/", h.GetMode)
			r.Put("/", h.SetMode)
		})

		r.Route("/params", func(r chi.Router) {
			r.Get("/", h.GetParams)
			r.Put("/", h.SetParams)
		})

		r.Route("/runs", func(r chi.Router) {
			r.Post("/", h.StartRun)
			r.Get("/current", h.GetRun)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Post("/session", h.ResetChat)
			r.Get("/transcript", h.GetTranscript)
			r.Post("/messages", h.SendChat)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.ListHistory)
			r.Get("/{historyId}/replay", h.ReplayHistory)
		})

		r.Get("/prompts", h.ListPrompts)
		r.Get("/export", h.ExportSnippet)
		r.Get("/media/{mediaId}", h.GetMedia)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "genstudio-server",
	})
}

func versionHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"version": cfg.Version,
			"service": "genstudio-server",
		})
	}
}
