package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/podforge/podforge-api/internal/api"
	apiMiddleware "github.com/podforge/podforge-api/internal/api/middleware"
	"github.com/podforge/podforge-api/internal/platform/telemetry"
)

// setupRouter creates and configures the application router with all routes
// and middleware. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	podcastHandler := api.NewPodcastHandler(app.podcastService)

	r.Route("/api", func(r chi.Router) {
		r.Post("/podcasts", podcastHandler.CreatePodcast)
		r.Get("/podcasts/{id}", podcastHandler.GetPodcast)
		r.Delete("/podcasts/{id}", podcastHandler.CancelPodcast)
		r.Get("/capacity", podcastHandler.GetCapacity)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	return r
}
