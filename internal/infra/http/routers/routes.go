package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"cwbridge/internal/infra/http/handlers"
	"cwbridge/internal/infra/http/middleware"
	"cwbridge/platform/config"
	"cwbridge/platform/container"
	"cwbridge/platform/logger"
)

func SetupRoutes(cfg *config.Config, log *logger.Logger, c *container.Container) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.HTTPLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
	}))
	r.Use(middleware.APIKeyAuth(cfg, log))

	healthHandler := handlers.NewHealthHandler(log, c.GetDatabase())
	syncHandler := handlers.NewSyncHandler(log, c.GetSyncUseCase())
	adminHandler := handlers.NewAdminHandler(log, c.GetSetupUseCase(), cfg)

	r.Get("/health", healthHandler.GetHealth)

	// Webhook endpoint, deliberately unauthenticated.
	r.Post("/sync", syncHandler.HandleWebhook)

	r.Post("/resync", syncHandler.Resync)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/settings", adminHandler.GetSettings)
		r.Put("/settings", adminHandler.UpdateSettings)
		r.Get("/inboxes", adminHandler.ListInboxes)
		r.Put("/inboxes/sources", adminHandler.UpdateInboxSources)
		r.Post("/setup", adminHandler.RunSetup)
	})

	return r
}
