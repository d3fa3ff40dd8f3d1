package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phrazzld/policyhub-api/internal/api"
	apiMiddleware "github.com/phrazzld/policyhub-api/internal/api/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter creates the router with its middleware and every route.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(cors.Handler(corsOptions(app.config.Server.AllowedOrigins)))

	uploadHandler := api.NewUploadHandler(
		app.ingester,
		app.config.Ingest.UploadDir,
		app.config.Ingest.MaxUploadBytes,
		app.logger,
	)
	scheduleHandler := api.NewScheduleHandler(app.scheduler, app.logger)

	var db api.Pinger
	if app.db != nil {
		db = app.db
	}
	healthHandler := api.NewHealthHandler(db, app.scheduler, app.ingester, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/upload", func(r chi.Router) {
			r.Post("/csv", uploadHandler.UploadCSV)
			r.Post("/xlsx", uploadHandler.UploadXLSX)
			r.Get("/status", uploadHandler.Status)
		})

		r.Post("/schedule-message", scheduleHandler.ScheduleMessage)
		r.Get("/scheduled-messages", scheduleHandler.ListScheduledMessages)
		r.Delete("/scheduled-messages/{id}", scheduleHandler.CancelScheduledMessage)
		r.Get("/scheduler/stats", scheduleHandler.Stats)
	})

	r.Get("/health", healthHandler.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// corsOptions allows any origin when none are configured.
func corsOptions(allowed []string) cors.Options {
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Trace-ID", "Retry-After"},
		MaxAge:         300,
	}
}
