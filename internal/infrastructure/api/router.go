package api

import (
	"net/http"

	"archie-shopify-session-layer/internal/infrastructure/callersession"
	"archie-shopify-session-layer/internal/infrastructure/metrics"
	"archie-shopify-session-layer/internal/infrastructure/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the pieces the router chains together
type RouterConfig struct {
	Handlers       *Handlers
	Sessions       *callersession.Manager
	Activator      *middleware.Activator
	Guards         *middleware.Guards
	AllowedOrigins []string
}

// NewRouter builds the HTTP router. Caller-facing routes run inside the caller session and the
// session activator; webhooks, health and metrics do not.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Public routes
	r.Get("/health", cfg.Handlers.Health)
	r.Handle("/metrics", metrics.Handler())
	r.Post("/webhooks/shopify", cfg.Handlers.Webhook)

	// Caller routes
	r.Group(func(r chi.Router) {
		r.Use(cfg.Sessions.LoadAndSave)
		r.Use(cfg.Activator.Handler)

		r.Get("/auth/install", cfg.Handlers.Install)
		r.Get("/auth/callback", cfg.Handlers.Callback)
		r.Get("/auth/logout", cfg.Handlers.Logout)

		r.Route("/admin", func(r chi.Router) {
			r.Use(cfg.Guards.RequireLogin)
			r.Use(cfg.Guards.RequireMatchingShop)

			r.Get("/", cfg.Handlers.Admin)
			r.Get("/shop", cfg.Handlers.AdminShop)
		})
	})

	return r
}
