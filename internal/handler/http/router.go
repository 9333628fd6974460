// Package http exposes the storefront API over HTTP.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/electroshop/internal/cart"
	"github.com/utafrali/electroshop/internal/service"
	"github.com/utafrali/electroshop/pkg/health"
	"github.com/utafrali/electroshop/pkg/middleware"
)

// RouterConfig carries the collaborators and policies of the router.
type RouterConfig struct {
	ServiceName string
	Catalog     *service.CatalogService
	Sessions    *cart.Sessions
	Health      *health.Handler
	Logger      *slog.Logger
	CORS        middleware.CORSConfig
	// RateLimit guards the API routes. Nil disables it.
	RateLimit func(http.Handler) http.Handler
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(cfg.Logger))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.Liveness)
	r.Get("/health/ready", cfg.Health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	productHandler := NewProductHandler(cfg.Catalog, cfg.Logger)
	cartHandler := NewCartHandler(cfg.Sessions, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.CORS))
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}
		r.Use(ContentTypeJSON)

		r.Get("/products", productHandler.ListProducts)
		r.Post("/products", productHandler.CreateProduct)
		r.Get("/products/{id}", productHandler.GetProduct)
		r.Put("/products/{id}", productHandler.UpdateProduct)
		r.Delete("/products/{id}", productHandler.DeleteProduct)
		r.Get("/categories", productHandler.ListCategories)

		r.Route("/cart", func(r chi.Router) {
			r.Use(SessionFromHeader)

			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)

			r.Post("/items", cartHandler.AddItem)
			r.Post("/items/{id}/increase", cartHandler.IncreaseItem)
			r.Post("/items/{id}/decrease", cartHandler.DecreaseItem)
			r.Delete("/items/{id}", cartHandler.RemoveItem)

			r.Post("/session/end", cartHandler.EndSession)
		})
	})

	return r
}
