package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Deps are the services the API routes are served from. Redis and
// Gatherer are optional.
type Deps struct {
	Catalog  *catalog.Service
	DB       db.Pinger
	Redis    *redis.Client
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.API.CORSOrigins),
	)

	readiness := map[string]controllers.Pinger{"db": deps.DB}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	catalogPolicy := middleware.NewRateLimitPolicy("catalog", cfg.API.RateLimitWindow, cfg.API.RateLimitRequests)
	limiter := middleware.RateLimit(catalogPolicy, nil, logg)
	if deps.Redis != nil {
		limiter = middleware.RateLimit(catalogPolicy, deps.Redis, logg)
	}

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Use(limiter)

		r.Get("/products", controllers.CatalogProducts(deps.Catalog, logg))
		r.Post("/products/search", controllers.CatalogSearch(deps.Catalog, logg))
		r.Get("/products/{productID}", controllers.CatalogProduct(deps.Catalog, logg))
		r.Get("/products/{productID}/related", controllers.CatalogRelatedProducts(deps.Catalog, logg))

		r.Get("/categories", controllers.CatalogCategories(deps.Catalog))
		r.Get("/categories/{categoryID}", controllers.CatalogCategory(deps.Catalog, logg))
		r.Get("/facets", controllers.CatalogFacets(deps.Catalog, logg))
	})

	return r
}
