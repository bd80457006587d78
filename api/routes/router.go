package routes

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-gateway/api/controllers"
	webhookcontrollers "github.com/angelmondragon/storefront-gateway/api/controllers/webhooks"
	"github.com/angelmondragon/storefront-gateway/api/middleware"
	"github.com/angelmondragon/storefront-gateway/internal/routeguard"
	"github.com/angelmondragon/storefront-gateway/pkg/auth"
	"github.com/angelmondragon/storefront-gateway/pkg/config"
	"github.com/angelmondragon/storefront-gateway/pkg/db"
	"github.com/angelmondragon/storefront-gateway/pkg/logger"
	"github.com/angelmondragon/storefront-gateway/pkg/metrics"
	"github.com/angelmondragon/storefront-gateway/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	registry *prometheus.Registry,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionVerifier auth.Verifier,
	guard *routeguard.Guard,
	webhookService webhookcontrollers.ClerkWebhookService,
	webhookVerifier webhookcontrollers.SignatureVerifier,
	upstream *url.URL,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	var redisP db.Pinger
	if redisClient != nil {
		redisP = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}

	webhookMetrics := metrics.NewWebhookMetrics(registry)
	guardMetrics := metrics.NewGuardMetrics(registry)

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.Session(sessionVerifier, logg),
			middleware.RouteGuard(guard, guardMetrics, logg),
		)

		r.Post(cfg.Webhook.Path, webhookcontrollers.ClerkWebhook(webhookService, webhookVerifier, webhookMetrics, logg))
		r.Handle("/*", controllers.Upstream(upstream, logg))
	})

	return r
}
