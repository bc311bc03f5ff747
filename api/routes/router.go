package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sitestock/sitestock-backend/api/controllers"
	"github.com/sitestock/sitestock-backend/api/middleware"
	"github.com/sitestock/sitestock-backend/internal/areas"
	"github.com/sitestock/sitestock-backend/internal/media"
	"github.com/sitestock/sitestock-backend/internal/movements"
	"github.com/sitestock/sitestock-backend/pkg/config"
	"github.com/sitestock/sitestock-backend/pkg/logger"
	"github.com/sitestock/sitestock-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry *prometheus.Registry

	MovementService movements.Service
	AreaService     areas.Service
	MediaService    media.Service

	// RateLimiter backs the submission throttle. Nil disables it.
	RateLimiter *redis.Client

	// Pingers feed the readiness probe, keyed by dependency name.
	Pingers map[string]controllers.Pinger
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(deps.Config.App.CORSOrigins),
		middleware.ClientIdentity(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.MovementService, deps.Pingers))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", controllers.State(deps.MovementService, deps.Logger))

		r.Route("/movements", func(r chi.Router) {
			r.Get("/", controllers.ListMovements(deps.MovementService, deps.Logger))
			submit := r.With()
			if deps.RateLimiter != nil {
				policy := middleware.NewSubmitRatePolicy(
					deps.Config.Movements.SubmitRateLimit,
					deps.Config.Movements.SubmitRateWindow,
				)
				submit = r.With(middleware.SubmitRateLimit(policy, deps.RateLimiter, deps.Logger))
			}
			submit.Post("/", controllers.SubmitMovement(deps.MovementService, deps.Logger))
		})

		r.Route("/areas", func(r chi.Router) {
			r.Get("/", controllers.ListAreas(deps.AreaService, deps.Logger))
			r.Post("/", controllers.CreateArea(deps.AreaService, deps.Logger))
		})

		r.Post("/media", controllers.UploadPhoto(deps.MediaService, deps.Logger, deps.Config.Media))
		r.Delete("/media", controllers.DeletePhoto(deps.MediaService, deps.Logger))

		r.Route("/reports", func(r chi.Router) {
			r.Get("/consumption", controllers.ConsumptionReport(deps.MovementService, deps.AreaService, deps.Logger))
			r.Get("/entries", controllers.EntriesReport(deps.MovementService, deps.Logger))
		})
	})

	return r
}
