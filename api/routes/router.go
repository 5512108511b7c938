package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solsticehq/beacon-messaging/api/controllers"
	"github.com/solsticehq/beacon-messaging/api/middleware"
	"github.com/solsticehq/beacon-messaging/internal/engine"
	"github.com/solsticehq/beacon-messaging/pkg/config"
	"github.com/solsticehq/beacon-messaging/pkg/logger"
)

// RouterParams collects everything the HTTP surface needs.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Engine   engine.Service
	Gatherer prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis))
	})

	gatherer := params.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ServiceAuth(cfg.JWT, logg))

		r.Post("/events/trigger", controllers.TriggerEvent(params.Engine, logg))
		r.Get("/sequences/{sequenceId}/enrollments", controllers.ListEnrollments(params.Engine, logg))
	})

	return r
}
