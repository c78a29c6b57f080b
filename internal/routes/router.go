package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"skylark/opscommand/internal/api"
	"skylark/opscommand/internal/constants"
	"skylark/opscommand/internal/logging"
	"skylark/opscommand/internal/middleware"
)

// RegisterRoutes builds the HTTP router. gatherer backs /metrics and may be nil.
func RegisterRoutes(deps *api.Dependencies, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.InFlightMiddleware(deps.Metrics))
	r.Use(middleware.MetricsMiddleware(deps.Metrics))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthCheck", api.HealthCheckHandler(deps))
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	limiter := middleware.NewRateLimiter(deps.Config.Limits.RequestsPerSecond, deps.Config.Limits.Burst)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(limiter.Middleware)
		v1.Use(middleware.AuthMiddleware(deps.Tokens, deps.Config.Auth.Disabled))

		v1.Post("/sessions", api.CreateSessionHandler(deps))
		v1.Route("/sessions/{sessionID}", func(s chi.Router) {
			s.Post("/messages", api.PostMessageHandler(deps))
			s.Get("/messages", api.GetHistoryHandler(deps))
			s.Delete("/", api.DeleteSessionHandler(deps))
		})

		v1.Get("/pilots", api.GetRosterHandler(deps))
		v1.Get("/pilots/{pilotID}/conflicts", api.CheckConflictHandler(deps))

		v1.Group(func(writer chi.Router) {
			writer.Use(middleware.RequireRole(constants.RoleOperator, constants.RoleAdmin))
			writer.Patch("/pilots/{pilotID}/status", api.UpdateStatusHandler(deps))
		})

		v1.Group(func(admin chi.Router) {
			admin.Use(middleware.IsAdminMiddleware)
			admin.Get("/audit", api.ListAuditHandler(deps))
			admin.Get("/audit/summary", api.AuditSummaryHandler(deps))
		})
	})

	logging.Info("Router initialized",
		"auth_disabled", deps.Config.Auth.Disabled,
		"rate_limit_rps", deps.Config.Limits.RequestsPerSecond,
	)
	return r
}
