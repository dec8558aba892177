package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yndnr/rostervault/internal/server/httpserver/handler"
	"github.com/yndnr/rostervault/internal/telemetry/logger"
	"github.com/yndnr/rostervault/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Catalog lists remote backups.
	Catalog handler.Catalog

	// Runner triggers and reports backup runs.
	Runner handler.Runner

	// Status reports the restore outcome; nil while restore is running.
	Status handler.StatusFunc

	// Metrics serves /metrics and records request metrics.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger logger.Logger

	// AdminAllowList is the IP/CIDR allowlist for the admin API (empty = no restriction).
	AdminAllowList []string
}

// NewRouter creates the chi router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	h := handler.New(cfg.Catalog, cfg.Runner, cfg.Status)

	r := chi.NewRouter()
	r.Use(
		RequestID(log),
		Recover(),
		AccessLog(cfg.Metrics),
	)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/admin/v1", func(r chi.Router) {
		r.Use(NetworkACL(cfg.AdminAllowList, log))

		r.Get("/status", h.Status)
		r.Get("/backups", h.ListBackups)
		r.Post("/backups", h.CreateBackup)
		r.Get("/backups/latest", h.LatestBackup)
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
