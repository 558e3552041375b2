package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/niolikon/taskboard/internal/middleware"
)

// Resource is a CRUD handler mounted under /api.
type Resource struct {
	// Path is the collection path, e.g. "/api/tasks".
	Path   string
	Routes func(r chi.Router)
}

// RouterConfig holds everything the HTTP surface is built from.
type RouterConfig struct {
	Logger   *slog.Logger
	Security middleware.SecurityConfig
	CORS     middleware.CORSConfig

	// Authenticate guards the resources; RateLimitUser runs after it.
	// RateLimitIP guards the credential endpoints. Nil entries are skipped.
	Authenticate  func(http.Handler) http.Handler
	RateLimitUser func(http.Handler) http.Handler
	RateLimitIP   func(http.Handler) http.Handler

	Health    *HealthHandler
	Metrics   *MetricsHandler
	Auth      *AuthHandler
	Resources []Resource
}

// NewRouter assembles the middleware chain and routes.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.Security.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.Security.MaxRequestBodySize))
	}

	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Healthz)
		r.Get("/readyz", cfg.Health.Readyz)
	}
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Metrics)
	}

	if cfg.Auth != nil {
		r.Route("/api/auth", func(r chi.Router) {
			use(r, cfg.RateLimitIP)
			cfg.Auth.Routes(r)
		})
	}

	for _, res := range cfg.Resources {
		r.Route(res.Path, func(r chi.Router) {
			use(r, cfg.Authenticate)
			use(r, cfg.RateLimitUser)
			res.Routes(r)
		})
	}

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)
	return r
}

func use(r chi.Router, mw func(http.Handler) http.Handler) {
	if mw != nil {
		r.Use(mw)
	}
}
