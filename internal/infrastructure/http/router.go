package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/expensa/internal/application/access"
	"github.com/amirhosseinghanipour/expensa/internal/infrastructure/http/handlers"
	"github.com/amirhosseinghanipour/expensa/internal/infrastructure/http/middleware"
)

// APIVersion is sent as X-API-Version on /api responses.
const APIVersion = "1"

type RouterConfig struct {
	AuthHandler    *handlers.AuthHandler
	SessionHandler *handlers.SessionHandler
	HealthHandler  *handlers.HealthHandler
	Sessions       *middleware.SessionLoader
	Rules          access.Rules
	Log            zerolog.Logger
	Secure         func(http.Handler) http.Handler
	CORS           func(http.Handler) http.Handler
	IPRateLimit    func(http.Handler) http.Handler
	Metrics        bool // expose /metrics
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(loggerMiddleware(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}
	r.Use(cfg.Sessions.Handler)
	r.Use(middleware.Gate(cfg.Rules, cfg.Log))

	r.Route("/api", func(r chi.Router) {
		r.Use(chimid.SetHeader("X-API-Version", APIVersion))
		if cfg.HealthHandler != nil {
			r.Get("/health", cfg.HealthHandler.ServeHTTP)
		}
		r.Get("/session", cfg.SessionHandler.Session)
		r.Route("/auth", func(r chi.Router) {
			r.Use(chimid.AllowContentType("application/json"))
			if cfg.IPRateLimit != nil {
				r.Use(cfg.IPRateLimit)
			}
			r.Post("/signup", cfg.AuthHandler.Signup)
			r.Post("/login", cfg.AuthHandler.Login)
			r.Post("/logout", cfg.AuthHandler.Logout)
		})
	})
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/", cfg.SessionHandler.Root)
	r.Get("/login", handlers.Page("login"))
	r.Get("/signup", handlers.Page("signup"))
	r.Get("/dashboard", cfg.SessionHandler.Dashboard)
	r.Get("/expenses", handlers.Page("expenses"))
	r.Get("/expenses/*", handlers.Page("expenses"))

	return r
}

func loggerMiddleware(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimid.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("request_id", chimid.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Msg("request")
		})
	}
}
