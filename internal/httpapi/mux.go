package httpapi

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"climate-server/internal/config"
)

// NewRouter returns the root router with the ambient middleware, /healthz and
// /metrics. Feature modules register their own routes on it.
func NewRouter(db *sql.DB) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(requestMetrics)
	r.Use(middleware.Recoverer)

	registerHealthcheck(r, db)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// APIMiddleware builds the CORS and per-IP rate limiting chain for the JSON API.
func APIMiddleware(cfg config.Config) []func(http.Handler) http.Handler {
	mw := []func(http.Handler) http.Handler{
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
			ExposedHeaders: []string{requestIDHeader},
			MaxAge:         300,
		}),
	}
	if cfg.RateLimitPerMin > 0 {
		mw = append(mw, httprate.LimitByIP(cfg.RateLimitPerMin, time.Minute))
	}
	return mw
}
