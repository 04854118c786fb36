package rest

import (
	"log/slog"
	"net/http"

	"github.com/txshield/txshield/pkg/auth"
)

// RouterConfig collects everything the HTTP surface is built from.
type RouterConfig struct {
	Logger       *slog.Logger
	JWT          *auth.JWTService
	Limiter      *RateLimiter
	Transactions *TransactionHandler
	Health       *HealthHandler

	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// publicPaths bypass authentication.
var publicPaths = []string{"/healthz", "/readyz", "/metrics"}

// NewRouter builds the HTTP handler: logging, then rate limiting, then JWT auth.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	cfg.Transactions.RegisterRoutes(mux)
	cfg.Health.RegisterRoutes(mux)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	mws := []func(http.Handler) http.Handler{LoggingMiddleware(cfg.Logger)}
	if cfg.Limiter != nil {
		mws = append(mws, RateLimitMiddleware(cfg.Limiter))
	}
	mws = append(mws, AuthMiddleware(cfg.JWT, publicPaths))

	return Chain(mux, mws...)
}
