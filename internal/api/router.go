package api

import (
	"fight-club/internal/netcore"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SpectatorSource is the read-only view the admin surface has into a
// running game: a pull of the latest published Snapshot. It never
// reaches into the authoritative solver directly.
type SpectatorSource interface {
	Latest() netcore.Snapshot
}

// RouterConfig contains all dependencies needed to construct the HTTP
// router. Pure dependency injection so tests can supply a fake source
// without spinning up a solver or network sockets.
type RouterConfig struct {
	// Source is the snapshot source backing /healthz (required).
	Source SpectatorSource

	// RateLimiter is an optional pre-configured rate limiter. If nil, a
	// new one is created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is used only when RateLimiter is nil.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins for the
	// spectate websocket. Defaults to localhost.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for
	// benchmarks and tests).
	DisableLogging bool
}

type routerHandlers struct {
	source SpectatorSource
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// No listeners are opened, so it is safe to drive with
// httptest.NewServer. When cfg.RateLimiter is nil, the limiter created
// here starts its own cleanup goroutine.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"*"},
	}))

	h := &routerHandlers{source: cfg.Source}

	r.Get("/healthz", h.handleHealthz)
	r.Handle("/metrics", metricsHandler())

	return r
}
