package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"

	"credvault/pkg/platform/middleware/auth"
	"credvault/pkg/platform/middleware/metadata"
	"credvault/pkg/platform/middleware/request"
	"credvault/pkg/platform/middleware/requesttime"
)

// PublicRoutes mounts endpoints that need no bearer token.
type PublicRoutes interface {
	RegisterPublic(r chi.Router)
}

// Routes mounts endpoints on r.
type Routes interface {
	Register(r chi.Router)
}

type Config struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	TrustedProxies []netip.Prefix
}

// Dependencies are the pieces NewRouter mounts. Nil Health, Metrics and
// Latency are skipped.
type Dependencies struct {
	Logger    *slog.Logger
	Tokens    auth.TokenValidator
	Latency   *request.Metrics
	Health    Routes
	Metrics   http.Handler
	Public    []PublicRoutes
	Protected []Routes
}

// NewRouter builds the API router. Every request gets an id, client metadata
// and a request time before any handler runs.
func NewRouter(cfg Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(deps.Logger))
	r.Use(request.RequestID)
	r.Use(metadata.NewMiddleware(cfg.TrustedProxies...).Handler)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(deps.Logger))
	r.Use(request.LatencyMiddleware(deps.Latency))

	if deps.Health != nil {
		deps.Health.Register(r)
	}
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Group(func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(request.Timeout(cfg.RequestTimeout))
		}
		if cfg.MaxBodyBytes > 0 {
			r.Use(request.BodyLimit(cfg.MaxBodyBytes))
		}
		r.Use(request.ContentTypeJSON)

		for _, p := range deps.Public {
			p.RegisterPublic(r)
		}
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(deps.Tokens, deps.Logger))
			for _, p := range deps.Protected {
				p.Register(r)
			}
		})
	})
	return r
}
