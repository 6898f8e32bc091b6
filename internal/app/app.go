// Package app assembles stores, services and handlers into one router.
package app

import (
	"database/sql"
	"log/slog"
	"net/http"
	"net/netip"

	accounthandler "credvault/internal/account/handler"
	accountservice "credvault/internal/account/service"
	accountstore "credvault/internal/account/store"
	certhandler "credvault/internal/certificate/handler"
	certservice "credvault/internal/certificate/service"
	certstore "credvault/internal/certificate/store"
	requesthandler "credvault/internal/certrequest/handler"
	requestservice "credvault/internal/certrequest/service"
	requeststore "credvault/internal/certrequest/store"
	jwttoken "credvault/internal/jwt_token"
	"credvault/internal/notify"
	"credvault/internal/otp"
	otphandler "credvault/internal/otp/handler"
	"credvault/internal/platform/config"
	"credvault/internal/platform/metrics"
	"credvault/internal/platform/tracer"
	sharehandler "credvault/internal/share/handler"
	shareservice "credvault/internal/share/service"
	sharestore "credvault/internal/share/store"
	httptransport "credvault/internal/transport/http"
	"credvault/pkg/platform/middleware/request"
	"credvault/pkg/secrets"
)

// Stores groups one backend per aggregate.
type Stores struct {
	Accounts     accountservice.Store
	Certificates certservice.Store
	Requests     requestservice.Store
	Shares       shareservice.Store
}

func MemoryStores() Stores {
	certs := certstore.NewInMemory()
	return Stores{
		Accounts:     accountstore.NewInMemory(),
		Certificates: certs,
		Requests:     requeststore.NewInMemory(),
		Shares:       sharestore.NewInMemory(certs),
	}
}

func PostgresStores(db *sql.DB) Stores {
	return Stores{
		Accounts:     accountstore.NewPostgres(db),
		Certificates: certstore.NewPostgres(db),
		Requests:     requeststore.NewPostgres(db),
		Shares:       sharestore.NewPostgres(db),
	}
}

// Deps carries the cross-cutting collaborators. Zero values fall back to
// quiet defaults.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Latency        *request.Metrics
	MetricsHandler http.Handler
	Tracer         tracer.Tracer
	Notifier       notify.Notifier
	Verifier       otp.Verifier
	Health         httptransport.Routes
	TrustedProxies []netip.Prefix
}

type App struct {
	Router   http.Handler
	Accounts *accountservice.Service
	Shares   *shareservice.Service
}

func New(cfg config.Server, stores Stores, deps Deps) *App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Tracer == nil {
		deps.Tracer = tracer.NewNoop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewLogNotifier(deps.Logger)
	}
	if deps.Verifier == nil {
		deps.Verifier = otp.NewFixedVerifier(cfg.OTP.FixedCode, deps.Notifier)
	}
	logger := deps.Logger

	jwt := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.TokenTTL)

	accounts := accountservice.New(stores.Accounts, secrets.NewHasher(cfg.BcryptCost), jwt,
		accountservice.WithLogger(logger),
		accountservice.WithMetrics(deps.Metrics),
		accountservice.WithTracer(deps.Tracer),
		accountservice.WithStoreTimeout(cfg.StoreTimeout),
	)
	certs := certservice.New(stores.Certificates, accounts,
		certservice.WithLogger(logger),
		certservice.WithMetrics(deps.Metrics),
		certservice.WithTracer(deps.Tracer),
		certservice.WithNotifier(deps.Notifier),
		certservice.WithStoreTimeout(cfg.StoreTimeout),
		certservice.WithLegacyAuthz(cfg.LegacyAuthz),
	)
	requests := requestservice.New(stores.Requests, accounts,
		requestservice.WithLogger(logger),
		requestservice.WithMetrics(deps.Metrics),
		requestservice.WithTracer(deps.Tracer),
		requestservice.WithStoreTimeout(cfg.StoreTimeout),
		requestservice.WithLegacyAuthz(cfg.LegacyAuthz),
	)
	shares := shareservice.New(stores.Shares, accounts, certs,
		shareservice.WithLogger(logger),
		shareservice.WithMetrics(deps.Metrics),
		shareservice.WithTracer(deps.Tracer),
		shareservice.WithStoreTimeout(cfg.StoreTimeout),
		shareservice.WithLegacyAuthz(cfg.LegacyAuthz),
	)

	accountH := accounthandler.New(accounts, logger)
	certH := certhandler.New(certs, logger)

	router := httptransport.NewRouter(
		httptransport.Config{
			RequestTimeout: cfg.RequestTimeout,
			MaxBodyBytes:   cfg.MaxBodyBytes,
			TrustedProxies: deps.TrustedProxies,
		},
		httptransport.Dependencies{
			Logger:  logger,
			Tokens:  jwttoken.NewJWTServiceAdapter(jwt),
			Latency: deps.Latency,
			Health:  deps.Health,
			Metrics: deps.MetricsHandler,
			Public: []httptransport.PublicRoutes{
				accountH,
				certH,
				otphandler.New(deps.Verifier, logger),
			},
			Protected: []httptransport.Routes{
				accountH,
				certH,
				requesthandler.New(requests, logger),
				sharehandler.New(shares, logger),
			},
		},
	)
	return &App{Router: router, Accounts: accounts, Shares: shares}
}
