package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"credvault/internal/app"
	"credvault/internal/notify"
	"credvault/internal/otp"
	otpstore "credvault/internal/otp/store"
	"credvault/internal/platform/config"
	"credvault/internal/platform/database"
	"credvault/internal/platform/health"
	"credvault/internal/platform/kafka"
	"credvault/internal/platform/logger"
	"credvault/internal/platform/metrics"
	"credvault/internal/platform/redis"
	"credvault/internal/platform/tracer"
	"credvault/internal/share/workers/cleanup"
	"credvault/migrations"
	"credvault/pkg/platform/middleware/metadata"
	"credvault/pkg/platform/middleware/request"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing credvault",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"legacy_authz", cfg.LegacyAuthz,
		"otp_mode", cfg.OTP.Mode,
	)

	proxies, err := metadata.ParsePrefixes(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("parse trusted proxies: %w", err)
	}

	m := metrics.New()
	probes := health.New(cfg.Environment)

	stores := app.MemoryStores()
	pool, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if pool != nil {
		defer pool.Close() //nolint:errcheck // process exit
		if err := database.Migrate(ctx, pool.DB(), migrations.FS); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		stores = app.PostgresStores(pool.DB())
		probes.RegisterCheck("postgres", pool.Health)
		log.Info("using postgres stores")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	notifier, closeNotifier, err := buildNotifier(cfg, log, m, probes)
	if err != nil {
		return err
	}
	defer closeNotifier()

	verifier, redisClient, err := buildVerifier(cfg, log, notifier, probes)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck // process exit
	}

	a := app.New(cfg, stores, app.Deps{
		Logger:         log,
		Metrics:        m,
		Latency:        request.NewMetrics(nil),
		MetricsHandler: promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}),
		Tracer:         tracer.NewOTel("credvault"),
		Notifier:       notifier,
		Verifier:       verifier,
		Health:         probes,
		TrustedProxies: proxies,
	})

	sweeper, err := cleanup.New(a.Shares,
		cleanup.WithCleanupInterval(cfg.Shares.CleanupInterval),
		cleanup.WithRetention(cfg.Shares.Retention),
		cleanup.WithCleanupLogger(log),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := sweeper.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	if redisClient != nil {
		g.Go(func() error {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					redisClient.RecordPoolStats()
				case <-gctx.Done():
					return nil
				}
			}
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

// buildNotifier logs every notice and, when brokers are configured, also
// publishes it to Kafka.
func buildNotifier(cfg config.Server, log *slog.Logger, m *metrics.Metrics, probes *health.Handler) (notify.Notifier, func(), error) {
	logNotifier := notify.NewLogNotifier(log)
	if len(cfg.Kafka.Brokers) == 0 {
		return logNotifier, func() {}, nil
	}

	producer, err := kafka.New(kafka.Config{
		Brokers:         cfg.Kafka.Brokers,
		ClientID:        cfg.Kafka.ClientID,
		DeliveryTimeout: 5 * time.Second,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	probes.RegisterCheck("kafka", producer.Health)

	kafkaNotifier := notify.NewKafkaNotifier(producer, cfg.Kafka.Topic, log,
		notify.WithFallback(logNotifier),
		notify.WithMetrics(m),
	)
	closeFn := func() {
		if err := producer.Close(); err != nil {
			log.Warn("close kafka producer", "error", err)
		}
	}
	return kafkaNotifier, closeFn, nil
}

func buildVerifier(cfg config.Server, log *slog.Logger, notifier notify.Notifier, probes *health.Handler) (otp.Verifier, *redis.Client, error) {
	if cfg.OTP.Mode != "totp" {
		return otp.NewFixedVerifier(cfg.OTP.FixedCode, notifier), nil, nil
	}

	client, err := redis.New(cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	var secrets otp.SecretStore = otpstore.NewInMemory()
	if client != nil {
		secrets = otpstore.NewRedis(client.Client)
		probes.RegisterCheck("redis", client.Health)
	} else {
		log.Warn("REDIS_URL not set, one-time code secrets are held in memory")
	}

	return otp.NewTOTPVerifier(secrets, notifier,
		otp.WithIssuer(cfg.OTP.Issuer),
		otp.WithSecretTTL(cfg.OTP.SecretTTL),
		otp.WithLogger(log),
	), client, nil
}
