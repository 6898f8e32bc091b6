package e2e

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"credvault/internal/app"
	"credvault/internal/platform/config"
	"credvault/internal/platform/health"
	"credvault/internal/platform/metrics"
	"credvault/pkg/platform/middleware/request"
)

var opts = godog.Options{
	Output: colors.Colored(os.Stdout),
	Format: "progress",
	Paths:  []string{"features"},
	Strict: true,
}

func init() {
	godog.BindCommandLineFlags("godog.", &opts)
}

// TestFeatures runs the scenarios against BASE_URL, which must point at a
// server with an empty database. When BASE_URL is unset every scenario gets
// its own in-process server backed by memory stores.
func TestFeatures(t *testing.T) {
	flag.Parse()
	opts.TestingT = t

	suite := godog.TestSuite{
		ScenarioInitializer: func(sc *godog.ScenarioContext) { InitializeScenario(sc, os.Getenv("BASE_URL")) },
		Options:             &opts,
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext, baseURL string) {
	tc := NewTestContext(baseURL)
	var srv *httptest.Server

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		url := baseURL
		if url == "" {
			srv = httptest.NewServer(inProcessApp().Router)
			url = srv.URL
		}
		*tc = *NewTestContext(url)
		return ctx, nil
	})
	sc.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if err != nil {
			fmt.Printf("Scenario failed: %s\nLast Response: %s\n", sc.Name, string(tc.LastResponseBody))
		}
		if srv != nil {
			srv.Close()
			srv = nil
		}
		return ctx, nil
	})

	RegisterSteps(sc, tc)
}

func inProcessApp() *app.App {
	cfg := config.Defaults()
	cfg.BcryptCost = bcrypt.MinCost
	cfg.TokenTTL = time.Hour

	reg := prometheus.NewRegistry()
	return app.New(cfg, app.MemoryStores(), app.Deps{
		Logger:         slog.New(slog.DiscardHandler),
		Metrics:        metrics.NewWithRegistry(reg),
		Latency:        request.NewMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Health:         health.New("e2e"),
	})
}
