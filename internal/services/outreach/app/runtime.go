// Package app wires the outreach engine into a runnable process.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/outreach/internal/platform/logging"
	"github.com/louisbranch/outreach/internal/platform/timeouts"
	"github.com/louisbranch/outreach/internal/services/outreach/analytics"
	"github.com/louisbranch/outreach/internal/services/outreach/api/httpapi"
	"github.com/louisbranch/outreach/internal/services/outreach/campaign"
	"github.com/louisbranch/outreach/internal/services/outreach/delivery"
	"github.com/louisbranch/outreach/internal/services/outreach/render"
	"github.com/louisbranch/outreach/internal/services/outreach/segment"
	outreachsqlite "github.com/louisbranch/outreach/internal/services/outreach/storage/sqlite"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// RuntimeConfig controls outreach startup and delivery behavior.
type RuntimeConfig struct {
	HTTPPort        int
	HealthPort      int
	DBPath          string
	Strategy        string
	Concurrency     int
	DeliveryTimeout time.Duration
	ActiveWindow    int
	ValuePerClick   float64
	Locale          string
	SimulationSeed  uint64
	KafkaBrokers    []string
	KafkaTopic      string
	SMTP            delivery.SMTPConfig
	Logger          *zerolog.Logger
}

const (
	defaultHTTPPort   = 8095
	defaultHealthPort = 8096
	defaultDBPath     = "data/outreach.db"

	healthServiceName = "outreach.runtime"
)

func (cfg RuntimeConfig) normalized() RuntimeConfig {
	if cfg.HTTPPort <= 0 {
		cfg.HTTPPort = defaultHTTPPort
	}
	if cfg.HealthPort <= 0 {
		cfg.HealthPort = defaultHealthPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = timeouts.Delivery
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.ValuePerClick <= 0 {
		cfg.ValuePerClick = analytics.DefaultValuePerClick
	}
	if cfg.SimulationSeed == 0 {
		cfg.SimulationSeed = uint64(time.Now().UnixNano())
	}
	return cfg
}

// Runtime holds the wired services behind the HTTP API.
type Runtime struct {
	Store   *outreachsqlite.Store
	Metrics *Metrics
	Handler http.Handler

	closers []func() error
	logger  zerolog.Logger
}

// NewRuntime opens storage and wires every service. Close releases what it
// opened.
func NewRuntime(cfg RuntimeConfig) (*Runtime, error) {
	cfg = cfg.normalized()
	logger := logging.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create outreach storage dir: %w", err)
		}
	}
	store, err := outreachsqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open outreach sqlite store: %w", err)
	}
	rt := &Runtime{Store: store, logger: logger}
	rt.closers = append(rt.closers, store.Close)

	localizer := render.NewLocalizer(cfg.Locale)
	built, err := buildStrategy(strategyConfig{
		Mode:         cfg.Strategy,
		KafkaBrokers: cfg.KafkaBrokers,
		KafkaTopic:   cfg.KafkaTopic,
		SMTP:         cfg.SMTP,
	}, localizer, logger)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	if built.closer != nil {
		rt.closers = append(rt.closers, built.closer.Close)
	}

	metrics := NewMetrics()
	rt.Metrics = metrics

	segments := segment.NewService(store, store,
		segment.WithLogger(logger),
		segment.WithObserver(metrics),
	)
	orchestrator := campaign.NewOrchestrator(store, campaign.OrchestratorConfig{
		DeliveryTimeout: cfg.DeliveryTimeout,
		Concurrency:     cfg.Concurrency,
		Logger:          &logger,
		Metrics:         metrics,
	})
	campaigns := campaign.NewService(campaign.ServiceConfig{
		Store:        store,
		Segments:     segments,
		Orchestrator: orchestrator,
		Strategy:     delivery.WithTimeout(built.strategy, cfg.DeliveryTimeout),
		Logger:       &logger,
	})

	apiConfig := httpapi.Config{
		Customers:        store,
		Segments:         segments,
		Campaigns:        campaigns,
		Analytics:        analytics.NewService(store, analytics.WithValuePerClick(cfg.ValuePerClick)),
		ActiveWindowDays: cfg.ActiveWindow,
		Logger:           logger,
	}
	if built.simulated {
		apiConfig.Simulator = delivery.NewEngagementSimulator(campaigns, cfg.SimulationSeed, logger)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	mux.Handle("/", httpapi.NewRouter(apiConfig))
	rt.Handler = mux
	return rt, nil
}

// Close releases runtime resources in reverse order of acquisition.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// Run serves the HTTP API and the gRPC health endpoint until ctx is done.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = cfg.normalized()

	rt, err := NewRuntime(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			rt.logger.Error().Err(closeErr).Msg("close outreach runtime")
		}
	}()

	healthListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HealthPort))
	if err != nil {
		return fmt.Errorf("listen on health port %d: %w", cfg.HealthPort, err)
	}
	defer healthListener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(healthServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	grpcErr := make(chan error, 1)
	go func() {
		grpcErr <- grpcServer.Serve(healthListener)
	}()
	defer func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		<-grpcErr
	}()

	httpListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HTTPPort))
	if err != nil {
		return fmt.Errorf("listen on http port %d: %w", cfg.HTTPPort, err)
	}
	httpServer := &http.Server{
		Handler:           rt.Handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- httpServer.Serve(httpListener)
	}()

	rt.logger.Info().
		Str("http_addr", httpListener.Addr().String()).
		Str("health_addr", healthListener.Addr().String()).
		Str("strategy", cfg.Strategy).
		Msg("outreach server listening")

	select {
	case <-ctx.Done():
	case err := <-httpErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-httpErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}
