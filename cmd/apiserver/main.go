// Command apiserver serves analysis results, co-occurrence graphs and the
// section index over HTTP, plus an optional gRPC health endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/LegisGraph/internal/bootstrap"
	"github.com/turtacn/LegisGraph/internal/config"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	grpcserver "github.com/turtacn/LegisGraph/internal/interfaces/grpc"
	httpserver "github.com/turtacn/LegisGraph/internal/interfaces/http"
	"github.com/turtacn/LegisGraph/internal/interfaces/http/handlers"
	"github.com/turtacn/LegisGraph/internal/interfaces/http/middleware"
)

// Build-time variables injected via ldflags.
var version = "dev"

const healthCheckInterval = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", -1, "gRPC health port, 0 disables (overrides config)")
	flag.Parse()

	if err := run(*configPath, *httpPort, *grpcPort); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, httpPort, grpcPort int) error {
	overrides := map[string]interface{}{}
	if httpPort > 0 {
		overrides["server.port"] = httpPort
	}
	if grpcPort >= 0 {
		overrides["server.grpc_port"] = grpcPort
	}
	opts := []config.LoadOption{config.WithOverrides(overrides)}
	if configPath != "" {
		opts = append(opts, config.WithConfigPath(configPath))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, level, err := logging.NewLoggerWithLevel(cfg.Monitoring.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("apiserver")
	if configPath != "" {
		watchLogLevel(configPath, level, logger)
	}

	logger.Info("starting LegisGraph API server",
		logging.String("version", version),
		logging.Int("http_port", cfg.Server.Port),
		logging.Int("grpc_port", cfg.Server.GRPCPort),
		logging.String("jurisdiction", cfg.Pipeline.Jurisdiction))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics, err := bootstrap.NewMetrics(cfg.Monitoring.Metrics, logger)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	infra, err := bootstrap.NewInfrastructure(ctx, cfg, logger, metrics.App)
	if err != nil {
		return err
	}
	defer infra.Close()

	analyzer, err := bootstrap.NewAnalyzer(cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer func() { _ = analyzer.Close() }()
	svc, err := bootstrap.NewAnnualService(cfg, analyzer, infra, logger, metrics)
	if err != nil {
		return err
	}

	checks := infra.HealthChecks()
	health := handlers.NewHealthHandler(version, httpCheckers(checks)...)
	routerCfg := httpserver.RouterConfig{
		ResultHandler:   handlers.NewResultHandler(infra.Backends.Results),
		AnalysisHandler: handlers.NewAnalysisHandler(svc, analyzer),
		GraphHandler:    handlers.NewGraphHandler(infra.Backends.Archive, infra.Backends.Graphs, infra.Backends.Index),
		HealthHandler:   health,
		Logger:          logger.Named("http"),
		Logging:         middleware.DefaultLoggingConfig(),
	}
	if metrics.App != nil {
		health.WithObserver(metrics.App.SetHealth)
		routerCfg.Recorder = metrics.App
		routerCfg.MetricsHandler = metrics.Collector.Handler()
	}

	gin.SetMode(cfg.Server.Mode)
	srv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)

	errCh := make(chan error, 2)
	go func() { errCh <- srv.Start() }()

	var grpcSrv *grpcserver.Server
	if cfg.Server.GRPCPort > 0 {
		grpcSrv, err = grpcserver.NewServer(fmt.Sprintf(":%d", cfg.Server.GRPCPort),
			grpcserver.WithLogger(logger),
			grpcserver.WithReflection(cfg.Server.Mode == gin.DebugMode))
		if err != nil {
			_ = srv.Stop(context.Background())
			return err
		}
		go func() { errCh <- grpcSrv.Start() }()
		go grpcSrv.WatchHealth(ctx, grpcCheckers(checks), healthCheckInterval)
	}

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err = <-errCh:
		if err != nil {
			logger.WithError(err).Error("server terminated")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if grpcSrv != nil {
		_ = grpcSrv.Stop(shutdownCtx)
	}
	if stopErr := srv.Stop(shutdownCtx); stopErr != nil {
		logger.WithError(stopErr).Error("HTTP server shutdown error")
	}
	logger.Info("servers stopped")
	return err
}

// watchLogLevel applies log level changes from the config file at runtime.
func watchLogLevel(path string, level *logging.AtomicLevel, logger logging.Logger) {
	config.Watch(path, func(c *config.Config) {
		if level.Set(c.Monitoring.Log.Level) {
			logger.Info("log level changed", logging.String("level", level.String()))
		}
	}, func(err error) {
		logger.WithError(err).Warn("config reload rejected")
	})
}

//Personal.AI order the ending
