// Command worker consumes documents from the ingest topic and runs each
// through the annual pipeline.  Several consumers in one group share the
// topic's partitions; a Redis lock keeps redelivered copies of a document
// from running concurrently.
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
	"github.com/turtacn/LegisGraph/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/LegisGraph/internal/interfaces/http"
	"github.com/turtacn/LegisGraph/internal/interfaces/http/handlers"
	"github.com/turtacn/LegisGraph/internal/interfaces/worker"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	consumers := flag.Int("consumers", 0, "consumers in the group (default: pipeline.workers)")
	timeout := flag.Duration("timeout", worker.DefaultHandlerTimeout, "per-document processing timeout")
	flag.Parse()

	if err := run(*configPath, *consumers, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, consumers int, timeout time.Duration) error {
	var opts []config.LoadOption
	if configPath != "" {
		opts = append(opts, config.WithConfigPath(configPath))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if !cfg.Messaging.Kafka.Enabled {
		return errors.New(errors.ErrCodeFeatureDisabled, "worker requires messaging.kafka.enabled")
	}

	logger, level, err := logging.NewLoggerWithLevel(cfg.Monitoring.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("worker")
	if configPath != "" {
		config.Watch(configPath, func(c *config.Config) {
			if level.Set(c.Monitoring.Log.Level) {
				logger.Info("log level changed", logging.String("level", level.String()))
			}
		}, func(err error) {
			logger.WithError(err).Warn("config reload rejected")
		})
	}

	if consumers <= 0 {
		consumers = cfg.Pipeline.Workers
	}
	if consumers <= 0 {
		consumers = 1
	}

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

	hopts := []worker.Option{worker.WithLogger(logger), worker.WithTimeout(timeout)}
	if infra.Locks != nil {
		hopts = append(hopts, worker.WithLocks(infra.Locks))
	} else {
		logger.Warn("redis disabled, documents are processed without a lock")
	}
	if metrics.App != nil {
		hopts = append(hopts, worker.WithRecorder(metrics.App))
	}
	handler := worker.NewDocumentHandler(svc, hopts...)

	ccfg := kafka.ConsumerConfigFromKafka(cfg.Messaging.Kafka)
	group := make([]*kafka.Consumer, 0, consumers)
	defer func() {
		for _, c := range group {
			if err := c.Close(); err != nil {
				logger.WithError(err).Warn("consumer close failed")
			}
		}
	}()
	for i := 0; i < consumers; i++ {
		c, err := kafka.NewConsumer(ccfg, logger.With(logging.Int("consumer", i)))
		if err != nil {
			return err
		}
		group = append(group, c)
		for _, topic := range ccfg.Topics {
			if err := c.Subscribe(topic, handler.Handle); err != nil {
				return err
			}
		}
		if err := c.Start(ctx); err != nil {
			return err
		}
	}

	healthSrv := newHealthServer(cfg, infra, metrics, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- healthSrv.Start() }()

	logger.Info("LegisGraph worker started",
		logging.String("version", version),
		logging.Int("consumers", consumers),
		logging.Any("topics", ccfg.Topics),
		logging.Bool("locking", infra.Locks != nil))

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err = <-errCh:
		if err != nil {
			logger.WithError(err).Error("health server terminated")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if stopErr := healthSrv.Stop(shutdownCtx); stopErr != nil {
		logger.WithError(stopErr).Error("health server shutdown error")
	}
	// Consumers are closed by the deferred loop, which waits for the
	// in-flight message of each.
	return err
}

// newHealthServer exposes /healthz, /readyz and /metrics on the health port.
func newHealthServer(cfg *config.Config, infra *bootstrap.Infrastructure, metrics *bootstrap.Metrics, logger logging.Logger) *httpserver.Server {
	checks := infra.HealthChecks()
	checkers := make([]handlers.HealthChecker, 0, len(checks))
	for _, c := range checks {
		checkers = append(checkers, c)
	}
	health := handlers.NewHealthHandler(version, checkers...)

	routerCfg := httpserver.RouterConfig{
		HealthHandler: health,
		Logger:        logger.Named("health"),
	}
	if metrics.App != nil {
		health.WithObserver(metrics.App.SetHealth)
		routerCfg.MetricsHandler = metrics.Collector.Handler()
	}

	gin.SetMode(cfg.Server.Mode)
	serverCfg := cfg.Server
	serverCfg.Port = cfg.Monitoring.Metrics.HealthPort
	return httpserver.NewServer(serverCfg, httpserver.NewRouter(routerCfg), logger)
}

//Personal.AI order the ending
