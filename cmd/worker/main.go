package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/app"
	"github.com/felixgeelhaar/cadence/internal/scheduling/infrastructure/pgnotify"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const dispatchCapacity = 256

func main() {
	logCfg := observability.LogConfigFromEnv()
	logCfg.ServiceName = "cadence-worker"
	logCfg.ServiceVersion = cli.Version
	logger := observability.NewLogger(logCfg)

	logger.Info("starting cadence worker")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	metrics := observability.NewPrometheusMetrics()
	container, err := app.NewContainer(ctx, cfg, logger,
		app.WithDispatcher(dispatchCapacity),
		app.WithMetrics(metrics),
	)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return container.Dispatcher.Run(gctx) })

	if cfg.OutboxProcessorEnabled {
		container.OutboxProcessor.Start(gctx)
		g.Go(func() error {
			logOutboxStats(gctx, container, cfg.OutboxStatsInterval)
			return nil
		})
	} else {
		logger.Info("outbox processor disabled")
	}

	g.Go(func() error { return container.OverdueWorker.Run(gctx) })
	g.Go(func() error { return container.ReminderWorker.Run(gctx) })
	if container.SyncWorker != nil {
		g.Go(func() error { return container.SyncWorker.Run(gctx) })
	}

	if container.Driver == database.DriverPostgres {
		listener, err := pgnotify.Open(cfg.DatabaseURL, container.Sink, pgnotify.Config{
			Debounce: cfg.NotifyDebounce,
			Users:    []uuid.UUID{container.UserID},
			Clock:    container.Clock,
			Logger:   logger,
		})
		if err != nil {
			logger.Error("failed to start postgres listener", "error", err)
			os.Exit(1)
		}
		g.Go(func() error { return listener.Run(gctx) })
	}

	if cfg.SchedulerQueueEnabled && cfg.RabbitMQURL != "" {
		consumer, err := eventbus.NewRabbitMQConsumer(cfg.RabbitMQURL, "", eventbus.NewConsumerRegistry(logger), logger)
		if err != nil {
			logger.Error("failed to connect scheduler queue", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()
		consumer.RegisterConsumer(container.TaskSubscriber)
		g.Go(func() error { return consumer.Start(gctx) })
	}

	if cfg.WorkerHealthAddr != "" {
		srv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           newHealthMux(container, metrics),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", "error", err)
	}
	logger.Info("shutting down worker")
}

func logOutboxStats(ctx context.Context, container *app.Container, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := container.OutboxProcessor.GetStats()
			container.Logger.Info("outbox stats",
				"running", stats.IsRunning,
				"published", stats.PublishedCount,
				"failed", stats.FailedCount,
				"dead", stats.DeadCount,
				"lag_seconds", stats.LagSeconds,
				"last_processed_at", stats.LastProcessedAt,
				"last_error_at", stats.LastErrorAt,
				"last_error", stats.LastError,
			)
			container.Metrics.Gauge(observability.MetricOutboxLag, stats.LagSeconds)
		}
	}
}
