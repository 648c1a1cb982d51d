package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	appLogger "github.com/FACorreiaa/go-trip-planner/app/logger"
	"github.com/FACorreiaa/go-trip-planner/app/tracer"
	"github.com/FACorreiaa/go-trip-planner/config"
	"github.com/FACorreiaa/go-trip-planner/internal/container"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := appLogger.SetupLogger(os.Getenv("APP_ENV"), os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Worker shut down complete.")
}

func run(cfg config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	telemetry, err := tracer.InitTracingAndMetrics("trip-planner-worker")
	if err != nil {
		return err
	}

	c, err := container.NewContainer(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if !c.WaitForDB(ctx) {
		return errors.New("database not ready after waiting")
	}

	processor, err := c.Processor(ctx)
	if err != nil {
		return err
	}

	mux := asynq.NewServeMux()
	processor.Register(mux)
	srv := c.QueueServer()
	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	logger.Info("Worker running...",
		slog.String("queue", cfg.Queue.Name),
		slog.Int("concurrency", cfg.Worker.Concurrency),
		slog.Duration("retry_delay", cfg.Worker.RetryDelay))

	metricsSrv := telemetry.MetricsServer(fmt.Sprintf(":%s", cfg.Observability.WorkerMetricsPort))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, draining in-flight jobs...")
		// Shutdown waits for active handlers up to asynq's ShutdownTimeout and
		// requeues whatever is still running.
		srv.Shutdown()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return errors.Join(metricsSrv.Shutdown(shutdownCtx), telemetry.Shutdown(shutdownCtx))
	})

	return g.Wait()
}
