package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/FACorreiaa/go-trip-planner/app/cache"
	database "github.com/FACorreiaa/go-trip-planner/app/db"
	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner/app/queue"
	"github.com/FACorreiaa/go-trip-planner/app/storage"
	"github.com/FACorreiaa/go-trip-planner/config"
	generativeAI "github.com/FACorreiaa/go-trip-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-planner/internal/api/planner"
	"github.com/FACorreiaa/go-trip-planner/internal/pdf"
	"github.com/FACorreiaa/go-trip-planner/internal/router"
	"github.com/FACorreiaa/go-trip-planner/internal/worker"
)

// Container holds the dependencies shared by the API and the worker.
type Container struct {
	Config      *config.Config
	Logger      *slog.Logger
	Pool        *pgxpool.Pool
	Redis       *redis.Client
	ResultCache cache.ResultCache
	ObjectStore *storage.S3Store
	Repository  *planner.RepositoryImpl
	Metrics     *metrics.AppMetrics

	queueClient *asynq.Client
}

// NewContainer connects to PostgreSQL and Redis and builds the shared
// components. The object store is only created when PDF export is enabled.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(ctx, dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		Pool:   pool,
	}

	c.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Repositories.Redis.Password,
		DB:       cfg.Repositories.Redis.DB,
	})

	switch cfg.Cache.Driver {
	case "memory":
		c.ResultCache = cache.NewMemoryResultCache(cfg.Cache.TTL)
	default:
		c.ResultCache = cache.NewRedisResultCache(c.Redis, cfg.Cache.TTL, logger)
	}

	if cfg.PDF.Enabled {
		c.ObjectStore, err = storage.NewS3StoreFromConfig(ctx, cfg.PDF.Bucket, cfg.PDF.Region, cfg.PDF.Endpoint, logger)
		if err != nil {
			c.Close()
			return nil, err
		}
	}

	if err := metrics.InitAppMetrics(); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	c.Metrics = metrics.Get()
	c.Repository = planner.NewRepository(pool, logger)

	return c, nil
}

// PlannerHandler builds the HTTP handler and the queue client it enqueues through.
func (c *Container) PlannerHandler() *planner.Handler {
	if c.queueClient == nil {
		c.queueClient = asynq.NewClient(c.redisOpt())
	}
	enqueuer := queue.NewAsynqEnqueuer(c.queueClient, c.Config.Queue.Name, c.Config.Worker.MaxRetry, c.Config.Worker.Timeout, c.Logger)

	var signer planner.URLSigner
	if c.ObjectStore != nil {
		signer = c.ObjectStore
	}
	service := planner.NewServiceImpl(c.Repository, enqueuer, c.ResultCache, signer, c.Config.PDF.URLTTL, c.Metrics, c.Logger)
	return planner.NewHandler(service, c.Logger)
}

// Processor builds the worker's job handler, including the Gemini client.
func (c *Container) Processor(ctx context.Context) (*worker.Processor, error) {
	generator, err := generativeAI.NewAIClient(ctx, generativeAI.ClientConfig{
		APIKey:      c.Config.GenAI.APIKey,
		Model:       c.Config.GenAI.Model,
		Temperature: c.Config.GenAI.Temperature,
	}, c.Logger)
	if err != nil {
		return nil, err
	}

	var exporter worker.Exporter
	if c.ObjectStore != nil {
		exporter = pdf.NewExporter(c.ObjectStore, c.Logger)
	}
	return worker.NewProcessor(c.Repository, generator, c.ResultCache, exporter, c.Metrics, c.Logger), nil
}

// QueueServer builds the asynq server the worker runs.
func (c *Container) QueueServer() *asynq.Server {
	return queue.NewServer(queue.ServerConfig{
		RedisAddr:     c.Config.RedisAddr(),
		RedisPassword: c.Config.Repositories.Redis.Password,
		RedisDB:       c.Config.Repositories.Redis.DB,
		Queue:         c.Config.Queue.Name,
		Concurrency:   c.Config.Worker.Concurrency,
		RetryDelay:    c.Config.Worker.RetryDelay,
	}, c.Logger)
}

// HealthChecks pings PostgreSQL and Redis.
func (c *Container) HealthChecks() map[string]router.HealthCheck {
	return map[string]router.HealthCheck{
		"postgres": c.Pool.Ping,
		"redis": func(ctx context.Context) error {
			return c.Redis.Ping(ctx).Err()
		},
	}
}

func (c *Container) redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Config.RedisAddr(),
		Password: c.Config.Repositories.Redis.Password,
		DB:       c.Config.Repositories.Redis.DB,
	}
}

// Close releases all resources held by the container
func (c *Container) Close() {
	var errs []error
	if c.queueClient != nil {
		errs = append(errs, c.queueClient.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
	if err := errors.Join(errs...); err != nil {
		c.Logger.Warn("Error while closing container", slog.Any("error", err))
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations
func (c *Container) RunMigrations() error {
	dbConfig, err := database.NewDatabaseConfig(c.Config, c.Logger)
	if err != nil {
		return err
	}
	return database.RunMigrations(dbConfig.ConnectionURL, c.Logger)
}
