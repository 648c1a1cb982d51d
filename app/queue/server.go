package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

type ServerConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Queue         string
	Concurrency   int
	// RetryDelay is how long a failed task stays invisible before it is redelivered.
	RetryDelay time.Duration
}

// NewServer builds the asynq server the worker consumes from. With the default
// concurrency of 1 tasks are processed one at a time.
func NewServer(cfg ServerConfig, logger *slog.Logger) *asynq.Server {
	queue := cfg.Queue
	if queue == "" {
		queue = DefaultQueue
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, asynq.Config{
		Concurrency:    concurrency,
		Queues:         map[string]int{queue: 1},
		RetryDelayFunc: FixedRetryDelay(cfg.RetryDelay),
		Logger:         NewSlogAdapter(logger),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.WarnContext(ctx, "Trip job failed, leaving it for redelivery",
				slog.String("task_type", task.Type()),
				slog.Int("retried", retried),
				slog.Int("max_retry", maxRetry),
				slog.Any("error", err))
		}),
	})
}

// FixedRetryDelay redelivers every failed task after d, regardless of how many
// times it has failed.
func FixedRetryDelay(d time.Duration) asynq.RetryDelayFunc {
	if d <= 0 {
		d = 30 * time.Second
	}
	return func(int, error, *asynq.Task) time.Duration { return d }
}

// SlogAdapter lets asynq log through slog.
type SlogAdapter struct {
	logger *slog.Logger
}

func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger.With(slog.String("component", "asynq"))}
}

func (a *SlogAdapter) Debug(args ...interface{}) { a.logger.Debug(fmt.Sprint(args...)) }
func (a *SlogAdapter) Info(args ...interface{})  { a.logger.Info(fmt.Sprint(args...)) }
func (a *SlogAdapter) Warn(args ...interface{})  { a.logger.Warn(fmt.Sprint(args...)) }
func (a *SlogAdapter) Error(args ...interface{}) { a.logger.Error(fmt.Sprint(args...)) }

// Fatal matches asynq's contract of not returning.
func (a *SlogAdapter) Fatal(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}
