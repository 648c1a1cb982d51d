package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

var _ ResultCache = (*RedisResultCache)(nil)

type RedisResultCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisResultCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisResultCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisResultCache) Get(ctx context.Context, requestID string) (*types.TripPlanData, bool, error) {
	ctx, span := otel.Tracer("ResultCache").Start(ctx, "Get", trace.WithAttributes(
		attribute.String("cache.key", requestID),
		attribute.String("cache.driver", "redis"),
	))
	defer span.End()

	b, err := c.client.Get(ctx, requestID).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "redis GET failed")
		return nil, false, fmt.Errorf("%w: redis get: %v", types.ErrConnection, err)
	}

	data, err := decode(b)
	if err != nil {
		// A corrupt entry is as good as a miss; the store is the source of truth.
		c.logger.WarnContext(ctx, "Discarding undecodable cache entry", slog.String("request_id", requestID), slog.Any("error", err))
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, false, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", true))
	span.SetStatus(codes.Ok, "cache hit")
	return data, true, nil
}

func (c *RedisResultCache) Set(ctx context.Context, requestID string, data *types.TripPlanData) error {
	ctx, span := otel.Tracer("ResultCache").Start(ctx, "Set", trace.WithAttributes(
		attribute.String("cache.key", requestID),
		attribute.String("cache.driver", "redis"),
	))
	defer span.End()

	b, err := encode(data)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := c.client.Set(ctx, requestID, b, c.ttl).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "redis SET failed")
		return fmt.Errorf("%w: redis set: %v", types.ErrConnection, err)
	}
	span.SetStatus(codes.Ok, "cached")
	return nil
}
