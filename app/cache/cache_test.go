package cache

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

func samplePlan() *types.TripPlanData {
	return &types.TripPlanData{
		Itinerary:       "Day 1: Louvre",
		BestMonth:       "May",
		BudgetBreakdown: "Food: $200",
		Weather:         "Sunny",
		Restaurants:     "**Le Jules Verne**: fine dining",
		Hotels:          "**Ritz**: luxury",
		RestaurantNames: []string{"Le Jules Verne"},
		HotelNames:      []string{"Ritz"},
	}
}

func setupRedisCache(t *testing.T, ttl time.Duration) (*RedisResultCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewRedisResultCache(client, ttl, logger), mr
}

func TestRedisResultCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss", func(t *testing.T) {
		c, _ := setupRedisCache(t, time.Hour)
		data, found, err := c.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, data)
	})

	t.Run("set then get", func(t *testing.T) {
		c, mr := setupRedisCache(t, time.Hour)
		require.NoError(t, c.Set(ctx, "req-1", samplePlan()))

		data, found, err := c.Get(ctx, "req-1")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, samplePlan(), data)
		assert.Equal(t, time.Hour, mr.TTL("req-1"))
	})

	t.Run("overwrite keeps last value", func(t *testing.T) {
		c, _ := setupRedisCache(t, time.Hour)
		require.NoError(t, c.Set(ctx, "req-1", samplePlan()))
		updated := samplePlan()
		updated.BestMonth = "June"
		require.NoError(t, c.Set(ctx, "req-1", updated))

		data, found, err := c.Get(ctx, "req-1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "June", data.BestMonth)
	})

	t.Run("expires after ttl", func(t *testing.T) {
		c, mr := setupRedisCache(t, time.Minute)
		require.NoError(t, c.Set(ctx, "req-1", samplePlan()))
		mr.FastForward(2 * time.Minute)

		_, found, err := c.Get(ctx, "req-1")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("corrupt entry is a miss", func(t *testing.T) {
		c, mr := setupRedisCache(t, time.Hour)
		require.NoError(t, mr.Set("req-1", "{not json"))

		_, found, err := c.Get(ctx, "req-1")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("unreachable redis is a connection error", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
		t.Cleanup(func() { _ = client.Close() })
		c := NewRedisResultCache(client, time.Hour, slog.Default())

		_, found, err := c.Get(ctx, "req-1")
		require.Error(t, err)
		assert.False(t, found)
		assert.True(t, errors.Is(err, types.ErrConnection))
		assert.True(t, errors.Is(c.Set(ctx, "req-1", samplePlan()), types.ErrConnection))
	})
}

func TestMemoryResultCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryResultCache(time.Hour)

	_, found, err := c.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.False(t, found)

	original := samplePlan()
	require.NoError(t, c.Set(ctx, "req-1", original))
	original.Itinerary = "mutated after set"

	data, found, err := c.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Day 1: Louvre", data.Itinerary)

	c.Flush()
	_, found, _ = c.Get(ctx, "req-1")
	assert.False(t, found)
}
