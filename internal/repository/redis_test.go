package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisThrottle(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	throttle := NewRedisThrottle(client)
	ctx := context.Background()

	t.Run("WithinLimit", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			allowed, err := throttle.Allow(ctx, "consultation:10.0.0.1", 2, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := throttle.Allow(ctx, "consultation:10.0.0.1", 2, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("WindowSetOnce", func(t *testing.T) {
		_, err := throttle.Allow(ctx, "k", 5, time.Minute)
		require.NoError(t, err)
		s.FastForward(30 * time.Second)
		_, err = throttle.Allow(ctx, "k", 5, time.Minute)
		require.NoError(t, err)

		assert.Equal(t, 30*time.Second, s.TTL(throttlePrefix+"k"))
	})

	t.Run("WindowExpires", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, _ = throttle.Allow(ctx, "registration:10.0.0.2", 1, time.Second)
		}
		s.FastForward(2 * time.Second)

		allowed, err := throttle.Allow(ctx, "registration:10.0.0.2", 1, time.Second)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("KeysIndependent", func(t *testing.T) {
		allowed, err := throttle.Allow(ctx, "consultation:10.0.0.9", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("ServerDown", func(t *testing.T) {
		down, err := miniredis.Run()
		require.NoError(t, err)
		c := redis.NewClient(&redis.Options{Addr: down.Addr(), MaxRetries: -1})
		defer c.Close()
		down.Close()

		_, err = NewRedisThrottle(c).Allow(ctx, "x", 1, time.Minute)
		assert.Error(t, err)
	})

	t.Run("NilClient", func(t *testing.T) {
		_, err := NewRedisThrottle(nil).Allow(ctx, "x", 1, time.Minute)
		assert.Error(t, err)
	})
}

func TestPingAndClose(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(configFor(s.Addr()))
	require.NoError(t, Ping(context.Background(), client))
	assert.NoError(t, Close(client))
	assert.NoError(t, Close(nil))
}
