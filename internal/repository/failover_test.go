package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockThrottle struct {
	mock.Mock
}

func (m *mockThrottle) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverThrottle(t *testing.T) {
	primary := new(mockThrottle)
	fallback := new(mockThrottle)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverThrottle(primary, fallback, &logger)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("Allow", ctx, "a", 5, time.Minute).Return(true, nil).Once()

		allowed, err := repo.Allow(ctx, "a", 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		primary.On("Allow", ctx, "b", 5, time.Minute).Return(false, errors.New("fail")).Once()
		fallback.On("Allow", ctx, "b", 5, time.Minute).Return(true, nil).Once()

		allowed, err := repo.Allow(ctx, "b", 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("AlreadyDown", func(t *testing.T) {
		fallback.On("Allow", ctx, "c", 5, time.Minute).Return(false, nil).Once()

		allowed, err := repo.Allow(ctx, "c", 5, time.Minute)
		assert.NoError(t, err)
		assert.False(t, allowed)
		fallback.AssertExpectations(t)
		primary.AssertNotCalled(t, "Allow", ctx, "c", 5, time.Minute)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		primary.On("Allow", ctx, "d", 5, time.Minute).Return(false, errors.New("still fail")).Once()
		fallback.On("Allow", ctx, "d", 5, time.Minute).Return(true, nil).Once()

		_, err := repo.Allow(ctx, "d", 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		primary.On("Allow", ctx, "e", 5, time.Minute).Return(true, nil).Once()

		allowed, err := repo.Allow(ctx, "e", 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})
}
