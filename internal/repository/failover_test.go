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

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverRateLimiter(t *testing.T) {
	primary := new(mockLimiter)
	fallback := new(mockLimiter)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverRateLimiter(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("CheckRateLimit", ctx, "a", 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "a", 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		primary.On("CheckRateLimit", ctx, "b", 10, time.Minute).Return(false, errors.New("fail")).Once()
		fallback.On("CheckRateLimit", ctx, "b", 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "b", 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("AlreadyDownSkipsPrimary", func(t *testing.T) {
		fallback.On("CheckRateLimit", ctx, "c", 10, time.Minute).Return(false, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "c", 10, time.Minute)
		assert.NoError(t, err)
		assert.False(t, allowed)
		fallback.AssertExpectations(t)
		primary.AssertNotCalled(t, "CheckRateLimit", ctx, "c", 10, time.Minute)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		repo.lastCheck = time.Now().Add(-2 * recoveryInterval)
		primary.On("CheckRateLimit", ctx, "d", 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "d", 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * recoveryInterval)
		primary.On("CheckRateLimit", ctx, "e", 10, time.Minute).Return(false, errors.New("still down")).Once()
		fallback.On("CheckRateLimit", ctx, "e", 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "e", 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, repo.isDown.Load())
		assert.False(t, repo.recoveryDue())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}

func TestFailoverWithRealStores(t *testing.T) {
	logger := zerolog.New(io.Discard)
	repo := NewFailoverRateLimiter(NewRedisRateLimiter(nil), NewMemoryRateLimiter(), &logger)

	allowed, err := repo.CheckRateLimit(context.Background(), "ip", 1, time.Minute)
	assert.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = repo.CheckRateLimit(context.Background(), "ip", 1, time.Minute)
	assert.NoError(t, err)
	assert.False(t, allowed)
}
