package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuschat/pkg/apperrors"
)

func TestLimiterAllowsUpToLimit(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(), 3, time.Minute)
	schoolID, userID, convID := uuid.New(), uuid.New(), uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.AllowSend(context.Background(), schoolID, userID, convID))
	}

	err := limiter.AllowSend(context.Background(), schoolID, userID, convID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRateLimited)

	var rateErr *apperrors.RateLimitError
	require.True(t, errors.As(err, &rateErr))
	assert.Greater(t, rateErr.RetryAfter, time.Duration(0))
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(), 1, time.Minute)
	schoolID, userID := uuid.New(), uuid.New()

	require.NoError(t, limiter.AllowSend(context.Background(), schoolID, userID, uuid.New()))
	// A different conversation has its own window.
	require.NoError(t, limiter.AllowSend(context.Background(), schoolID, userID, uuid.New()))
}

func TestMemoryStoreWindowReset(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	store := NewMemoryStoreWithClock(func() time.Time { return clock() })

	ctx := context.Background()
	res, err := store.Incr(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	res, err = store.Incr(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Minute, res.RetryAfter)

	// Advancing past the window opens a fresh one.
	now = now.Add(time.Minute + time.Second)
	res, err = store.Incr(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
