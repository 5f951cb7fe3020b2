package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campuschat/pkg/apperrors"
)

// Result describes the outcome of one counter increment.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	Limit      int
}

// CounterStore is the injected window counter. MemoryStore serves single
// process deployments; RedisStore shares the counters across instances so
// spreading requests over processes cannot bypass the limit.
type CounterStore interface {
	Incr(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// Limiter guards the send-message path. Counters are keyed by
// (school, user, conversation) so one noisy conversation cannot starve a
// user's other conversations.
type Limiter struct {
	store  CounterStore
	limit  int
	window time.Duration
}

func NewLimiter(store CounterStore, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window}
}

// AllowSend consumes one send slot and returns a RateLimitError carrying
// the window reset once the limit is exhausted.
func (l *Limiter) AllowSend(ctx context.Context, schoolID, userID, conversationID uuid.UUID) error {
	key := fmt.Sprintf("ratelimit:%s:%s:%s:messages", schoolID, userID, conversationID)
	res, err := l.store.Incr(ctx, key, l.limit, l.window)
	if err != nil {
		return err
	}
	if !res.Allowed {
		return &apperrors.RateLimitError{RetryAfter: res.RetryAfter}
	}
	return nil
}
