package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"campuschat/internal/domain"
)

// TypingStore tracks who is typing in a conversation. Each start writes the
// started-at timestamp into a per-conversation hash; reads filter entries
// against the staleness window instead of deleting them, so no cleanup job
// or per-entry TTL is needed. The hash itself expires shortly after the
// last write to keep Redis tidy.
type TypingStore struct {
	client *goredis.Client
	window time.Duration
}

func NewTypingStore(client *goredis.Client, window time.Duration) *TypingStore {
	if window == 0 {
		window = 5 * time.Second
	}
	return &TypingStore{client: client, window: window}
}

func typingKey(conversationID uuid.UUID) string {
	return fmt.Sprintf("typing:%s", conversationID)
}

// Start records that the user began typing now.
func (s *TypingStore) Start(ctx context.Context, conversationID, userID uuid.UUID) error {
	key := typingKey(conversationID)
	now := time.Now().UnixNano()

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, userID.String(), now)
	pipe.Expire(ctx, key, 10*s.window)
	_, err := pipe.Exec(ctx)
	return err
}

// Stop drops the user's entry eagerly; stale entries fall out of reads on
// their own either way.
func (s *TypingStore) Stop(ctx context.Context, conversationID, userID uuid.UUID) error {
	return s.client.HDel(ctx, typingKey(conversationID), userID.String()).Err()
}

// Active returns the indicators still inside the staleness window.
func (s *TypingStore) Active(ctx context.Context, conversationID uuid.UUID) ([]domain.TypingIndicator, error) {
	entries, err := s.client.HGetAll(ctx, typingKey(conversationID)).Result()
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-s.window)
	var active []domain.TypingIndicator
	for field, value := range entries {
		userID, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		nanos, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		startedAt := time.Unix(0, nanos)
		if startedAt.Before(cutoff) {
			continue
		}
		active = append(active, domain.TypingIndicator{
			ConversationID: conversationID,
			UserID:         userID,
			StartedAt:      startedAt,
		})
	}
	return active, nil
}
