package websocket

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Subscriber is the wire side of the bridge (Redis pub/sub in production).
type Subscriber interface {
	Subscribe(ctx context.Context, patterns []string, handler func(channel string, payload []byte)) error
}

// envelope reads just enough of a published event to honor the exclusion;
// the payload is forwarded to clients verbatim.
type envelope struct {
	ExcludeUserID *uuid.UUID `json:"exclude_user_id,omitempty"`
}

// RedisBridge relays published events into the local hub so every node
// delivers to its own connected clients.
type RedisBridge struct {
	subscriber Subscriber
	hub        *Hub
}

func NewRedisBridge(subscriber Subscriber, hub *Hub) *RedisBridge {
	return &RedisBridge{subscriber: subscriber, hub: hub}
}

func (b *RedisBridge) Run(ctx context.Context, patterns []string) error {
	return b.subscriber.Subscribe(ctx, patterns, func(channel string, payload []byte) {
		var env envelope
		_ = json.Unmarshal(payload, &env)
		b.hub.Broadcast(channel, payload, env.ExcludeUserID)
	})
}
