package events

import (
	"context"
	"encoding/json"
)

// WirePublisher is the raw channel transport (Redis pub/sub in production).
type WirePublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Publisher fans an event out to every channel the resolver maps it to.
// Returning an error is for logging only; callers treat fan-out as a
// best-effort side effect and never fail a command on it.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type ChannelPublisher struct {
	wire     WirePublisher
	resolver ChannelResolver
}

func NewPublisher(wire WirePublisher, resolver ChannelResolver) *ChannelPublisher {
	return &ChannelPublisher{wire: wire, resolver: resolver}
}

func (p *ChannelPublisher) Publish(ctx context.Context, e Event) error {
	channels := p.resolver.ResolveChannels(e)
	if len(channels) == 0 {
		return nil
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	var firstErr error
	for _, channel := range channels {
		if err := p.wire.Publish(ctx, channel, data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
