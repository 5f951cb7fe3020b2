package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWire struct {
	published map[string][]byte
	err       error
}

func (w *captureWire) Publish(_ context.Context, channel string, payload []byte) error {
	if w.published == nil {
		w.published = make(map[string][]byte)
	}
	w.published[channel] = payload
	return w.err
}

func TestResolveChannelsConversation(t *testing.T) {
	convID := uuid.New()
	e := NewConversationEvent(EventMessageNew, convID, nil)

	channels := NewChannelResolver().ResolveChannels(e)
	require.Len(t, channels, 1)
	assert.Equal(t, ChannelPrefixConversation+convID.String(), channels[0])
}

func TestResolveChannelsUserTargets(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()
	e := NewUserEvent(EventConversationInvite, uuid.New(), nil, u1, u2)

	channels := NewChannelResolver().ResolveChannels(e)
	assert.ElementsMatch(t, []string{
		ChannelPrefixUser + u1.String(),
		ChannelPrefixUser + u2.String(),
	}, channels)
}

func TestResolveChannelsEmptyEvent(t *testing.T) {
	assert.Empty(t, NewChannelResolver().ResolveChannels(Event{Name: EventMessageNew}))
}

func TestTypingEventExcludesTypist(t *testing.T) {
	convID, typist := uuid.New(), uuid.New()
	e := NewTypingEvent(EventTypingStart, convID, typist)

	require.NotNil(t, e.ExcludeUserID)
	assert.Equal(t, typist, *e.ExcludeUserID)

	// The exclusion survives the wire format so every node can honor it.
	data, err := json.Marshal(e)
	require.NoError(t, err)
	var decoded struct {
		ExcludeUserID *uuid.UUID `json:"exclude_user_id"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.ExcludeUserID)
	assert.Equal(t, typist, *decoded.ExcludeUserID)
}

func TestPublisherFansOutToAllChannels(t *testing.T) {
	wire := &captureWire{}
	publisher := NewPublisher(wire, NewChannelResolver())

	u1, u2 := uuid.New(), uuid.New()
	e := NewUserEvent(EventConversationNew, uuid.New(), map[string]any{"x": 1}, u1, u2)

	require.NoError(t, publisher.Publish(context.Background(), e))
	assert.Len(t, wire.published, 2)
	assert.Contains(t, wire.published, ChannelPrefixUser+u1.String())
	assert.Contains(t, wire.published, ChannelPrefixUser+u2.String())
}

func TestPublisherNoChannelsIsNoop(t *testing.T) {
	wire := &captureWire{}
	publisher := NewPublisher(wire, NewChannelResolver())

	require.NoError(t, publisher.Publish(context.Background(), Event{Name: EventMessageNew}))
	assert.Empty(t, wire.published)
}
