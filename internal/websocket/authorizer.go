package websocket

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"campuschat/internal/domain"
	"campuschat/internal/events"
	"campuschat/internal/repository"
)

// ChannelAuthorizer decides whether a connected user may subscribe to a
// channel. Users get their own user channel; conversation channels require
// participation, or an elevated platform role within the same school.
type ChannelAuthorizer struct {
	conversations repository.ConversationRepository
}

func NewChannelAuthorizer(conversations repository.ConversationRepository) *ChannelAuthorizer {
	return &ChannelAuthorizer{conversations: conversations}
}

func (a *ChannelAuthorizer) CanSubscribe(ctx context.Context, actor domain.Actor, channel string) (bool, error) {
	if strings.HasPrefix(channel, events.ChannelPrefixUser) {
		return channel == events.ChannelPrefixUser+actor.UserID.String(), nil
	}

	if strings.HasPrefix(channel, events.ChannelPrefixConversation) {
		convID, err := uuid.Parse(strings.TrimPrefix(channel, events.ChannelPrefixConversation))
		if err != nil {
			return false, nil
		}
		if _, err := a.conversations.GetParticipant(ctx, convID, actor.UserID); err == nil {
			return true, nil
		}
		if actor.PlatformRole.Elevated() {
			if _, err := a.conversations.GetByID(ctx, actor.SchoolID, convID); err == nil {
				return true, nil
			}
		}
		return false, nil
	}

	return false, nil
}
