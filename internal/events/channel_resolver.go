package events

import "github.com/google/uuid"

// ChannelResolver determines which pub/sub channels an event is published
// to: per-user channels when explicit recipients are set, otherwise the
// conversation channel every connected participant is subscribed to.
type ChannelResolver interface {
	ResolveChannels(e Event) []string
}

type DefaultChannelResolver struct{}

func NewChannelResolver() *DefaultChannelResolver {
	return &DefaultChannelResolver{}
}

func (r *DefaultChannelResolver) ResolveChannels(e Event) []string {
	if len(e.UserIDs) > 0 {
		channels := make([]string, 0, len(e.UserIDs))
		for _, userID := range e.UserIDs {
			channels = append(channels, ChannelPrefixUser+userID.String())
		}
		return channels
	}
	if e.ConversationID != uuid.Nil {
		return []string{ChannelPrefixConversation + e.ConversationID.String()}
	}
	return nil
}
