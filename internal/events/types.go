package events

// Event names delivered to connected participants. Delivery is best-effort
// at-most-once, in server commit order per conversation; offline clients
// reconcile through the query layer on reconnect.
const (
	EventMessageNew      = "message:new"
	EventMessageUpdated  = "message:updated"
	EventMessageDeleted  = "message:deleted"
	EventMessageRead     = "message:read"
	EventMessageReaction = "message:reaction"

	EventConversationNew                = "conversation:new"
	EventConversationUpdated            = "conversation:updated"
	EventConversationArchived           = "conversation:archived"
	EventConversationParticipantAdded   = "conversation:participant_added"
	EventConversationParticipantRemoved = "conversation:participant_removed"
	EventConversationInvite             = "conversation:invite"
	EventConversationRead               = "conversation:read"

	EventTypingStart = "typing:start"
	EventTypingStop  = "typing:stop"
)

// Redis channel prefixes the resolver maps events onto.
const (
	ChannelPrefixConversation = "channel:conversation:"
	ChannelPrefixUser         = "channel:user:"
)
