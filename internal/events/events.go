package events

import (
	"time"

	"github.com/google/uuid"

	"campuschat/internal/domain"
)

// Event is one state change to fan out. Most events target the affected
// conversation's channel; events with explicit UserIDs (new conversations,
// invites) go to per-user channels instead. ExcludeUserID suppresses
// delivery to one connected user, used so typists never see their own
// typing events.
type Event struct {
	Name           string      `json:"event"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	UserIDs        []uuid.UUID `json:"-"`
	ExcludeUserID  *uuid.UUID  `json:"exclude_user_id,omitempty"`
	Payload        any         `json:"payload"`
	EmittedAt      time.Time   `json:"emitted_at"`
}

type MessageUpdatedPayload struct {
	MessageID uuid.UUID `json:"message_id"`
	Content   string    `json:"content"`
	EditedAt  time.Time `json:"edited_at"`
}

type MessageDeletedPayload struct {
	MessageID uuid.UUID `json:"message_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

type MessageReadPayload struct {
	MessageID uuid.UUID `json:"message_id"`
	UserID    uuid.UUID `json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}

// ConversationReadPayload marks a whole conversation as read; unlike
// MessageReadPayload it carries no message reference.
type ConversationReadPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	ReadAt         time.Time `json:"read_at"`
}

type ConversationUpdatedPayload struct {
	ConversationID uuid.UUID      `json:"conversation_id"`
	Updates        map[string]any `json:"updates"`
}

type ConversationArchivedPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Archived       bool      `json:"archived"`
}

type ParticipantPayload struct {
	ConversationID uuid.UUID              `json:"conversation_id"`
	UserID         uuid.UUID              `json:"user_id"`
	Role           domain.ParticipantRole `json:"role,omitempty"`
	ActorID        uuid.UUID              `json:"actor_id"`
}

type TypingPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
}

func NewMessageEvent(name string, m *domain.Message) Event {
	return Event{
		Name:           name,
		ConversationID: m.ConversationID,
		Payload:        m,
		EmittedAt:      time.Now(),
	}
}

func NewConversationEvent(name string, conversationID uuid.UUID, payload any) Event {
	return Event{
		Name:           name,
		ConversationID: conversationID,
		Payload:        payload,
		EmittedAt:      time.Now(),
	}
}

// NewUserEvent targets specific users instead of a conversation channel.
func NewUserEvent(name string, conversationID uuid.UUID, payload any, userIDs ...uuid.UUID) Event {
	return Event{
		Name:           name,
		ConversationID: conversationID,
		UserIDs:        userIDs,
		Payload:        payload,
		EmittedAt:      time.Now(),
	}
}

func NewTypingEvent(name string, conversationID, typistID uuid.UUID) Event {
	return Event{
		Name:           name,
		ConversationID: conversationID,
		ExcludeUserID:  &typistID,
		Payload:        TypingPayload{ConversationID: conversationID, UserID: typistID},
		EmittedAt:      time.Now(),
	}
}
