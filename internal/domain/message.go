package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"campuschat/pkg/apperrors"
)

// MaxContentLength caps message content, counted in code points.
const MaxContentLength = 4000

// DeletionMarker replaces the content of soft-deleted messages. The row is
// kept so reply chains stay intact.
const DeletionMarker = "[message deleted]"

type Message struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID      `gorm:"type:uuid;not null;index:idx_messages_history,priority:1;index:idx_messages_deleted,priority:1" json:"conversation_id"`
	SchoolID       uuid.UUID      `gorm:"type:uuid;not null" json:"school_id"`
	SenderID       uuid.UUID      `gorm:"type:uuid;not null" json:"sender_id"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	ContentType    ContentType    `gorm:"type:varchar(16);default:'TEXT';not null" json:"content_type"`
	ReplyToID      *uuid.UUID     `gorm:"type:uuid" json:"reply_to_id,omitempty"`
	Status         MessageStatus  `gorm:"type:varchar(16);default:'SENT';not null" json:"status"`
	IsEdited       bool           `gorm:"default:false" json:"is_edited"`
	EditedAt       *time.Time     `json:"edited_at,omitempty"`
	IsDeleted      bool           `gorm:"default:false;index:idx_messages_deleted,priority:2" json:"is_deleted"`
	DeletedAt      *time.Time     `json:"deleted_at,omitempty"`
	IsSystem       bool           `gorm:"default:false" json:"is_system"`
	Metadata       map[string]any `gorm:"type:jsonb;serializer:json" json:"metadata,omitempty"`
	CreatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP;index:idx_messages_history,priority:2" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	Attachments []MessageAttachment `gorm:"foreignKey:MessageID" json:"attachments,omitempty"`
	Reactions   []MessageReaction   `gorm:"foreignKey:MessageID" json:"reactions,omitempty"`
}

type MessageAttachment struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID    uuid.UUID `gorm:"type:uuid;not null;index:idx_attachments_message" json:"message_id"`
	URL          string    `gorm:"type:text;not null" json:"url"`
	Name         string    `gorm:"type:text;not null" json:"name"`
	Size         int64     `gorm:"not null" json:"size"`
	Type         string    `gorm:"type:varchar(128)" json:"type"`
	ThumbnailURL *string   `gorm:"type:text" json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

type MessageReaction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reactions_unique,priority:1;index:idx_reactions_message" json:"message_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reactions_unique,priority:2" json:"user_id"`
	Emoji     string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_reactions_unique,priority:3" json:"emoji"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// MessageReadReceipt is upserted per (message, user); last write wins.
type MessageReadReceipt struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey;index:idx_receipts_message" json:"message_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	ReadAt    time.Time `gorm:"not null" json:"read_at"`
}

type PinnedMessage struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey" json:"conversation_id"`
	MessageID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"message_id"`
	PinnedBy       uuid.UUID `gorm:"type:uuid;not null" json:"pinned_by"`
	PinnedAt       time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"pinned_at"`
}

// NewMessage validates content and assembles a message in the sent state.
// Persisted messages are born sent; "sending" only exists on clients.
func NewMessage(conv *Conversation, senderID uuid.UUID, content string, contentType ContentType, replyToID *uuid.UUID, metadata map[string]any) (*Message, error) {
	if err := ValidateContent(content); err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = ContentTypeText
	}
	now := time.Now()
	return &Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SchoolID:       conv.SchoolID,
		SenderID:       senderID,
		Content:        content,
		ContentType:    contentType,
		ReplyToID:      replyToID,
		Status:         MessageStatusSent,
		Metadata:       metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// NewSystemMessage builds a server-generated message, e.g. "X added Y".
func NewSystemMessage(conv *Conversation, actorID uuid.UUID, content string) *Message {
	now := time.Now()
	return &Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SchoolID:       conv.SchoolID,
		SenderID:       actorID,
		Content:        content,
		ContentType:    ContentTypeText,
		Status:         MessageStatusSent,
		IsSystem:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return &apperrors.ValidationError{Reason: "message content is empty"}
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return apperrors.Validationf("message content exceeds %d characters", MaxContentLength)
	}
	return nil
}

// ApplyEdit transitions the message to its edited form. Deleted messages are
// immutable, and edits are only legal strictly inside the edit window.
func (m *Message) ApplyEdit(content string, now time.Time, window time.Duration) error {
	if m.IsDeleted {
		return apperrors.Conflictf("message is deleted")
	}
	if now.Sub(m.CreatedAt) >= window {
		return apperrors.Conflictf("edit window of %s has expired", window)
	}
	if err := ValidateContent(content); err != nil {
		return err
	}
	m.Content = content
	m.IsEdited = true
	m.EditedAt = &now
	m.UpdatedAt = now
	return nil
}

// ApplyDelete soft-deletes: the content is replaced by the deletion marker
// and the message becomes immutable.
func (m *Message) ApplyDelete(now time.Time) error {
	if m.IsDeleted {
		return apperrors.Conflictf("message is already deleted")
	}
	m.Content = DeletionMarker
	m.IsDeleted = true
	m.DeletedAt = &now
	m.UpdatedAt = now
	return nil
}

// CanReact rejects reactions on deleted messages; they render inert.
func (m *Message) CanReact() error {
	if m.IsDeleted {
		return apperrors.Conflictf("cannot react to a deleted message")
	}
	return nil
}
