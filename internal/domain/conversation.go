package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"campuschat/pkg/apperrors"
)

type Conversation struct {
	ID       uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID uuid.UUID        `gorm:"type:uuid;not null;index:idx_conversations_school_type,priority:1" json:"school_id"`
	Type     ConversationType `gorm:"type:varchar(16);not null;index:idx_conversations_school_type,priority:2" json:"type"`
	Title    *string          `gorm:"type:text" json:"title,omitempty"`
	Avatar   *string          `gorm:"type:text" json:"avatar,omitempty"`
	// DirectKey is the normalized "low:high" pair of participant ids for
	// direct conversations. The unique index makes direct creation
	// idempotent regardless of participant ordering, even under
	// concurrent create requests.
	DirectKey     *string    `gorm:"type:varchar(80);uniqueIndex:idx_conversations_direct_key" json:"-"`
	LastMessageAt *time.Time `gorm:"index:idx_conversations_last_message,sort:desc" json:"last_message_at,omitempty"`
	IsArchived    bool       `gorm:"default:false" json:"is_archived"`
	CreatedBy     uuid.UUID  `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt     time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	Participants []Participant `gorm:"foreignKey:ConversationID" json:"participants,omitempty"`
}

type Participant struct {
	ConversationID uuid.UUID       `gorm:"type:uuid;primaryKey" json:"conversation_id"`
	UserID         uuid.UUID       `gorm:"type:uuid;primaryKey;index:idx_participants_user" json:"user_id"`
	Role           ParticipantRole `gorm:"type:varchar(16);default:'MEMBER';not null" json:"role"`
	Nickname       *string         `gorm:"type:text" json:"nickname,omitempty"`
	LastReadAt     *time.Time      `json:"last_read_at,omitempty"`
	IsMuted        bool            `gorm:"default:false" json:"is_muted"`
	MutedUntil     *time.Time      `json:"muted_until,omitempty"`
	// IsPinned is the participant's personal pin of the conversation in
	// their list, unrelated to pinned messages.
	IsPinned bool       `gorm:"default:false" json:"is_pinned"`
	JoinedAt time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"joined_at"`
	AddedBy  *uuid.UUID `gorm:"type:uuid" json:"added_by,omitempty"`
}

type ConversationInvite struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID    `gorm:"type:uuid;not null;index:idx_invites_conversation" json:"conversation_id"`
	SchoolID       uuid.UUID    `gorm:"type:uuid;not null" json:"school_id"`
	InviterID      uuid.UUID    `gorm:"type:uuid;not null" json:"inviter_id"`
	InviteeID      uuid.UUID    `gorm:"type:uuid;not null;index:idx_invites_invitee" json:"invitee_id"`
	Status         InviteStatus `gorm:"type:varchar(16);default:'PENDING';not null" json:"status"`
	ExpiresAt      *time.Time   `json:"expires_at,omitempty"`
	RespondedAt    *time.Time   `json:"responded_at,omitempty"`
	CreatedAt      time.Time    `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

type MessageDraft struct {
	ConversationID uuid.UUID  `gorm:"type:uuid;primaryKey" json:"conversation_id"`
	UserID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	ReplyToID      *uuid.UUID `gorm:"type:uuid" json:"reply_to_id,omitempty"`
	UpdatedAt      time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TypingIndicator is ephemeral state: never persisted to Postgres, held in
// Redis and filtered by StartedAt against the staleness window at read time.
type TypingIndicator struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	StartedAt      time.Time `json:"started_at"`
}

// NewConversation validates the type/title invariants and assembles the
// conversation with its participant rows. The creator always joins as owner,
// everyone else as member. Invalid combinations fail here, before any
// persistence is attempted.
func NewConversation(schoolID, creatorID uuid.UUID, convType ConversationType, title, avatar *string, otherIDs []uuid.UUID) (*Conversation, error) {
	if !convType.Valid() {
		return nil, apperrors.Validationf("unknown conversation type %q", convType)
	}

	members := dedupeParticipants(creatorID, otherIDs)

	if convType == ConversationTypeDirect {
		if title != nil {
			return nil, &apperrors.ValidationError{Reason: "direct conversations cannot have a title"}
		}
		if len(members) != 2 {
			return nil, apperrors.Validationf("direct conversations need exactly two distinct participants, got %d", len(members))
		}
	} else {
		if title == nil || strings.TrimSpace(*title) == "" {
			return nil, apperrors.Validationf("%s conversations require a title", strings.ToLower(string(convType)))
		}
	}

	now := time.Now()
	conv := &Conversation{
		ID:        uuid.New(),
		SchoolID:  schoolID,
		Type:      convType,
		Title:     title,
		Avatar:    avatar,
		CreatedBy: creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if convType == ConversationTypeDirect {
		key := DirectKey(members[0], members[1])
		conv.DirectKey = &key
	}

	for _, userID := range members {
		role := ParticipantRoleMember
		if userID == creatorID {
			role = ParticipantRoleOwner
		}
		conv.Participants = append(conv.Participants, Participant{
			ConversationID: conv.ID,
			UserID:         userID,
			Role:           role,
			JoinedAt:       now,
		})
	}
	return conv, nil
}

// DirectKey normalizes a pair of user ids into an order-independent key.
func DirectKey(a, b uuid.UUID) string {
	if a.String() > b.String() {
		a, b = b, a
	}
	return a.String() + ":" + b.String()
}

// NewInvite validates that any expiry lies strictly in the future.
func NewInvite(conv *Conversation, inviterID, inviteeID uuid.UUID, expiresAt *time.Time) (*ConversationInvite, error) {
	if inviterID == inviteeID {
		return nil, &apperrors.ValidationError{Reason: "cannot invite yourself"}
	}
	now := time.Now()
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, &apperrors.ValidationError{Reason: "invite expiry must be in the future"}
	}
	return &ConversationInvite{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SchoolID:       conv.SchoolID,
		InviterID:      inviterID,
		InviteeID:      inviteeID,
		Status:         InviteStatusPending,
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
	}, nil
}

// Expired reports whether the invite has passively expired. Expiry is a
// read-time check, no sweeper marks rows.
func (i *ConversationInvite) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}

// ParticipantByUser returns the participant row for userID, if present.
func (c *Conversation) ParticipantByUser(userID uuid.UUID) (*Participant, bool) {
	for idx := range c.Participants {
		if c.Participants[idx].UserID == userID {
			return &c.Participants[idx], true
		}
	}
	return nil, false
}

// OwnerCount counts owners among the loaded participants. Every
// conversation must keep at least one at all times.
func (c *Conversation) OwnerCount() int {
	n := 0
	for idx := range c.Participants {
		if c.Participants[idx].Role == ParticipantRoleOwner {
			n++
		}
	}
	return n
}

func dedupeParticipants(creatorID uuid.UUID, otherIDs []uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{creatorID: {}}
	members := []uuid.UUID{creatorID}
	for _, id := range otherIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	return members
}
