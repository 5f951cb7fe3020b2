package httpdto

import (
	"time"

	"github.com/google/uuid"
)

type CreateConversationRequest struct {
	Type           string      `json:"type" binding:"required"`
	Title          *string     `json:"title"`
	Avatar         *string     `json:"avatar"`
	ParticipantIDs []uuid.UUID `json:"participant_ids"`
}

type UpdateConversationRequest struct {
	Title  *string `json:"title"`
	Avatar *string `json:"avatar"`
}

type ArchiveConversationRequest struct {
	Archived *bool `json:"archived" binding:"required"`
}

type AddParticipantRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Role   *string   `json:"role"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type CreateInviteRequest struct {
	InviteeID uuid.UUID  `json:"invitee_id" binding:"required"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type RespondInviteRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

type SaveDraftRequest struct {
	Content   string     `json:"content"`
	ReplyToID *uuid.UUID `json:"reply_to_id"`
}
