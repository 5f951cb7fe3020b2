package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"campuschat/internal/domain"
)

// ConversationRepository persists conversations, participants, invites and
// drafts. Every lookup is scoped by school id inside the query predicate so
// cross-tenant probes resolve to not-found.
type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, schoolID, id uuid.UUID) (domain.Conversation, error)
	GetDirectByKey(ctx context.Context, schoolID uuid.UUID, directKey string) (domain.Conversation, error)
	UpdateMeta(ctx context.Context, schoolID, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, schoolID, id uuid.UUID) error
	SetArchived(ctx context.Context, schoolID, id uuid.UUID, archived bool) error
	ListForUser(ctx context.Context, schoolID, userID uuid.UUID) ([]domain.Conversation, error)

	AddParticipant(ctx context.Context, p *domain.Participant) error
	RemoveParticipant(ctx context.Context, conversationID, userID uuid.UUID) error
	GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (domain.Participant, error)
	UpdateParticipantRole(ctx context.Context, conversationID, userID uuid.UUID, role domain.ParticipantRole) error
	CountOwners(ctx context.Context, conversationID uuid.UUID) (int64, error)
	SetLastReadAt(ctx context.Context, conversationID, userID uuid.UUID, at time.Time) error

	CreateInvite(ctx context.Context, inv *domain.ConversationInvite) error
	GetInviteByID(ctx context.Context, schoolID, id uuid.UUID) (domain.ConversationInvite, error)
	UpdateInviteStatus(ctx context.Context, id uuid.UUID, status domain.InviteStatus, respondedAt time.Time) error
	ListInvitesForInvitee(ctx context.Context, schoolID, inviteeID uuid.UUID) ([]domain.ConversationInvite, error)

	SaveDraft(ctx context.Context, d *domain.MessageDraft) error
	GetDraft(ctx context.Context, conversationID, userID uuid.UUID) (domain.MessageDraft, error)
	DeleteDraft(ctx context.Context, conversationID, userID uuid.UUID) error
}

// MessageRepository persists messages and their satellites, and answers the
// read-side queries: cursor pagination and aggregated unread counts.
type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	GetByID(ctx context.Context, schoolID, id uuid.UUID) (domain.Message, error)
	Update(ctx context.Context, m *domain.Message) error

	// GetPage fetches take+1 rows around the cursor to detect hasMore
	// without a count query. Results are always returned in ascending
	// chronological order.
	GetPage(ctx context.Context, conversationID uuid.UUID, cursor *Cursor, take int, direction Direction) ([]domain.Message, bool, error)

	UpsertReadReceipt(ctx context.Context, r *domain.MessageReadReceipt) error
	GetReadReceipts(ctx context.Context, messageID uuid.UUID) ([]domain.MessageReadReceipt, error)

	AddReaction(ctx context.Context, r *domain.MessageReaction) error
	GetReactionByID(ctx context.Context, id uuid.UUID) (domain.MessageReaction, error)
	RemoveReaction(ctx context.Context, id uuid.UUID) error

	Pin(ctx context.Context, p *domain.PinnedMessage) error
	Unpin(ctx context.Context, conversationID, messageID uuid.UUID) error
	ListPinned(ctx context.Context, conversationID uuid.UUID) ([]domain.PinnedMessage, error)

	CreateAttachment(ctx context.Context, a *domain.MessageAttachment) error
	GetAttachments(ctx context.Context, messageID uuid.UUID) ([]domain.MessageAttachment, error)

	// GetUnreadTotal and GetUnreadCounts aggregate across all of the
	// user's conversations in one query each; the per-conversation
	// variant groups the same aggregation by conversation id.
	GetUnreadTotal(ctx context.Context, schoolID, userID uuid.UUID) (int64, error)
	GetUnreadCounts(ctx context.Context, schoolID, userID uuid.UUID) (map[uuid.UUID]int64, error)
}

// Repos bundles the repositories handed to a unit of work.
type Repos struct {
	Conversations ConversationRepository
	Messages      MessageRepository
}

// TxManager runs a function against repositories bound to one database
// transaction. The send path uses it so the message insert and the
// conversation's last_message_at bump commit together.
type TxManager interface {
	Do(ctx context.Context, fn func(r Repos) error) error
}
