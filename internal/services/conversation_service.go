package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"campuschat/internal/audit"
	"campuschat/internal/authz"
	"campuschat/internal/domain"
	"campuschat/internal/events"
	"campuschat/internal/notify"
	"campuschat/internal/repository"
	"campuschat/pkg/apperrors"
	"campuschat/pkg/logger"
)

type CreateConversationInput struct {
	Type           domain.ConversationType
	Title          *string
	Avatar         *string
	ParticipantIDs []uuid.UUID
}

type UpdateConversationInput struct {
	Title  *string
	Avatar *string
}

type CreateInviteInput struct {
	ConversationID uuid.UUID
	InviteeID      uuid.UUID
	ExpiresAt      *time.Time
}

// ConversationSummary is one row of the conversation list: the conversation
// with the caller's unread count and pending draft attached.
type ConversationSummary struct {
	Conversation domain.Conversation  `json:"conversation"`
	UnreadCount  int64                `json:"unread_count"`
	Draft        *domain.MessageDraft `json:"draft,omitempty"`
}

// ConversationService owns the conversation lifecycle: creation, metadata,
// membership, invites and drafts. Fan-out, notification and audit are
// fire-and-forget side effects emitted after commit.
type ConversationService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	tx            repository.TxManager
	publisher     events.Publisher
	auditor       audit.Auditor
	notifier      notify.Notifier
	log           *logger.Logger
}

func NewConversationService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	tx repository.TxManager,
	publisher events.Publisher,
	auditor audit.Auditor,
	notifier notify.Notifier,
	log *logger.Logger,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		tx:            tx,
		publisher:     publisher,
		auditor:       auditor,
		notifier:      notifier,
		log:           log,
	}
}

// Create opens a conversation. Direct conversations are idempotent: two
// creates for the same pair return the same conversation, whichever order
// the participants are listed in and however the requests race.
func (s *ConversationService) Create(ctx context.Context, actor domain.Actor, input CreateConversationInput) (domain.Conversation, error) {
	if err := authz.Assert(authz.ActionCreateConversation, authz.Input{Actor: actor, CreateType: input.Type}); err != nil {
		return domain.Conversation{}, err
	}

	conv, err := domain.NewConversation(actor.SchoolID, actor.UserID, input.Type, input.Title, input.Avatar, input.ParticipantIDs)
	if err != nil {
		return domain.Conversation{}, err
	}

	if conv.Type == domain.ConversationTypeDirect {
		if existing, err := s.conversations.GetDirectByKey(ctx, actor.SchoolID, *conv.DirectKey); err == nil {
			return existing, nil
		}
	}

	if err := s.conversations.Create(ctx, conv); err != nil {
		// Lost a race on the direct key; the winner's row is the result.
		if conv.Type == domain.ConversationTypeDirect && errors.Is(err, apperrors.ErrAlreadyExists) {
			return s.conversations.GetDirectByKey(ctx, actor.SchoolID, *conv.DirectKey)
		}
		return domain.Conversation{}, err
	}

	s.emit(ctx, events.NewUserEvent(events.EventConversationNew, conv.ID, conv, participantIDs(conv)...))
	s.auditor.Record(ctx, audit.Entry{
		Action:   "conversation.create",
		UserID:   actor.UserID,
		SchoolID: actor.SchoolID,
		Metadata: map[string]any{"conversation_id": conv.ID, "type": conv.Type},
	})
	return *conv, nil
}

// Get returns the conversation when the actor may read it. Rows in another
// school resolve to not-found, never forbidden.
func (s *ConversationService) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Conversation, error) {
	conv, participant, err := s.load(ctx, actor, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	if err := authz.Assert(authz.ActionReadConversation, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return domain.Conversation{}, err
	}
	return conv, nil
}

// List returns the actor's conversations ordered by recency, each with its
// unread count and pending draft. Unread counts come from one aggregated
// query across all conversations, not one query per row.
func (s *ConversationService) List(ctx context.Context, actor domain.Actor) ([]ConversationSummary, error) {
	convs, err := s.conversations.ListForUser(ctx, actor.SchoolID, actor.UserID)
	if err != nil {
		return nil, err
	}

	unread, err := s.messages.GetUnreadCounts(ctx, actor.SchoolID, actor.UserID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		summary := ConversationSummary{Conversation: conv, UnreadCount: unread[conv.ID]}
		if draft, err := s.conversations.GetDraft(ctx, conv.ID, actor.UserID); err == nil {
			summary.Draft = &draft
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// UnreadTotal returns the actor's unread count across every conversation.
func (s *ConversationService) UnreadTotal(ctx context.Context, actor domain.Actor) (int64, error) {
	return s.messages.GetUnreadTotal(ctx, actor.SchoolID, actor.UserID)
}

func (s *ConversationService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, input UpdateConversationInput) (domain.Conversation, error) {
	conv, participant, err := s.load(ctx, actor, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	if err := authz.Assert(authz.ActionUpdateConversation, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return domain.Conversation{}, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		if conv.Type == domain.ConversationTypeDirect {
			return domain.Conversation{}, &apperrors.ValidationError{Reason: "direct conversations cannot have a title"}
		}
		if strings.TrimSpace(*input.Title) == "" {
			return domain.Conversation{}, &apperrors.ValidationError{Reason: "title cannot be empty"}
		}
		updates["title"] = *input.Title
	}
	if input.Avatar != nil {
		updates["avatar"] = *input.Avatar
	}
	if len(updates) == 0 {
		return conv, nil
	}

	if err := s.conversations.UpdateMeta(ctx, actor.SchoolID, id, updates); err != nil {
		return domain.Conversation{}, err
	}

	s.emit(ctx, events.NewConversationEvent(events.EventConversationUpdated, id, events.ConversationUpdatedPayload{
		ConversationID: id,
		Updates:        updates,
	}))
	return s.conversations.GetByID(ctx, actor.SchoolID, id)
}

func (s *ConversationService) SetArchived(ctx context.Context, actor domain.Actor, id uuid.UUID, archived bool) error {
	conv, participant, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := authz.Assert(authz.ActionArchiveConversation, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return err
	}

	if err := s.conversations.SetArchived(ctx, actor.SchoolID, id, archived); err != nil {
		return err
	}

	s.emit(ctx, events.NewConversationEvent(events.EventConversationArchived, id, events.ConversationArchivedPayload{
		ConversationID: id,
		Archived:       archived,
	}))
	s.auditor.Record(ctx, audit.Entry{
		Action:   "conversation.archive",
		UserID:   actor.UserID,
		SchoolID: actor.SchoolID,
		Metadata: map[string]any{"conversation_id": id, "archived": archived},
	})
	return nil
}

func (s *ConversationService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	conv, participant, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := authz.Assert(authz.ActionDeleteConversation, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return err
	}

	if err := s.conversations.Delete(ctx, actor.SchoolID, id); err != nil {
		return err
	}

	s.emit(ctx, events.NewUserEvent(events.EventConversationUpdated, id, events.ConversationUpdatedPayload{
		ConversationID: id,
		Updates:        map[string]any{"deleted": true},
	}, participantIDs(&conv)...))
	s.auditor.Record(ctx, audit.Entry{
		Action:   "conversation.delete",
		UserID:   actor.UserID,
		SchoolID: actor.SchoolID,
		Metadata: map[string]any{"conversation_id": id},
	})
	return nil
}

// AddParticipant joins a user to the conversation, as a member unless an
// explicit role is given. Granting a role follows the same rank rules as
// ChangeRole: non-owners cannot grant at or above their own rank. Direct
// conversations are sealed at two members for their lifetime.
func (s *ConversationService) AddParticipant(ctx context.Context, actor domain.Actor, conversationID, userID uuid.UUID, role *domain.ParticipantRole) error {
	conv, participant, err := s.load(ctx, actor, conversationID)
	if err != nil {
		return err
	}
	if err := authz.Assert(authz.ActionAddParticipant, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return err
	}
	if conv.Type == domain.ConversationTypeDirect {
		return apperrors.Conflictf("direct conversations cannot gain participants")
	}

	newRole := domain.ParticipantRoleMember
	if role != nil {
		if !role.Valid() {
			return apperrors.Validationf("unknown participant role %q", *role)
		}
		if *role != domain.ParticipantRoleMember {
			actorRole := domain.ParticipantRoleOwner
			if participant != nil {
				actorRole = participant.Role
			}
			if err := authz.AssertRoleChange(actorRole, domain.ParticipantRoleMember, *role); err != nil {
				return err
			}
		}
		newRole = *role
	}

	return s.join(ctx, &conv, userID, &actor.UserID, actor, newRole)
}

// join persists the membership with its system message atomically, then
// emits the fan-out.
func (s *ConversationService) join(ctx context.Context, conv *domain.Conversation, userID uuid.UUID, addedBy *uuid.UUID, actor domain.Actor, role domain.ParticipantRole) error {
	now := time.Now()
	newParticipant := &domain.Participant{
		ConversationID: conv.ID,
		UserID:         userID,
		Role:           role,
		JoinedAt:       now,
		AddedBy:        addedBy,
	}
	system := domain.NewSystemMessage(conv, actor.UserID, fmt.Sprintf("user %s joined the conversation", userID))

	err := s.tx.Do(ctx, func(r repository.Repos) error {
		if err := r.Conversations.AddParticipant(ctx, newParticipant); err != nil {
			if errors.Is(err, apperrors.ErrAlreadyExists) {
				return apperrors.Conflictf("user is already a participant")
			}
			return err
		}
		return r.Messages.Create(ctx, system)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, events.NewConversationEvent(events.EventConversationParticipantAdded, conv.ID, events.ParticipantPayload{
		ConversationID: conv.ID,
		UserID:         userID,
		Role:           newParticipant.Role,
		ActorID:        actor.UserID,
	}))
	s.notifier.Notify(ctx, notify.Notification{
		UserID:  userID,
		Type:    "conversation.added",
		Title:   "Added to a conversation",
		ActorID: actor.UserID,
	})
	return nil
}

// RemoveParticipant removes a member. Moderators may remove anyone below or
// at their rank; everyone may remove themselves (leave). The last owner can
// never be removed.
func (s *ConversationService) RemoveParticipant(ctx context.Context, actor domain.Actor, conversationID, userID uuid.UUID) error {
	conv, participant, err := s.load(ctx, actor, conversationID)
	if err != nil {
		return err
	}

	action := authz.ActionRemoveParticipant
	if actor.UserID == userID {
		action = authz.ActionLeaveConversation
	}
	if err := authz.Assert(action, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return err
	}

	target, err := s.conversations.GetParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if target.Role == domain.ParticipantRoleOwner {
		owners, err := s.conversations.CountOwners(ctx, conversationID)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return apperrors.Conflictf("cannot remove the last owner")
		}
	}

	system := domain.NewSystemMessage(&conv, actor.UserID, fmt.Sprintf("user %s left the conversation", userID))
	err = s.tx.Do(ctx, func(r repository.Repos) error {
		if err := r.Conversations.RemoveParticipant(ctx, conversationID, userID); err != nil {
			return err
		}
		return r.Messages.Create(ctx, system)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, events.NewConversationEvent(events.EventConversationParticipantRemoved, conversationID, events.ParticipantPayload{
		ConversationID: conversationID,
		UserID:         userID,
		ActorID:        actor.UserID,
	}))
	return nil
}

// ChangeRole reassigns a participant's conversation role, subject to the
// rank comparator: the actor must outrank or match the target, and only
// owners may hand out a role at or above their own.
func (s *ConversationService) ChangeRole(ctx context.Context, actor domain.Actor, conversationID, userID uuid.UUID, newRole domain.ParticipantRole) error {
	conv, participant, err := s.load(ctx, actor, conversationID)
	if err != nil {
		return err
	}
	if err := authz.Assert(authz.ActionChangeRole, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return err
	}

	target, err := s.conversations.GetParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}

	actorRole := domain.ParticipantRoleOwner
	if participant != nil {
		actorRole = participant.Role
	}
	if err := authz.AssertRoleChange(actorRole, target.Role, newRole); err != nil {
		return err
	}

	if target.Role == domain.ParticipantRoleOwner && newRole != domain.ParticipantRoleOwner {
		owners, err := s.conversations.CountOwners(ctx, conversationID)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return apperrors.Conflictf("cannot demote the last owner")
		}
	}

	if err := s.conversations.UpdateParticipantRole(ctx, conversationID, userID, newRole); err != nil {
		return err
	}

	s.emit(ctx, events.NewConversationEvent(events.EventConversationUpdated, conversationID, events.ParticipantPayload{
		ConversationID: conversationID,
		UserID:         userID,
		Role:           newRole,
		ActorID:        actor.UserID,
	}))
	return nil
}

// Invite offers membership. The invitee joins only on acceptance.
func (s *ConversationService) Invite(ctx context.Context, actor domain.Actor, input CreateInviteInput) (domain.ConversationInvite, error) {
	conv, participant, err := s.load(ctx, actor, input.ConversationID)
	if err != nil {
		return domain.ConversationInvite{}, err
	}
	if err := authz.Assert(authz.ActionAddParticipant, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return domain.ConversationInvite{}, err
	}
	if conv.Type == domain.ConversationTypeDirect {
		return domain.ConversationInvite{}, apperrors.Conflictf("direct conversations cannot gain participants")
	}
	if _, err := s.conversations.GetParticipant(ctx, conv.ID, input.InviteeID); err == nil {
		return domain.ConversationInvite{}, apperrors.Conflictf("user is already a participant")
	}

	invite, err := domain.NewInvite(&conv, actor.UserID, input.InviteeID, input.ExpiresAt)
	if err != nil {
		return domain.ConversationInvite{}, err
	}
	if err := s.conversations.CreateInvite(ctx, invite); err != nil {
		return domain.ConversationInvite{}, err
	}

	s.emit(ctx, events.NewUserEvent(events.EventConversationInvite, conv.ID, invite, input.InviteeID))
	s.notifier.Notify(ctx, notify.Notification{
		UserID:  input.InviteeID,
		Type:    "conversation.invite",
		Title:   "Conversation invite",
		ActorID: actor.UserID,
	})
	return *invite, nil
}

// RespondToInvite accepts or rejects a pending invite. Only the invitee may
// respond, and expired invites are settled lazily at response time.
func (s *ConversationService) RespondToInvite(ctx context.Context, actor domain.Actor, inviteID uuid.UUID, accept bool) error {
	invite, err := s.conversations.GetInviteByID(ctx, actor.SchoolID, inviteID)
	if err != nil {
		return err
	}
	if invite.InviteeID != actor.UserID {
		return &apperrors.AuthzError{Action: "respond to this invite"}
	}
	if invite.Status != domain.InviteStatusPending {
		return apperrors.Conflictf("invite is already %s", strings.ToLower(string(invite.Status)))
	}

	now := time.Now()
	if invite.Expired(now) {
		_ = s.conversations.UpdateInviteStatus(ctx, invite.ID, domain.InviteStatusExpired, now)
		return apperrors.Conflictf("invite has expired")
	}

	if !accept {
		return s.conversations.UpdateInviteStatus(ctx, invite.ID, domain.InviteStatusRejected, now)
	}

	conv, err := s.conversations.GetByID(ctx, actor.SchoolID, invite.ConversationID)
	if err != nil {
		return err
	}
	if err := s.conversations.UpdateInviteStatus(ctx, invite.ID, domain.InviteStatusAccepted, now); err != nil {
		return err
	}
	return s.join(ctx, &conv, actor.UserID, &invite.InviterID, actor, domain.ParticipantRoleMember)
}

func (s *ConversationService) ListInvites(ctx context.Context, actor domain.Actor) ([]domain.ConversationInvite, error) {
	return s.conversations.ListInvitesForInvitee(ctx, actor.SchoolID, actor.UserID)
}

// SaveDraft upserts the actor's draft for the conversation.
func (s *ConversationService) SaveDraft(ctx context.Context, actor domain.Actor, conversationID uuid.UUID, content string, replyToID *uuid.UUID) error {
	if _, _, err := s.loadAsParticipant(ctx, actor, conversationID); err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return s.conversations.DeleteDraft(ctx, conversationID, actor.UserID)
	}
	return s.conversations.SaveDraft(ctx, &domain.MessageDraft{
		ConversationID: conversationID,
		UserID:         actor.UserID,
		Content:        content,
		ReplyToID:      replyToID,
		UpdatedAt:      time.Now(),
	})
}

func (s *ConversationService) GetDraft(ctx context.Context, actor domain.Actor, conversationID uuid.UUID) (domain.MessageDraft, error) {
	if _, _, err := s.loadAsParticipant(ctx, actor, conversationID); err != nil {
		return domain.MessageDraft{}, err
	}
	return s.conversations.GetDraft(ctx, conversationID, actor.UserID)
}

func (s *ConversationService) DeleteDraft(ctx context.Context, actor domain.Actor, conversationID uuid.UUID) error {
	if _, _, err := s.loadAsParticipant(ctx, actor, conversationID); err != nil {
		return err
	}
	return s.conversations.DeleteDraft(ctx, conversationID, actor.UserID)
}

// load fetches the conversation school-scoped and the actor's participant
// row, nil when the actor is not a member.
func (s *ConversationService) load(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Conversation, *domain.Participant, error) {
	conv, err := s.conversations.GetByID(ctx, actor.SchoolID, id)
	if err != nil {
		return domain.Conversation{}, nil, err
	}
	participant, _ := conv.ParticipantByUser(actor.UserID)
	return conv, participant, nil
}

func (s *ConversationService) loadAsParticipant(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Conversation, *domain.Participant, error) {
	conv, participant, err := s.load(ctx, actor, id)
	if err != nil {
		return domain.Conversation{}, nil, err
	}
	if err := authz.Assert(authz.ActionReadConversation, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return domain.Conversation{}, nil, err
	}
	return conv, participant, nil
}

func (s *ConversationService) emit(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warnf("event fan-out failed for %s: %v", e.Name, err)
	}
}

func participantIDs(conv *domain.Conversation) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}
