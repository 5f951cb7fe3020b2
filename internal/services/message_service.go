package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"campuschat/internal/audit"
	"campuschat/internal/authz"
	"campuschat/internal/domain"
	"campuschat/internal/events"
	"campuschat/internal/notify"
	"campuschat/internal/ratelimit"
	"campuschat/internal/repository"
	"campuschat/pkg/apperrors"
	"campuschat/pkg/logger"
)

type SendMessageInput struct {
	ConversationID uuid.UUID
	Content        string
	ContentType    domain.ContentType
	ReplyToID      *uuid.UUID
	Metadata       map[string]any
	Attachments    []AttachmentInput
}

type AttachmentInput struct {
	URL          string
	Name         string
	Size         int64
	Type         string
	ThumbnailURL *string
}

type LoadMessagesInput struct {
	ConversationID uuid.UUID
	Cursor         string
	Limit          int
	Direction      repository.Direction
}

// MessagePage is one page of history in ascending chronological order.
// NextCursor points past the newest row, PrevCursor before the oldest.
type MessagePage struct {
	Messages   []domain.Message `json:"messages"`
	HasMore    bool             `json:"has_more"`
	NextCursor string           `json:"next_cursor,omitempty"`
	PrevCursor string           `json:"prev_cursor,omitempty"`
}

// MessageService owns the message lifecycle: send, edit, delete, reactions,
// receipts, pins and history pagination. Sends commit the message row and
// the conversation recency bump in one transaction; everything after commit
// is best-effort.
type MessageService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	tx            repository.TxManager
	limiter       *ratelimit.Limiter
	publisher     events.Publisher
	auditor       audit.Auditor
	notifier      notify.Notifier
	log           *logger.Logger

	editWindow      time.Duration
	defaultPageSize int
	maxPageSize     int
}

func NewMessageService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	tx repository.TxManager,
	limiter *ratelimit.Limiter,
	publisher events.Publisher,
	auditor audit.Auditor,
	notifier notify.Notifier,
	log *logger.Logger,
	editWindow time.Duration,
	defaultPageSize, maxPageSize int,
) *MessageService {
	return &MessageService{
		conversations:   conversations,
		messages:        messages,
		tx:              tx,
		limiter:         limiter,
		publisher:       publisher,
		auditor:         auditor,
		notifier:        notifier,
		log:             log,
		editWindow:      editWindow,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// Send persists a message and bumps the conversation's recency in one
// transaction, then fans out, notifies and audits after commit.
func (s *MessageService) Send(ctx context.Context, actor domain.Actor, input SendMessageInput) (domain.Message, error) {
	conv, participant, err := s.loadConversation(ctx, actor, input.ConversationID)
	if err != nil {
		return domain.Message{}, err
	}
	if err := authz.Assert(authz.ActionSendMessage, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return domain.Message{}, err
	}
	if conv.IsArchived {
		return domain.Message{}, apperrors.Conflictf("conversation is archived")
	}

	if input.ReplyToID != nil {
		parent, err := s.messages.GetByID(ctx, actor.SchoolID, *input.ReplyToID)
		if err != nil {
			return domain.Message{}, err
		}
		if parent.ConversationID != conv.ID {
			return domain.Message{}, &apperrors.ValidationError{Reason: "reply target belongs to another conversation"}
		}
	}

	if err := s.limiter.AllowSend(ctx, actor.SchoolID, actor.UserID, conv.ID); err != nil {
		return domain.Message{}, err
	}

	msg, err := domain.NewMessage(&conv, actor.UserID, input.Content, input.ContentType, input.ReplyToID, input.Metadata)
	if err != nil {
		return domain.Message{}, err
	}

	err = s.tx.Do(ctx, func(r repository.Repos) error {
		if err := r.Messages.Create(ctx, msg); err != nil {
			return err
		}
		for _, a := range input.Attachments {
			attachment := &domain.MessageAttachment{
				ID:           uuid.New(),
				MessageID:    msg.ID,
				URL:          a.URL,
				Name:         a.Name,
				Size:         a.Size,
				Type:         a.Type,
				ThumbnailURL: a.ThumbnailURL,
				CreatedAt:    msg.CreatedAt,
			}
			if err := r.Messages.CreateAttachment(ctx, attachment); err != nil {
				return err
			}
			msg.Attachments = append(msg.Attachments, *attachment)
		}
		if err := r.Conversations.UpdateMeta(ctx, actor.SchoolID, conv.ID, map[string]any{"last_message_at": msg.CreatedAt}); err != nil {
			return err
		}
		// Sending clears any pending draft for this conversation.
		return r.Conversations.DeleteDraft(ctx, conv.ID, actor.UserID)
	})
	if err != nil {
		return domain.Message{}, err
	}

	s.emit(ctx, events.NewMessageEvent(events.EventMessageNew, msg))
	s.notifyParticipants(ctx, &conv, actor.UserID, msg)
	s.auditor.Record(ctx, audit.Entry{
		Action:   "message.send",
		UserID:   actor.UserID,
		SchoolID: actor.SchoolID,
		Metadata: map[string]any{"conversation_id": conv.ID, "message_id": msg.ID},
	})
	return *msg, nil
}

// Edit rewrites the content while the edit window is open. Only the sender
// may edit, moderators included.
func (s *MessageService) Edit(ctx context.Context, actor domain.Actor, messageID uuid.UUID, content string) (domain.Message, error) {
	msg, conv, participant, err := s.loadMessage(ctx, actor, messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if err := authz.Assert(authz.ActionEditMessage, authz.Input{
		Actor: actor, Conversation: &conv, Participant: participant, MessageSenderID: &msg.SenderID,
	}); err != nil {
		return domain.Message{}, err
	}

	if err := msg.ApplyEdit(content, time.Now(), s.editWindow); err != nil {
		return domain.Message{}, err
	}
	if err := s.messages.Update(ctx, &msg); err != nil {
		return domain.Message{}, err
	}

	s.emit(ctx, events.NewConversationEvent(events.EventMessageUpdated, msg.ConversationID, events.MessageUpdatedPayload{
		MessageID: msg.ID,
		Content:   msg.Content,
		EditedAt:  *msg.EditedAt,
	}))
	return msg, nil
}

// Delete soft-deletes: content is replaced by the deletion marker and the
// row kept so reply chains survive. Senders and moderators may delete.
func (s *MessageService) Delete(ctx context.Context, actor domain.Actor, messageID uuid.UUID) error {
	msg, conv, participant, err := s.loadMessage(ctx, actor, messageID)
	if err != nil {
		return err
	}
	if err := authz.Assert(authz.ActionDeleteMessage, authz.Input{
		Actor: actor, Conversation: &conv, Participant: participant, MessageSenderID: &msg.SenderID,
	}); err != nil {
		return err
	}

	now := time.Now()
	if err := msg.ApplyDelete(now); err != nil {
		return err
	}
	if err := s.messages.Update(ctx, &msg); err != nil {
		return err
	}

	s.emit(ctx, events.NewConversationEvent(events.EventMessageDeleted, msg.ConversationID, events.MessageDeletedPayload{
		MessageID: msg.ID,
		DeletedAt: now,
	}))
	s.auditor.Record(ctx, audit.Entry{
		Action:   "message.delete",
		UserID:   actor.UserID,
		SchoolID: actor.SchoolID,
		Metadata: map[string]any{"message_id": msg.ID, "sender_id": msg.SenderID},
	})
	return nil
}

// Load pages through history around a cursor. Pages always come back in
// ascending chronological order regardless of direction.
func (s *MessageService) Load(ctx context.Context, actor domain.Actor, input LoadMessagesInput) (MessagePage, error) {
	conv, participant, err := s.loadConversation(ctx, actor, input.ConversationID)
	if err != nil {
		return MessagePage{}, err
	}
	if err := authz.Assert(authz.ActionReadMessage, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return MessagePage{}, err
	}

	direction := input.Direction
	if direction == "" {
		direction = repository.DirectionBefore
	}
	if !direction.Valid() {
		return MessagePage{}, apperrors.Validationf("unknown pagination direction %q", direction)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	var cursor *repository.Cursor
	if input.Cursor != "" {
		cursor, err = repository.DecodeCursor(input.Cursor)
		if err != nil {
			return MessagePage{}, err
		}
	}

	msgs, hasMore, err := s.messages.GetPage(ctx, conv.ID, cursor, limit, direction)
	if err != nil {
		return MessagePage{}, err
	}

	page := MessagePage{Messages: msgs, HasMore: hasMore}
	if len(msgs) > 0 {
		oldest, newest := msgs[0], msgs[len(msgs)-1]
		page.PrevCursor = repository.CursorForMessage(oldest.CreatedAt, oldest.ID).Encode()
		page.NextCursor = repository.CursorForMessage(newest.CreatedAt, newest.ID).Encode()
	}
	return page, nil
}

// React adds an emoji reaction. Re-adding the same reaction is idempotent.
func (s *MessageService) React(ctx context.Context, actor domain.Actor, messageID uuid.UUID, emoji string) error {
	msg, conv, participant, err := s.loadMessage(ctx, actor, messageID)
	if err != nil {
		return err
	}
	if err := authz.Assert(authz.ActionReactToMessage, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return err
	}
	if err := msg.CanReact(); err != nil {
		return err
	}
	if emoji == "" {
		return &apperrors.ValidationError{Reason: "emoji is required"}
	}

	reaction := &domain.MessageReaction{
		ID:        uuid.New(),
		MessageID: msg.ID,
		UserID:    actor.UserID,
		Emoji:     emoji,
		CreatedAt: time.Now(),
	}
	if err := s.messages.AddReaction(ctx, reaction); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil
		}
		return err
	}

	s.emit(ctx, events.NewConversationEvent(events.EventMessageReaction, msg.ConversationID, reaction))
	return nil
}

// RemoveReaction drops a reaction; only its author may.
func (s *MessageService) RemoveReaction(ctx context.Context, actor domain.Actor, reactionID uuid.UUID) error {
	reaction, err := s.messages.GetReactionByID(ctx, reactionID)
	if err != nil {
		return err
	}
	if reaction.UserID != actor.UserID && actor.PlatformRole != domain.PlatformRoleDeveloper {
		return &apperrors.AuthzError{Action: "remove this reaction"}
	}

	msg, _, _, err := s.loadMessage(ctx, actor, reaction.MessageID)
	if err != nil {
		return err
	}
	if err := s.messages.RemoveReaction(ctx, reactionID); err != nil {
		return err
	}

	s.emit(ctx, events.NewConversationEvent(events.EventMessageReaction, msg.ConversationID, map[string]any{
		"message_id":  msg.ID,
		"reaction_id": reactionID,
		"removed":     true,
	}))
	return nil
}

// MarkRead records a read receipt for one message and advances the actor's
// conversation read position when the message is newer.
func (s *MessageService) MarkRead(ctx context.Context, actor domain.Actor, messageID uuid.UUID) error {
	msg, conv, participant, err := s.loadMessage(ctx, actor, messageID)
	if err != nil {
		return err
	}
	if err := authz.Assert(authz.ActionReadMessage, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return err
	}

	now := time.Now()
	if err := s.messages.UpsertReadReceipt(ctx, &domain.MessageReadReceipt{
		MessageID: msg.ID,
		UserID:    actor.UserID,
		ReadAt:    now,
	}); err != nil {
		return err
	}

	if participant != nil && (participant.LastReadAt == nil || participant.LastReadAt.Before(msg.CreatedAt)) {
		if err := s.conversations.SetLastReadAt(ctx, conv.ID, actor.UserID, msg.CreatedAt); err != nil {
			return err
		}
	}

	s.emit(ctx, events.NewConversationEvent(events.EventMessageRead, conv.ID, events.MessageReadPayload{
		MessageID: msg.ID,
		UserID:    actor.UserID,
		ReadAt:    now,
	}))
	return nil
}

// MarkConversationRead advances the read position to now, zeroing the
// conversation's unread count for the actor.
func (s *MessageService) MarkConversationRead(ctx context.Context, actor domain.Actor, conversationID uuid.UUID) error {
	conv, participant, err := s.loadConversation(ctx, actor, conversationID)
	if err != nil {
		return err
	}
	if err := authz.Assert(authz.ActionReadMessage, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return err
	}
	if participant == nil {
		return apperrors.ErrNotFound
	}

	now := time.Now()
	if err := s.conversations.SetLastReadAt(ctx, conv.ID, actor.UserID, now); err != nil {
		return err
	}

	s.emit(ctx, events.NewConversationEvent(events.EventConversationRead, conv.ID, events.ConversationReadPayload{
		ConversationID: conv.ID,
		UserID:         actor.UserID,
		ReadAt:         now,
	}))
	return nil
}

func (s *MessageService) ReadReceipts(ctx context.Context, actor domain.Actor, messageID uuid.UUID) ([]domain.MessageReadReceipt, error) {
	_, conv, participant, err := s.loadMessage(ctx, actor, messageID)
	if err != nil {
		return nil, err
	}
	if err := authz.Assert(authz.ActionReadMessage, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return nil, err
	}
	return s.messages.GetReadReceipts(ctx, messageID)
}

// Pin marks a message for the conversation's pinned list.
func (s *MessageService) Pin(ctx context.Context, actor domain.Actor, messageID uuid.UUID) error {
	msg, conv, participant, err := s.loadMessage(ctx, actor, messageID)
	if err != nil {
		return err
	}
	if err := authz.Assert(authz.ActionPinMessage, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return err
	}
	if msg.IsDeleted {
		return apperrors.Conflictf("cannot pin a deleted message")
	}

	err = s.messages.Pin(ctx, &domain.PinnedMessage{
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		PinnedBy:       actor.UserID,
		PinnedAt:       time.Now(),
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil
		}
		return err
	}

	s.emit(ctx, events.NewConversationEvent(events.EventConversationUpdated, msg.ConversationID, map[string]any{
		"pinned_message_id": msg.ID,
	}))
	return nil
}

func (s *MessageService) Unpin(ctx context.Context, actor domain.Actor, messageID uuid.UUID) error {
	msg, conv, participant, err := s.loadMessage(ctx, actor, messageID)
	if err != nil {
		return err
	}
	if err := authz.Assert(authz.ActionPinMessage, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return err
	}
	return s.messages.Unpin(ctx, msg.ConversationID, msg.ID)
}

func (s *MessageService) ListPinned(ctx context.Context, actor domain.Actor, conversationID uuid.UUID) ([]domain.PinnedMessage, error) {
	conv, participant, err := s.loadConversation(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}
	if err := authz.Assert(authz.ActionReadMessage, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return nil, err
	}
	return s.messages.ListPinned(ctx, conv.ID)
}

// Broadcast posts to an announcement conversation. Only moderators of the
// announcement channel or elevated platform roles may.
func (s *MessageService) Broadcast(ctx context.Context, actor domain.Actor, conversationID uuid.UUID, content string) (domain.Message, error) {
	conv, participant, err := s.loadConversation(ctx, actor, conversationID)
	if err != nil {
		return domain.Message{}, err
	}
	if err := authz.Assert(authz.ActionSendBroadcast, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return domain.Message{}, err
	}

	msg, err := domain.NewMessage(&conv, actor.UserID, content, domain.ContentTypeText, nil, nil)
	if err != nil {
		return domain.Message{}, err
	}

	err = s.tx.Do(ctx, func(r repository.Repos) error {
		if err := r.Messages.Create(ctx, msg); err != nil {
			return err
		}
		return r.Conversations.UpdateMeta(ctx, actor.SchoolID, conv.ID, map[string]any{"last_message_at": msg.CreatedAt})
	})
	if err != nil {
		return domain.Message{}, err
	}

	s.emit(ctx, events.NewMessageEvent(events.EventMessageNew, msg))
	s.auditor.Record(ctx, audit.Entry{
		Action:   "message.broadcast",
		UserID:   actor.UserID,
		SchoolID: actor.SchoolID,
		Metadata: map[string]any{"conversation_id": conv.ID, "message_id": msg.ID},
	})
	return *msg, nil
}

func (s *MessageService) loadConversation(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Conversation, *domain.Participant, error) {
	conv, err := s.conversations.GetByID(ctx, actor.SchoolID, id)
	if err != nil {
		return domain.Conversation{}, nil, err
	}
	participant, _ := conv.ParticipantByUser(actor.UserID)
	return conv, participant, nil
}

func (s *MessageService) loadMessage(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Message, domain.Conversation, *domain.Participant, error) {
	msg, err := s.messages.GetByID(ctx, actor.SchoolID, id)
	if err != nil {
		return domain.Message{}, domain.Conversation{}, nil, err
	}
	conv, participant, err := s.loadConversation(ctx, actor, msg.ConversationID)
	if err != nil {
		return domain.Message{}, domain.Conversation{}, nil, err
	}
	return msg, conv, participant, nil
}

// notifyParticipants pings every recipient except the sender, skipping
// muted memberships. Timed mutes are honored at read time; no job unmutes.
func (s *MessageService) notifyParticipants(ctx context.Context, conv *domain.Conversation, senderID uuid.UUID, msg *domain.Message) {
	now := time.Now()
	for _, p := range conv.Participants {
		if p.UserID == senderID {
			continue
		}
		if p.IsMuted && (p.MutedUntil == nil || p.MutedUntil.After(now)) {
			continue
		}
		s.notifier.Notify(ctx, notify.Notification{
			UserID:  p.UserID,
			Type:    "message.new",
			Title:   "New message",
			ActorID: senderID,
			Metadata: map[string]any{
				"conversation_id": conv.ID,
				"message_id":      msg.ID,
			},
		})
	}
}

func (s *MessageService) emit(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warnf("event fan-out failed for %s: %v", e.Name, err)
	}
}
