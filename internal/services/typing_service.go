package services

import (
	"context"

	"github.com/google/uuid"

	"campuschat/internal/authz"
	"campuschat/internal/domain"
	"campuschat/internal/events"
	redisx "campuschat/internal/redis"
	"campuschat/internal/repository"
	"campuschat/pkg/logger"
)

// TypingService handles typing indicators. They are ephemeral: held in
// Redis, filtered against the staleness window at read time, never
// persisted to Postgres.
type TypingService struct {
	conversations repository.ConversationRepository
	store         *redisx.TypingStore
	publisher     events.Publisher
	log           *logger.Logger
}

func NewTypingService(
	conversations repository.ConversationRepository,
	store *redisx.TypingStore,
	publisher events.Publisher,
	log *logger.Logger,
) *TypingService {
	return &TypingService{conversations: conversations, store: store, publisher: publisher, log: log}
}

// Start records the indicator and fans out typing:start to everyone in the
// conversation except the typist.
func (s *TypingService) Start(ctx context.Context, actor domain.Actor, conversationID uuid.UUID) error {
	if err := s.assertParticipant(ctx, actor, conversationID); err != nil {
		return err
	}
	if err := s.store.Start(ctx, conversationID, actor.UserID); err != nil {
		return err
	}
	s.emit(ctx, events.NewTypingEvent(events.EventTypingStart, conversationID, actor.UserID))
	return nil
}

func (s *TypingService) Stop(ctx context.Context, actor domain.Actor, conversationID uuid.UUID) error {
	if err := s.assertParticipant(ctx, actor, conversationID); err != nil {
		return err
	}
	if err := s.store.Stop(ctx, conversationID, actor.UserID); err != nil {
		return err
	}
	s.emit(ctx, events.NewTypingEvent(events.EventTypingStop, conversationID, actor.UserID))
	return nil
}

// Active lists who is currently typing.
func (s *TypingService) Active(ctx context.Context, actor domain.Actor, conversationID uuid.UUID) ([]domain.TypingIndicator, error) {
	if err := s.assertParticipant(ctx, actor, conversationID); err != nil {
		return nil, err
	}
	return s.store.Active(ctx, conversationID)
}

func (s *TypingService) assertParticipant(ctx context.Context, actor domain.Actor, conversationID uuid.UUID) error {
	conv, err := s.conversations.GetByID(ctx, actor.SchoolID, conversationID)
	if err != nil {
		return err
	}
	participant, _ := conv.ParticipantByUser(actor.UserID)
	return authz.Assert(authz.ActionReadConversation, authz.Input{Actor: actor, Conversation: &conv, Participant: participant})
}

func (s *TypingService) emit(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warnf("event fan-out failed for %s: %v", e.Name, err)
	}
}
