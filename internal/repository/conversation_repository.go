package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"campuschat/internal/domain"
	"campuschat/pkg/apperrors"
)

type PostgresConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &PostgresConversationRepository{db: db}
}

func (r *PostgresConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	res := r.db.WithContext(ctx).Create(conv)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperrors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresConversationRepository) GetByID(ctx context.Context, schoolID, id uuid.UUID) (domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("id = ? AND school_id = ?", id, schoolID).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Conversation{}, apperrors.ErrNotFound
		}
		return domain.Conversation{}, err
	}
	return conv, nil
}

func (r *PostgresConversationRepository) GetDirectByKey(ctx context.Context, schoolID uuid.UUID, directKey string) (domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("school_id = ? AND direct_key = ?", schoolID, directKey).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Conversation{}, apperrors.ErrNotFound
		}
		return domain.Conversation{}, err
	}
	return conv, nil
}

func (r *PostgresConversationRepository) UpdateMeta(ctx context.Context, schoolID, id uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ? AND school_id = ?", id, schoolID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Delete(&domain.Conversation{}, "id = ? AND school_id = ?", id, schoolID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) SetArchived(ctx context.Context, schoolID, id uuid.UUID, archived bool) error {
	return r.UpdateMeta(ctx, schoolID, id, map[string]any{"is_archived": archived})
}

func (r *PostgresConversationRepository) ListForUser(ctx context.Context, schoolID, userID uuid.UUID) ([]domain.Conversation, error) {
	var convs []domain.Conversation
	sub := r.db.Model(&domain.Participant{}).
		Select("conversation_id").
		Where("user_id = ?", userID)

	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("school_id = ? AND id IN (?)", schoolID, sub).
		Order("last_message_at DESC NULLS LAST, created_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *PostgresConversationRepository) AddParticipant(ctx context.Context, p *domain.Participant) error {
	res := r.db.WithContext(ctx).Create(p)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperrors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresConversationRepository) RemoveParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Delete(&domain.Participant{}, "conversation_id = ? AND user_id = ?", conversationID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (domain.Participant, error) {
	var p domain.Participant
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Participant{}, apperrors.ErrNotFound
		}
		return domain.Participant{}, err
	}
	return p, nil
}

func (r *PostgresConversationRepository) UpdateParticipantRole(ctx context.Context, conversationID, userID uuid.UUID, role domain.ParticipantRole) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Participant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) CountOwners(ctx context.Context, conversationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Participant{}).
		Where("conversation_id = ? AND role = ?", conversationID, domain.ParticipantRoleOwner).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresConversationRepository) SetLastReadAt(ctx context.Context, conversationID, userID uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Participant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("last_read_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) CreateInvite(ctx context.Context, inv *domain.ConversationInvite) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *PostgresConversationRepository) GetInviteByID(ctx context.Context, schoolID, id uuid.UUID) (domain.ConversationInvite, error) {
	var inv domain.ConversationInvite
	err := r.db.WithContext(ctx).
		Where("id = ? AND school_id = ?", id, schoolID).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ConversationInvite{}, apperrors.ErrNotFound
		}
		return domain.ConversationInvite{}, err
	}
	return inv, nil
}

func (r *PostgresConversationRepository) UpdateInviteStatus(ctx context.Context, id uuid.UUID, status domain.InviteStatus, respondedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.ConversationInvite{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "responded_at": respondedAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) ListInvitesForInvitee(ctx context.Context, schoolID, inviteeID uuid.UUID) ([]domain.ConversationInvite, error) {
	var invites []domain.ConversationInvite
	err := r.db.WithContext(ctx).
		Where("school_id = ? AND invitee_id = ? AND status = ?", schoolID, inviteeID, domain.InviteStatusPending).
		Order("created_at DESC").
		Find(&invites).Error
	if err != nil {
		return nil, err
	}
	return invites, nil
}

func (r *PostgresConversationRepository) SaveDraft(ctx context.Context, d *domain.MessageDraft) error {
	return r.db.WithContext(ctx).
		Clauses(clauseOnConflictDraft()).
		Create(d).Error
}

func (r *PostgresConversationRepository) GetDraft(ctx context.Context, conversationID, userID uuid.UUID) (domain.MessageDraft, error) {
	var d domain.MessageDraft
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.MessageDraft{}, apperrors.ErrNotFound
		}
		return domain.MessageDraft{}, err
	}
	return d, nil
}

func (r *PostgresConversationRepository) DeleteDraft(ctx context.Context, conversationID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&domain.MessageDraft{}, "conversation_id = ? AND user_id = ?", conversationID, userID).Error
}
