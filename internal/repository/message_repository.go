package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campuschat/internal/domain"
	"campuschat/pkg/apperrors"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *domain.Message) error {
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperrors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, schoolID, id uuid.UUID) (domain.Message, error) {
	var m domain.Message
	err := r.db.WithContext(ctx).
		Where("id = ? AND school_id = ?", id, schoolID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Message{}, apperrors.ErrNotFound
		}
		return domain.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) Update(ctx context.Context, m *domain.Message) error {
	res := r.db.WithContext(ctx).Save(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// GetPage implements keyset pagination over (created_at, id). take+1 rows
// are fetched so hasMore falls out of the result length; "before" pages are
// read newest-first and reversed so callers always receive ascending order.
func (r *PostgresMessageRepository) GetPage(ctx context.Context, conversationID uuid.UUID, cursor *Cursor, take int, direction Direction) ([]domain.Message, bool, error) {
	var messages []domain.Message

	q := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID)

	switch direction {
	case DirectionAfter:
		if cursor != nil {
			q = q.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
		}
		q = q.Order("created_at ASC, id ASC")
	default: // before
		if cursor != nil {
			q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
		}
		q = q.Order("created_at DESC, id DESC")
	}

	if err := q.Limit(take + 1).Find(&messages).Error; err != nil {
		return nil, false, err
	}

	hasMore := len(messages) > take
	if hasMore {
		messages = messages[:take]
	}
	if direction != DirectionAfter {
		reverseMessages(messages)
	}
	return messages, hasMore, nil
}

func (r *PostgresMessageRepository) UpsertReadReceipt(ctx context.Context, receipt *domain.MessageReadReceipt) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"read_at"}),
		}).
		Create(receipt).Error
}

func (r *PostgresMessageRepository) GetReadReceipts(ctx context.Context, messageID uuid.UUID) ([]domain.MessageReadReceipt, error) {
	var receipts []domain.MessageReadReceipt
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

func (r *PostgresMessageRepository) AddReaction(ctx context.Context, reaction *domain.MessageReaction) error {
	res := r.db.WithContext(ctx).Create(reaction)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperrors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) GetReactionByID(ctx context.Context, id uuid.UUID) (domain.MessageReaction, error) {
	var reaction domain.MessageReaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&reaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.MessageReaction{}, apperrors.ErrNotFound
		}
		return domain.MessageReaction{}, err
	}
	return reaction, nil
}

func (r *PostgresMessageRepository) RemoveReaction(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.MessageReaction{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepository) Pin(ctx context.Context, p *domain.PinnedMessage) error {
	res := r.db.WithContext(ctx).Create(p)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperrors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) Unpin(ctx context.Context, conversationID, messageID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Delete(&domain.PinnedMessage{}, "conversation_id = ? AND message_id = ?", conversationID, messageID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepository) ListPinned(ctx context.Context, conversationID uuid.UUID) ([]domain.PinnedMessage, error) {
	var pinned []domain.PinnedMessage
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("pinned_at DESC").
		Find(&pinned).Error
	if err != nil {
		return nil, err
	}
	return pinned, nil
}

func (r *PostgresMessageRepository) CreateAttachment(ctx context.Context, a *domain.MessageAttachment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *PostgresMessageRepository) GetAttachments(ctx context.Context, messageID uuid.UUID) ([]domain.MessageAttachment, error) {
	var attachments []domain.MessageAttachment
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Find(&attachments).Error
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

// GetUnreadTotal counts, in one aggregated query, messages from other
// senders newer than the participant's last_read_at across every
// conversation the user belongs to. Null last_read_at falls back to epoch.
func (r *PostgresMessageRepository) GetUnreadTotal(ctx context.Context, schoolID, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Joins("JOIN participants ON participants.conversation_id = messages.conversation_id AND participants.user_id = ?", userID).
		Where("messages.school_id = ?", schoolID).
		Where("messages.sender_id <> ?", userID).
		Where("messages.is_deleted = false").
		Where("messages.created_at > COALESCE(participants.last_read_at, to_timestamp(0))").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetUnreadCounts is the per-conversation breakdown of the same
// aggregation, grouped by conversation id. Still a single round trip.
func (r *PostgresMessageRepository) GetUnreadCounts(ctx context.Context, schoolID, userID uuid.UUID) (map[uuid.UUID]int64, error) {
	type row struct {
		ConversationID uuid.UUID
		Count          int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("messages.conversation_id AS conversation_id, COUNT(*) AS count").
		Joins("JOIN participants ON participants.conversation_id = messages.conversation_id AND participants.user_id = ?", userID).
		Where("messages.school_id = ?", schoolID).
		Where("messages.sender_id <> ?", userID).
		Where("messages.is_deleted = false").
		Where("messages.created_at > COALESCE(participants.last_read_at, to_timestamp(0))").
		Group("messages.conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.ConversationID] = r.Count
	}
	return counts, nil
}

func reverseMessages(messages []domain.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
