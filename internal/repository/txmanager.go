package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTxManager binds fresh repositories to a single database transaction
// for the duration of fn. A command's primary writes go through this so
// they commit or roll back as one unit.
type GormTxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

func (m *GormTxManager) Do(ctx context.Context, fn func(r Repos) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repos{
			Conversations: NewConversationRepository(tx),
			Messages:      NewMessageRepository(tx),
		})
	})
}

func clauseOnConflictDraft() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "reply_to_id", "updated_at"}),
	}
}
