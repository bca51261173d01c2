package repositories

import (
	"context"

	"warbler/db"
	"warbler/entities"

	"gorm.io/gorm/clause"
)

type messagePgRepository struct {
	db db.Database
}

func NewMessagePgRepository(database db.Database) MessageRepository {
	return &messagePgRepository{db: database}
}

func (r *messagePgRepository) Create(ctx context.Context, message *entities.Message) error {
	return r.db.GetDB().WithContext(ctx).Omit(clause.Associations).Create(message).Error
}

func (r *messagePgRepository) GetByID(ctx context.Context, id uint) (*entities.Message, error) {
	var message entities.Message
	err := r.db.GetDB().WithContext(ctx).Preload("User").Where("id = ?", id).First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messagePgRepository) GetByUserID(ctx context.Context, userID uint, limit int) ([]entities.Message, error) {
	return r.GetByUserIDs(ctx, []uint{userID}, limit)
}

// GetByUserIDs returns the newest messages written by any of userIDs.
func (r *messagePgRepository) GetByUserIDs(ctx context.Context, userIDs []uint, limit int) ([]entities.Message, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	var messages []entities.Message
	err := r.db.GetDB().WithContext(ctx).
		Preload("User").
		Where("user_id IN ?", userIDs).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// DeleteOwned deletes the message only if userID owns it. The ownership check
// and the delete are one statement.
func (r *messagePgRepository) DeleteOwned(ctx context.Context, id, userID uint) (bool, error) {
	res := r.db.GetDB().WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&entities.Message{})
	return res.RowsAffected > 0, res.Error
}

func (r *messagePgRepository) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.Message{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
