package repositories

import (
	"context"

	"warbler/db"
	"warbler/entities"

	"gorm.io/gorm/clause"
)

type likePgRepository struct {
	db db.Database
}

func NewLikePgRepository(database db.Database) LikeRepository {
	return &likePgRepository{db: database}
}

func (r *likePgRepository) Create(ctx context.Context, userID, messageID uint) error {
	like := entities.Like{UserID: userID, MessageID: messageID}
	return r.db.GetDB().WithContext(ctx).Omit(clause.Associations).Create(&like).Error
}

func (r *likePgRepository) Delete(ctx context.Context, userID, messageID uint) (bool, error) {
	res := r.db.GetDB().WithContext(ctx).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Delete(&entities.Like{})
	return res.RowsAffected > 0, res.Error
}

func (r *likePgRepository) Exists(ctx context.Context, userID, messageID uint) (bool, error) {
	var count int64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.Like{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Count(&count).Error
	return count > 0, err
}

func (r *likePgRepository) GetByUserID(ctx context.Context, userID uint) ([]entities.Like, error) {
	var likes []entities.Like
	err := r.db.GetDB().WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&likes).Error
	return likes, err
}

func (r *likePgRepository) LikedMessages(ctx context.Context, userID uint) ([]entities.Message, error) {
	var messages []entities.Message
	err := r.db.GetDB().WithContext(ctx).
		Preload("User").
		Joins("JOIN likes ON likes.message_id = messages.id").
		Where("likes.user_id = ?", userID).
		Order("messages.timestamp DESC").
		Find(&messages).Error
	return messages, err
}

func (r *likePgRepository) LikedMessageIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.GetDB().WithContext(ctx).Model(&entities.Like{}).
		Where("user_id = ?", userID).
		Pluck("message_id", &ids).Error
	return ids, err
}
