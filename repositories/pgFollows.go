package repositories

import (
	"context"

	"warbler/db"
	"warbler/entities"

	"gorm.io/gorm/clause"
)

type followPgRepository struct {
	db db.Database
}

func NewFollowPgRepository(database db.Database) FollowRepository {
	return &followPgRepository{db: database}
}

func (r *followPgRepository) Create(ctx context.Context, followerID, followedID uint) error {
	follow := entities.Follow{FollowerID: followerID, FollowedID: followedID}
	return r.db.GetDB().WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&follow).Error
}

func (r *followPgRepository) Delete(ctx context.Context, followerID, followedID uint) error {
	return r.db.GetDB().WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&entities.Follow{}).Error
}

func (r *followPgRepository) Exists(ctx context.Context, followerID, followedID uint) (bool, error) {
	var count int64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	return count > 0, err
}

// ListFollowing returns the users userID follows.
func (r *followPgRepository) ListFollowing(ctx context.Context, userID uint) ([]entities.User, error) {
	var users []entities.User
	err := r.db.GetDB().WithContext(ctx).
		Joins("JOIN follows ON follows.followed_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("users.username ASC").
		Find(&users).Error
	return users, err
}

// ListFollowers returns the users following userID.
func (r *followPgRepository) ListFollowers(ctx context.Context, userID uint) ([]entities.User, error) {
	var users []entities.User
	err := r.db.GetDB().WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ?", userID).
		Order("users.username ASC").
		Find(&users).Error
	return users, err
}

func (r *followPgRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.GetDB().WithContext(ctx).Model(&entities.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followed_id", &ids).Error
	return ids, err
}

func (r *followPgRepository) FollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.GetDB().WithContext(ctx).Model(&entities.Follow{}).
		Where("followed_id = ?", userID).
		Pluck("follower_id", &ids).Error
	return ids, err
}
