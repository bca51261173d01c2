package repositories

import (
	"context"

	"warbler/db"
	"warbler/entities"

	"gorm.io/gorm"
)

type userPgRepository struct {
	db db.Database
}

func NewUserPgRepository(database db.Database) UserRepository {
	return &userPgRepository{db: database}
}

func (r *userPgRepository) Create(ctx context.Context, user *entities.User) error {
	return r.db.GetDB().WithContext(ctx).Create(user).Error
}

func (r *userPgRepository) GetByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userPgRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	err := r.db.GetDB().WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userPgRepository) Search(ctx context.Context, query string) ([]entities.User, error) {
	var users []entities.User
	tx := r.db.GetDB().WithContext(ctx).Order("username ASC")
	if query != "" {
		tx = tx.Where("username LIKE ?", "%"+query+"%")
	}
	err := tx.Find(&users).Error
	return users, err
}

func (r *userPgRepository) Update(ctx context.Context, user *entities.User) error {
	return r.db.GetDB().WithContext(ctx).Save(user).Error
}

// Delete removes the user together with their likes, follows and messages.
func (r *userPgRepository) Delete(ctx context.Context, id uint) error {
	return r.db.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ownMessages := tx.Model(&entities.Message{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("user_id = ? OR message_id IN (?)", id, ownMessages).Delete(&entities.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("follower_id = ? OR followed_id = ?", id, id).Delete(&entities.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&entities.Message{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&entities.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *userPgRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.User{}).Count(&count).Error
	return count, err
}
