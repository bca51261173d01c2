package repositories

import (
	"context"

	"warbler/entities"
)

type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uint) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	Search(ctx context.Context, query string) ([]entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type MessageRepository interface {
	Create(ctx context.Context, message *entities.Message) error
	GetByID(ctx context.Context, id uint) (*entities.Message, error)
	GetByUserID(ctx context.Context, userID uint, limit int) ([]entities.Message, error)
	GetByUserIDs(ctx context.Context, userIDs []uint, limit int) ([]entities.Message, error)
	DeleteOwned(ctx context.Context, id, userID uint) (bool, error)
	CountByUserID(ctx context.Context, userID uint) (int64, error)
}

type FollowRepository interface {
	Create(ctx context.Context, followerID, followedID uint) error
	Delete(ctx context.Context, followerID, followedID uint) error
	Exists(ctx context.Context, followerID, followedID uint) (bool, error)
	ListFollowing(ctx context.Context, userID uint) ([]entities.User, error)
	ListFollowers(ctx context.Context, userID uint) ([]entities.User, error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	FollowerIDs(ctx context.Context, userID uint) ([]uint, error)
}

type LikeRepository interface {
	Create(ctx context.Context, userID, messageID uint) error
	Delete(ctx context.Context, userID, messageID uint) (bool, error)
	Exists(ctx context.Context, userID, messageID uint) (bool, error)
	GetByUserID(ctx context.Context, userID uint) ([]entities.Like, error)
	LikedMessages(ctx context.Context, userID uint) ([]entities.Message, error)
	LikedMessageIDs(ctx context.Context, userID uint) ([]uint, error)
}
