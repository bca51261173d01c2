package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"warbler/entities"
	"warbler/repositories"

	"gorm.io/gorm"
)

type UserUseCase struct {
	Users    repositories.UserRepository
	Follows  repositories.FollowRepository
	Likes    repositories.LikeRepository
	Messages repositories.MessageRepository
}

func NewUserUseCase(users repositories.UserRepository, follows repositories.FollowRepository, likes repositories.LikeRepository, messages repositories.MessageRepository) *UserUseCase {
	return &UserUseCase{
		Users:    users,
		Follows:  follows,
		Likes:    likes,
		Messages: messages,
	}
}

// ProfileUpdate carries the editable profile fields. Empty fields keep the
// current value.
type ProfileUpdate struct {
	Username       string
	Email          string
	ImageURL       string
	HeaderImageURL string
	Bio            string
	Location       string
}

// Register signs up and persists a new user. Validation errors from
// entities.Signup are returned before anything is written.
func (uc *UserUseCase) Register(ctx context.Context, username, email, password, imageURL string) (*entities.User, error) {
	user, err := entities.Signup(username, email, password, imageURL)
	if err != nil {
		return nil, err
	}
	if err := uc.Users.Create(ctx, user); err != nil {
		return nil, translateWriteErr(err)
	}
	return user, nil
}

// Authenticate returns the user only when username and password match.
func (uc *UserUseCase) Authenticate(ctx context.Context, username, password string) (*entities.User, error) {
	user, err := uc.Users.GetByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (uc *UserUseCase) GetUser(ctx context.Context, id uint) (*entities.User, error) {
	user, err := uc.Users.GetByID(ctx, id)
	if err != nil {
		return nil, translateReadErr(err)
	}
	return user, nil
}

func (uc *UserUseCase) Search(ctx context.Context, query string) ([]entities.User, error) {
	return uc.Users.Search(ctx, strings.TrimSpace(query))
}

// UpdateProfile changes the principal's profile after re-checking the password.
func (uc *UserUseCase) UpdateProfile(ctx context.Context, principal *entities.User, password string, upd ProfileUpdate) (*entities.User, error) {
	if principal == nil {
		return nil, ErrUnauthorized
	}
	user, err := uc.Users.GetByID(ctx, principal.ID)
	if err != nil {
		return nil, translateReadErr(err)
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	if v := strings.TrimSpace(upd.Username); v != "" {
		user.Username = v
	}
	if v := strings.TrimSpace(upd.Email); v != "" {
		user.Email = v
	}
	if upd.ImageURL != "" {
		user.ImageURL = upd.ImageURL
	}
	if upd.HeaderImageURL != "" {
		user.HeaderImageURL = upd.HeaderImageURL
	}
	user.Bio = upd.Bio
	user.Location = upd.Location

	if err := uc.Users.Update(ctx, user); err != nil {
		return nil, translateWriteErr(err)
	}
	return user, nil
}

// DeleteUser removes the principal's account and everything hanging off it.
func (uc *UserUseCase) DeleteUser(ctx context.Context, principal *entities.User) error {
	if principal == nil {
		return ErrUnauthorized
	}
	return translateReadErr(uc.Users.Delete(ctx, principal.ID))
}

func (uc *UserUseCase) Follow(ctx context.Context, principal *entities.User, targetID uint) error {
	if principal == nil {
		return ErrUnauthorized
	}
	if principal.ID == targetID {
		return ErrSelfFollow
	}
	if _, err := uc.Users.GetByID(ctx, targetID); err != nil {
		return translateReadErr(err)
	}
	return uc.Follows.Create(ctx, principal.ID, targetID)
}

func (uc *UserUseCase) Unfollow(ctx context.Context, principal *entities.User, targetID uint) error {
	if principal == nil {
		return ErrUnauthorized
	}
	return uc.Follows.Delete(ctx, principal.ID, targetID)
}

func (uc *UserUseCase) ListFollowing(ctx context.Context, userID uint) ([]entities.User, error) {
	return uc.Follows.ListFollowing(ctx, userID)
}

func (uc *UserUseCase) ListFollowers(ctx context.Context, userID uint) ([]entities.User, error) {
	return uc.Follows.ListFollowers(ctx, userID)
}

// IsFollowing reports whether user follows other.
func (uc *UserUseCase) IsFollowing(ctx context.Context, user, other *entities.User) (bool, error) {
	if user == nil || other == nil {
		return false, nil
	}
	return uc.Follows.Exists(ctx, user.ID, other.ID)
}

// IsFollowedBy reports whether other follows user.
func (uc *UserUseCase) IsFollowedBy(ctx context.Context, user, other *entities.User) (bool, error) {
	if user == nil || other == nil {
		return false, nil
	}
	return uc.Follows.Exists(ctx, other.ID, user.ID)
}

func (uc *UserUseCase) ListLikedMessages(ctx context.Context, userID uint) ([]entities.Message, error) {
	return uc.Likes.LikedMessages(ctx, userID)
}

func (uc *UserUseCase) LikesByUser(ctx context.Context, userID uint) ([]entities.Like, error) {
	return uc.Likes.GetByUserID(ctx, userID)
}

// UserMessages returns up to limit of the user's newest messages.
func (uc *UserUseCase) UserMessages(ctx context.Context, userID uint, limit int) ([]entities.Message, error) {
	return uc.Messages.GetByUserID(ctx, userID, limit)
}

// Stats holds the counters shown on a profile page.
type Stats struct {
	Messages  int64 `json:"messages"`
	Following int   `json:"following"`
	Followers int   `json:"followers"`
	Likes     int   `json:"likes"`
}

func (uc *UserUseCase) Stats(ctx context.Context, userID uint) (Stats, error) {
	var stats Stats
	var err error
	if stats.Messages, err = uc.Messages.CountByUserID(ctx, userID); err != nil {
		return stats, err
	}
	following, err := uc.Follows.FollowingIDs(ctx, userID)
	if err != nil {
		return stats, err
	}
	followers, err := uc.Follows.FollowerIDs(ctx, userID)
	if err != nil {
		return stats, err
	}
	liked, err := uc.Likes.LikedMessageIDs(ctx, userID)
	if err != nil {
		return stats, err
	}
	stats.Following, stats.Followers, stats.Likes = len(following), len(followers), len(liked)
	return stats, nil
}

func translateReadErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func translateWriteErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUsernameTaken
	}
	return fmt.Errorf("save user: %w", err)
}
